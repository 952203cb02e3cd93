/*
   FluxDisk - floppy disk flux track codec
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of FluxDisk.

   FluxDisk is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   FluxDisk is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with FluxDisk. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/batch"
	"github.com/xelalexv/fluxdisk/pkg/disk/format"
	"github.com/xelalexv/fluxdisk/pkg/diskdefs"
)

//
const runnerHelpPrologue = ""
const runnerHelpEpilogue = `- When a flag can be set via environment variable, the variable name is given
  in parenthesis at the end of the flag explanation. Note however that a flag,
  when specified overrides an environment variable.

- Settings can also be placed in a YAML or JSON config file, using the
  long flag names as keys. Point FLUXDISK_CONFIG to that file.
`

/*
	NewRunner creates a base runner for commands to use. The parameters are
	passed to the base command wrapped by this runner.
*/
func NewRunner(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Runner {
	return &Runner{
		Command: *NewCommand(
			use, short, long, helpPrologue, helpEpilogue, exec),
	}
}

//
type Runner struct {
	//
	Command
	//
	DiskDefs string
	Server   string
	Workers  int
}

//
func (r *Runner) AddBaseSettings() {
	// Implementation Note: This cannot be included in NewRunner, but rather has
	// to be called from the top level command type. Otherwise, we will confuse
	// Cobra/Viper and the settings will not be filled with their values.
	r.AddSetting(&r.DiskDefs, "diskdefs", "", "FLUXDISK_DISKDEFS", nil,
		"disk definitions file; built-in definitions when omitted", false)
	r.AddSetting(&r.Workers, "workers", "", "FLUXDISK_WORKERS",
		batch.DefaultWorkers, "number of tracks to process in parallel",
		false).InRange(1, 256)
}

// addServerSetting adds the setting for commands that can query a server.
func (r *Runner) addServerSetting() {
	r.AddSetting(&r.Server, "server", "", "FLUXDISK_SERVER", nil,
		"address of a FluxDisk API server to query instead of local definitions",
		false)
}

// getFormat compiles the named format from the configured disk definitions.
func (r *Runner) getFormat(name string) (*format.Format, error) {
	if name == "" {
		return nil, fmt.Errorf("no format specified")
	}
	return diskdefs.Get(name, r.DiskDefs)
}

// runBatch processes the given tracks with the configured number of workers.
func (r *Runner) runBatch(jobs []format.Position, fn batch.Func) error {
	return batch.Run(context.Background(), r.Workers, jobs, fn)
}

// checkTrack returns an error if format f does not cover track cyl.head. A
// negative cyl or head stands for any.
func checkTrack(f *format.Format, cyl, head int) error {
	if cyl >= f.Cyls() {
		return fmt.Errorf("format %s has only %d cylinders", f.Name, f.Cyls())
	}
	if head >= f.Heads() {
		return fmt.Errorf("format %s has only %d heads", f.Name, f.Heads())
	}
	if cyl >= 0 && head >= 0 && f.Template(cyl, head) == nil {
		return fmt.Errorf("format %s has no track %d.%d", f.Name, cyl, head)
	}
	return nil
}

//
func (r *Runner) serverURL(path string) string {
	addr := r.Server
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	if strings.LastIndex(addr, ":") <= strings.Index(addr, "://") {
		addr += ":8888"
	}
	return strings.TrimSuffix(addr, "/") + path
}

//
func (r *Runner) apiCall(method, path string, json bool,
	body io.Reader) (io.ReadCloser, error) {

	client := &http.Client{}
	req, err := http.NewRequest(method, r.serverURL(path), body)
	if err != nil {
		return nil, err
	}

	if json {
		req.Header.Add("Content-Type", "application/json")
		req.Header.Add("Accept", "application/json")
	} else {
		req.Header.Add("Content-Type", "text/plain")
		req.Header.Add("Accept", "text/plain")
	}

	log.WithFields(log.Fields{
		"method": method,
		"url":    req.URL.String(),
	}).Debug("API call")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server replied with %d: %s", resp.StatusCode,
			strings.TrimSpace(string(msg)))
	}

	return resp.Body, nil
}

//
func formatPath(name string) string {
	return "/format/" + url.PathEscape(name)
}

// checkOverwrite returns an error if file exists and the user does not
// want it to be overwritten.
func checkOverwrite(file string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(file); err == nil {
		if !GetUserConfirmation(
			fmt.Sprintf("File %s exists, overwrite?", file)) {
			return fmt.Errorf("not overwriting %s", file)
		}
	}
	return nil
}

//
func printJSON(obj interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(obj)
}
