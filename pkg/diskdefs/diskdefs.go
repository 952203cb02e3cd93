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

package diskdefs

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/format"
)

// DefaultSource is the name under which the built-in definitions are
// reported.
const DefaultSource = "diskdefs.cfg"

//go:embed diskdefs.cfg
var builtin []byte

//
func newFileSource(file string) (*fileSource, error) {
	if f, err := os.Open(file); err != nil {
		return nil, err
	} else {
		return &fileSource{file: f, reader: bufio.NewReader(f)}, nil
	}
}

//
type fileSource struct {
	file   *os.File
	reader io.Reader
}

//
func (fs *fileSource) Read(p []byte) (n int, err error) {
	return fs.reader.Read(p)
}

//
func (fs *fileSource) Close() error {
	return fs.file.Close()
}

/*
	Open opens the disk definitions at path, with a leading ~ standing for the
	user's home directory. An empty path selects the built-in definitions.
	Also returns the name of the source, for use in error messages.
*/
func Open(path string) (io.ReadCloser, string, error) {

	log.WithField("path", path).Debug("resolving disk definitions")

	if path == "" {
		return io.NopCloser(bytes.NewReader(builtin)), DefaultSource, nil
	}

	p, err := expandHome(path)
	if err != nil {
		return nil, "", err
	}

	src, err := newFileSource(p)
	if err != nil {
		return nil, "", err
	}
	return src, path, nil
}

//
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand %s: %v", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

// Get compiles format name from the disk definitions at path. Different from
// format.Compile, a missing format is an error.
func Get(name, path string) (*format.Format, error) {

	in, src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	f, err := format.Compile(name, in, src)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("unknown format: %s", name)
	}
	return f, nil
}

// Names lists the names of all formats in the disk definitions at path.
func Names(path string) ([]string, error) {
	in, _, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return format.ListNames(in)
}
