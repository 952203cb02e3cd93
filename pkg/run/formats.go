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
	"fmt"
	"io"

	"github.com/xelalexv/fluxdisk/pkg/control"
	"github.com/xelalexv/fluxdisk/pkg/diskdefs"
)

//
func NewFormats() *Formats {

	f := &Formats{}
	f.Runner = *NewRunner(
		"formats [-f|--format {format}] [--diskdefs {file}] [--server {address}]",
		"list formats in disk definitions",
		`
Use the formats command to list the formats contained in the disk definitions.
When a format is given, a summary of that format is shown instead.`,
		"", runnerHelpEpilogue, f.Run)

	f.AddBaseSettings()
	f.addServerSetting()
	f.AddSetting(&f.Format, "format", "f", "", nil,
		"format for which to show a summary", false)

	return f
}

//
type Formats struct {
	//
	Runner
	//
	Format string
}

//
func (f *Formats) Run() error {

	if err := f.ParseSettings(); err != nil {
		return err
	}

	if f.Server != "" {
		path := "/formats"
		if f.Format != "" {
			path = formatPath(f.Format)
		}
		resp, err := f.apiCall("GET", path, false, nil)
		if err != nil {
			return err
		}
		defer resp.Close()

		out, err := io.ReadAll(resp)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", out)
		return nil
	}

	if f.Format != "" {
		form, err := f.getFormat(f.Format)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", control.NewFormatInfo(form))
		return nil
	}

	names, err := diskdefs.Names(f.DiskDefs)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", &control.FormatList{Formats: names})
	return nil
}
