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
)

//
func NewLayout() *Layout {

	l := &Layout{}
	l.Runner = *NewRunner(
		`layout -f|--format {format} [-c|--cylinder {cylinder}] [-H|--head {head}]
      [--json] [--diskdefs {file}] [--server {address}]`,
		"show the layout of a track",
		`
Use the layout command to show how a track of a format is laid out: data rate,
track length, gaps, and the position of each sector.`,
		"", runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.addServerSetting()
	l.AddSetting(&l.Format, "format", "f", "", nil, "format name", true)
	l.AddSetting(&l.Cylinder, "cylinder", "c", "", 0, "cylinder",
		false).InRange(0, 254)
	l.AddSetting(&l.Head, "head", "H", "", 0, "head", false).InRange(0, 1)
	l.AddSetting(&l.JSON, "json", "", "", false, "output JSON", false)

	return l
}

//
type Layout struct {
	//
	Runner
	//
	Format   string
	Cylinder int
	Head     int
	JSON     bool
}

//
func (l *Layout) Run() error {

	if err := l.ParseSettings(); err != nil {
		return err
	}

	if l.Server != "" {
		resp, err := l.apiCall("GET", fmt.Sprintf("%s/track/%d/%d",
			formatPath(l.Format), l.Cylinder, l.Head), l.JSON, nil)
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

	f, err := l.getFormat(l.Format)
	if err != nil {
		return err
	}

	if err := checkTrack(f, l.Cylinder, l.Head); err != nil {
		return err
	}

	layout := f.Track(l.Cylinder, l.Head).Layout()

	if l.JSON {
		return printJSON(layout)
	}
	fmt.Printf("%s\n", layout)
	return nil
}
