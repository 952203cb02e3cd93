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
	"os"
	"sort"

	"github.com/xelalexv/fluxdisk/pkg/control"
	"github.com/xelalexv/fluxdisk/pkg/disk/format"
	"github.com/xelalexv/fluxdisk/pkg/disk/ibm"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		`dump -f|--format {format} -i|--input {dump} [-c|--cylinder {cylinder}]
      [-H|--head {head}] [--diskdefs {file}]`,
		"dump decoded sectors of a track dump",
		`
Use the dump command to output a hex dump of the sectors decoded from a track
dump. Without cylinder, all tracks in the dump are shown.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Format, "format", "f", "", nil, "format name", true)
	d.AddSetting(&d.Input, "input", "i", "", nil, "track dump file", true)
	d.AddSetting(&d.Cylinder, "cylinder", "c", "", -1,
		"cylinder; all when omitted", false).InRange(-1, 254)
	d.AddSetting(&d.Head, "head", "H", "", -1,
		"head; both when omitted", false).InRange(-1, 1)

	return d
}

//
type Dump struct {
	//
	Runner
	//
	Format   string
	Input    string
	Cylinder int
	Head     int
}

//
func (d *Dump) Run() error {

	if err := d.ParseSettings(); err != nil {
		return err
	}

	f, err := d.getFormat(d.Format)
	if err != nil {
		return err
	}

	if err := checkTrack(f, d.Cylinder, d.Head); err != nil {
		return err
	}

	dump, err := readDumpFile(d.Input, f)
	if err != nil {
		return err
	}

	var positions []format.Position
	for p := range dump {
		if (d.Cylinder == -1 || p.Cyl == d.Cylinder) &&
			(d.Head == -1 || p.Head == d.Head) {
			positions = append(positions, p)
		}
	}

	if len(positions) == 0 {
		return fmt.Errorf("no matching tracks in %s", d.Input)
	}

	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Cyl != positions[j].Cyl {
			return positions[i].Cyl < positions[j].Cyl
		}
		return positions[i].Head < positions[j].Head
	})

	for _, p := range positions {

		t := f.Track(p.Cyl, p.Head)
		var mm []ibm.Mismatch
		for _, e := range dump[p] {
			found, err := t.DecodeRaw(e.Raw)
			if err != nil {
				return fmt.Errorf("track %s: %v", p, err)
			}
			mm = append(mm, found...)
		}

		fmt.Printf("\n%s", control.NewTrackReport(t, mm))

		for ix, s := range t.Sectors {
			if t.HasSector(ix) {
				s.Emit(os.Stdout)
			}
		}
		for _, a := range t.Dangling() {
			fmt.Printf("\ndangling: %s\n", a)
		}
	}

	fmt.Println()
	return nil
}
