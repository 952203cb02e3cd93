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
	"bufio"
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/control"
	"github.com/xelalexv/fluxdisk/pkg/disk/format"
	"github.com/xelalexv/fluxdisk/pkg/disk/ibm"
	"github.com/xelalexv/fluxdisk/pkg/image"
)

//
func NewDecode() *Decode {

	d := &Decode{}
	d.Runner = *NewRunner(
		`decode -f|--format {format} -i|--input {dump} -o|--output {image}
      [--strict] [--force] [--diskdefs {file}] [--workers {n}]`,
		"decode track dump into image",
		`
Use the decode command to turn a track dump into a flat sector image. Tracks
missing from the dump, and sectors that could not be read, are filled with a
marker pattern in the image. Several entries for the same track in the dump are
merged, so that a good read of a sector wins over a bad one.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Format, "format", "f", "", nil, "format name", true)
	d.AddSetting(&d.Input, "input", "i", "", nil, "track dump file", true)
	d.AddSetting(&d.Output, "output", "o", "", nil, "image file", true)
	d.AddSetting(&d.Strict, "strict", "", "", false,
		"fail if any sector is missing; the image is still written", false)
	d.AddSetting(&d.Force, "force", "", "", false,
		"overwrite existing output file", false)

	return d
}

//
type Decode struct {
	//
	Runner
	//
	Format string
	Input  string
	Output string
	Strict bool
	Force  bool
}

//
func (d *Decode) Run() error {

	if err := d.ParseSettings(); err != nil {
		return err
	}

	f, err := d.getFormat(d.Format)
	if err != nil {
		return err
	}

	dump, err := readDumpFile(d.Input, f)
	if err != nil {
		return err
	}

	if err := checkOverwrite(d.Output, d.Force); err != nil {
		return err
	}

	jobs := f.Tracks()
	tracks := make([]*ibm.Formatted, len(jobs))
	reports := make([]*control.TrackReport, len(jobs))

	if err := d.runBatch(jobs,
		func(ctx context.Context, ix int, p format.Position) error {
			t := f.Track(p.Cyl, p.Head)
			tracks[ix] = t
			entries := dump[p]
			if len(entries) == 0 {
				return nil
			}
			var mm []ibm.Mismatch
			seen := map[ibm.Mismatch]bool{}
			for _, e := range entries {
				found, err := t.DecodeRaw(e.Raw)
				if err != nil {
					return fmt.Errorf("track %s: %v", p, err)
				}
				for _, m := range found {
					if !seen[m] {
						seen[m] = true
						mm = append(mm, m)
					}
				}
			}
			reports[ix] = control.NewTrackReport(t, mm)
			return nil
		}); err != nil {
		return err
	}

	missing := 0
	absent := 0

	for ix, r := range reports {
		if r == nil {
			absent++
			missing += len(tracks[ix].Sectors)
			fmt.Printf("T%s: not in dump\n", jobs[ix])
			continue
		}
		missing += r.Missing
		fmt.Print(r)
	}

	log.WithFields(log.Fields{
		"format":  f.Name,
		"tracks":  len(jobs),
		"absent":  absent,
		"missing": missing,
	}).Info("dump decoded")

	if err := writeFile(d.Output, func(w *bufio.Writer) error {
		return image.Write(tracks, w)
	}); err != nil {
		return err
	}

	if d.Strict && missing > 0 {
		return fmt.Errorf("%d sectors missing", missing)
	}
	return nil
}
