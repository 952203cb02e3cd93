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
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/format"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
	"github.com/xelalexv/fluxdisk/pkg/image"
)

//
func NewEncode() *Encode {

	e := &Encode{}
	e.Runner = *NewRunner(
		`encode -f|--format {format} -i|--input {image} -o|--output {dump}
      [-r|--revs {revolutions}] [--force] [--diskdefs {file}] [--workers {n}]`,
		"encode image into track dump",
		`
Use the encode command to turn a flat sector image into a track dump, with each
track encoded according to the given format. Each track is written as if read
back from an ideal drive for the given number of revolutions.`,
		"", runnerHelpEpilogue, e.Run)

	e.AddBaseSettings()
	e.AddSetting(&e.Format, "format", "f", "", nil, "format name", true)
	e.AddSetting(&e.Input, "input", "i", "", nil, "image file", true)
	e.AddSetting(&e.Output, "output", "o", "", nil, "track dump file", true)
	e.AddSetting(&e.Revs, "revs", "r", "", 0,
		"revolutions per track; format's default when omitted",
		false).InRange(0, 255)
	e.AddSetting(&e.Force, "force", "", "", false,
		"overwrite existing output file", false)

	return e
}

//
type Encode struct {
	//
	Runner
	//
	Format string
	Input  string
	Output string
	Revs   int
	Force  bool
}

//
func (e *Encode) Run() error {

	if err := e.ParseSettings(); err != nil {
		return err
	}

	f, err := e.getFormat(e.Format)
	if err != nil {
		return err
	}

	revs := e.Revs
	if revs == 0 {
		if revs = f.DefaultRevs(); revs == 0 {
			return fmt.Errorf("format %s covers no tracks", f.Name)
		}
	}

	in, err := os.Open(e.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	tracks, err := image.Read(f, bufio.NewReader(in))
	if err != nil {
		return err
	}

	if err := checkOverwrite(e.Output, e.Force); err != nil {
		return err
	}

	jobs := make([]format.Position, len(tracks))
	for ix, t := range tracks {
		jobs[ix] = t.Position
	}

	entries := make([]*track.Entry, len(tracks))

	if err := e.runBatch(jobs,
		func(ctx context.Context, ix int, p format.Position) error {
			t := f.Track(p.Cyl, p.Head)
			if n := t.SetImgTrack(tracks[ix].Data); n != len(tracks[ix].Data) {
				return fmt.Errorf("track %s took %d of %d bytes",
					p, n, len(tracks[ix].Data))
			}
			entries[ix] = t.RawTrack().Entry(p.Cyl, p.Head, revs)
			return nil
		}); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"format": f.Name,
		"tracks": len(entries),
		"revs":   revs,
	}).Info("image encoded")

	return writeFile(e.Output, func(w *bufio.Writer) error {
		return track.WriteDump(w, entries)
	})
}
