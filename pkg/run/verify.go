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
	"github.com/xelalexv/fluxdisk/pkg/image"
)

//
func NewVerify() *Verify {

	v := &Verify{}
	v.Runner = *NewRunner(
		`verify -f|--format {format} -i|--input {image} -r|--readback {dump}
      [--diskdefs {file}] [--workers {n}]`,
		"verify read back tracks against image",
		`
Use the verify command to check tracks read back after writing against the
image that was written. Each track of the image is encoded, and compared sector
by sector with the tracks in the read back dump. Verification fails if any
track is missing from the dump or does not match.`,
		"", runnerHelpEpilogue, v.Run)

	v.AddBaseSettings()
	v.AddSetting(&v.Format, "format", "f", "", nil, "format name", true)
	v.AddSetting(&v.Input, "input", "i", "", nil, "image file", true)
	v.AddSetting(&v.Readback, "readback", "r", "", nil,
		"track dump read back from disk", true)

	return v
}

//
type Verify struct {
	//
	Runner
	//
	Format   string
	Input    string
	Readback string
}

//
type verifyResult int

const (
	verifyMissing verifyResult = iota
	verifyFailed
	verifyOK
)

//
func (r verifyResult) String() string {
	switch r {
	case verifyOK:
		return "OK"
	case verifyFailed:
		return "FAILED"
	default:
		return "not in read back dump"
	}
}

//
func (v *Verify) Run() error {

	if err := v.ParseSettings(); err != nil {
		return err
	}

	f, err := v.getFormat(v.Format)
	if err != nil {
		return err
	}

	in, err := os.Open(v.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	tracks, err := image.Read(f, bufio.NewReader(in))
	if err != nil {
		return err
	}

	dump, err := readDumpFile(v.Readback, f)
	if err != nil {
		return err
	}

	jobs := make([]format.Position, len(tracks))
	for ix, t := range tracks {
		jobs[ix] = t.Position
	}

	results := make([]verifyResult, len(tracks))

	if err := v.runBatch(jobs,
		func(ctx context.Context, ix int, p format.Position) error {
			entries := dump[p]
			if len(entries) == 0 {
				return nil
			}
			t := f.Track(p.Cyl, p.Head)
			t.SetImgTrack(tracks[ix].Data)
			master := t.RawTrack()
			results[ix] = verifyFailed
			// any one good read back suffices
			for _, e := range entries {
				if master.Verify.VerifyTrack(e.Raw) {
					results[ix] = verifyOK
					break
				}
			}
			return nil
		}); err != nil {
		return err
	}

	failed := 0
	for ix, r := range results {
		if r != verifyOK {
			failed++
		}
		fmt.Printf("T%s: %s\n", jobs[ix], r)
	}

	log.WithFields(log.Fields{
		"format": f.Name,
		"tracks": len(jobs),
		"failed": failed,
	}).Info("verification done")

	if failed > 0 {
		return fmt.Errorf("verification failed for %d of %d tracks",
			failed, len(jobs))
	}
	return nil
}
