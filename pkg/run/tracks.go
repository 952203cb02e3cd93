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
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/format"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

// dumpTracks holds the entries of a dump file, grouped by track. There may be
// several entries for one track, e.g. from repeated reads.
type dumpTracks map[format.Position][]*track.Entry

// readDumpFile reads the dump file at path. Entries for tracks that format f
// does not cover are dropped with a warning.
func readDumpFile(path string, f *format.Format) (dumpTracks, error) {

	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	entries, err := track.ReadDump(bufio.NewReader(in))
	if err != nil {
		return nil, err
	}

	ret := dumpTracks{}

	for _, e := range entries {
		if f.Template(e.Cylinder, e.Head) == nil {
			log.WithFields(log.Fields{
				"format":   f.Name,
				"cylinder": e.Cylinder,
				"head":     e.Head,
			}).Warn("ignoring track not covered by format")
			continue
		}
		p := format.Position{Cyl: e.Cylinder, Head: e.Head}
		ret[p] = append(ret[p], e)
	}

	return ret, nil
}

// writeFile creates file and hands it to write, buffered.
func writeFile(file string, write func(w *bufio.Writer) error) error {

	out, err := os.Create(file)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	if err := write(w); err != nil {
		out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
