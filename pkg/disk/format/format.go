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

package format

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/ibm"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

// Format is a compiled disk definition.
type Format struct {
	Name string
	disk *DiskConfig
}

//
func (f *Format) Cyls() int {
	return f.disk.Cyls
}

//
func (f *Format) Heads() int {
	return f.disk.Heads
}

//
func (f *Format) Step() int {
	return f.disk.Step
}

// DefaultRevs is the number of revolutions to read per track, the maximum over
// all track templates in use. Zero if the format covers no tracks.
func (f *Format) DefaultRevs() int {
	ret := 0
	for _, tc := range f.disk.tracks {
		if r := tc.DefaultRevs(); r > ret {
			ret = r
		}
	}
	return ret
}

// TrackSet describes the cylinders and heads of the disk, in the form
// c=0-N:h=0-M[:step=S].
func (f *Format) TrackSet() string {
	s := "c=0"
	if f.disk.Cyls > 1 {
		s += fmt.Sprintf("-%d", f.disk.Cyls-1)
	}
	s += ":h=0"
	if f.disk.Heads > 1 {
		s += fmt.Sprintf("-%d", f.disk.Heads-1)
	}
	if f.disk.Step > 1 {
		s += fmt.Sprintf(":step=%d", f.disk.Step)
	}
	return s
}

// Tracks returns all positions that have a track template, ordered by cylinder
// and then head.
func (f *Format) Tracks() []Position {
	ret := make([]Position, 0, len(f.disk.tracks))
	for p := range f.disk.tracks {
		ret = append(ret, p)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Cyl != ret[j].Cyl {
			return ret[i].Cyl < ret[j].Cyl
		}
		return ret[i].Head < ret[j].Head
	})
	return ret
}

// Template returns the track template for the given position, or nil if the
// position is not covered.
func (f *Format) Template(cyl, head int) *TrackConfig {
	return f.disk.tracks[Position{cyl, head}]
}

// Track builds the ideal track for the given position, or returns nil if the
// position is not covered.
func (f *Format) Track(cyl, head int) *ibm.Formatted {
	if tc := f.Template(cyl, head); tc != nil {
		return tc.MkTrack(cyl, head)
	}
	return nil
}

// DecodeTrack builds the ideal track for the given position and fills it from
// raw.
func (f *Format) DecodeTrack(cyl, head int, raw *track.Raw) (
	*ibm.Formatted, []ibm.Mismatch, error) {

	t := f.Track(cyl, head)
	if t == nil {
		return nil, nil, fmt.Errorf(
			"format %s has no track %d.%d", f.Name, cyl, head)
	}

	mm, err := t.DecodeRaw(raw)
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"format":   f.Name,
		"cylinder": cyl,
		"head":     head,
		"summary":  t.Summary(),
	}).Debug("track decoded")

	return t, mm, nil
}
