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

package control

import (
	"fmt"
	"strings"

	"github.com/xelalexv/fluxdisk/pkg/disk/fm"
	"github.com/xelalexv/fluxdisk/pkg/disk/format"
	"github.com/xelalexv/fluxdisk/pkg/disk/ibm"
	"github.com/xelalexv/fluxdisk/pkg/image"
)

//
type FormatList struct {
	Formats []string `json:"formats"`
}

//
func (l *FormatList) String() string {
	return "\n  " + strings.Join(l.Formats, "\n  ") + "\n"
}

//
type FormatInfo struct {
	Name        string `json:"name"`
	TrackSet    string `json:"trackSet"`
	DefaultRevs int    `json:"defaultRevs"`
	Cyls        int    `json:"cyls"`
	Heads       int    `json:"heads"`
	Step        int    `json:"step"`
	Tracks      int    `json:"tracks"`
	ImageSize   int    `json:"imageSize"`
}

//
func NewFormatInfo(f *format.Format) *FormatInfo {
	return &FormatInfo{
		Name:        f.Name,
		TrackSet:    f.TrackSet(),
		DefaultRevs: f.DefaultRevs(),
		Cyls:        f.Cyls(),
		Heads:       f.Heads(),
		Step:        f.Step(),
		Tracks:      len(f.Tracks()),
		ImageSize:   image.Size(f),
	}
}

//
func (i *FormatInfo) String() string {
	return fmt.Sprintf(
		"\nformat:       %s\ntracks:       %s (%d covered)\n"+
			"default revs: %d\nimage size:   %d bytes\n",
		i.Name, i.TrackSet, i.Tracks, i.DefaultRevs, i.ImageSize)
}

//
type SectorReport struct {
	ID      int  `json:"id"`
	Size    int  `json:"size"`
	Offset  int  `json:"offset"`
	OK      bool `json:"ok"`
	Deleted bool `json:"deleted"`
}

// TrackReport is the outcome of decoding a track. Sectors are in track order.
type TrackReport struct {
	Cylinder   int            `json:"cylinder"`
	Head       int            `json:"head"`
	Summary    string         `json:"summary"`
	Missing    int            `json:"missing"`
	Sectors    []SectorReport `json:"sectors"`
	Mismatches []string       `json:"mismatches,omitempty"`
	Dangling   []string       `json:"dangling,omitempty"`
}

//
func NewTrackReport(t *ibm.Formatted, mm []ibm.Mismatch) *TrackReport {

	ret := &TrackReport{
		Cylinder: t.Cyl,
		Head:     t.Head,
		Summary:  t.Summary(),
		Missing:  t.Missing(),
	}

	for ix, s := range t.Sectors {
		ret.Sectors = append(ret.Sectors, SectorReport{
			ID:      int(s.IDAM.R),
			Size:    s.Size(),
			Offset:  s.Start,
			OK:      t.HasSector(ix),
			Deleted: s.DAM.Mark == fm.MarkDDAM,
		})
	}

	for _, m := range mm {
		ret.Mismatches = append(ret.Mismatches, m.String())
	}

	for _, a := range t.Dangling() {
		ret.Dangling = append(ret.Dangling, a.String())
	}

	return ret
}

//
func (r *TrackReport) String() string {

	var sb strings.Builder

	fmt.Fprintf(&sb, "T%d.%d: %s\n", r.Cylinder, r.Head, r.Summary)

	if r.Missing > 0 {
		var ids []string
		for _, s := range r.Sectors {
			if !s.OK {
				ids = append(ids, fmt.Sprintf("%d", s.ID))
			}
		}
		fmt.Fprintf(&sb, "  missing: %s\n", strings.Join(ids, ","))
	}

	for _, m := range r.Mismatches {
		fmt.Fprintf(&sb, "  unexpected sector: %s\n", m)
	}

	return sb.String()
}
