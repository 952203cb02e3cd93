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

package ibm

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/area"
	"github.com/xelalexv/fluxdisk/pkg/disk/bits"
	"github.com/xelalexv/fluxdisk/pkg/disk/crc"
	"github.com/xelalexv/fluxdisk/pkg/disk/fm"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

// DefaultRevs is the number of revolutions to read for an FM track.
const DefaultRevs = 2

const (
	// bytes of zeros in front of each mark
	gapPresync = 6
	// filler byte for gaps
	gapByte = 0xff

	// a data mark belongs to the pending ID field, unless it starts more than
	// this many bit cells before the end of that field
	pairingDistance = 1000
	// areas starting closer than this on different revolutions are taken to
	// be the same feature
	dedupDistance = 1000
)

/*
	Track is an IBM FM track: index marks and sectors, ordered by their offset
	in bit cells from the index. It decodes raw bit streams into areas, and
	encodes its areas back into a bit stream.
*/
type Track struct {
	//
	Cyl  int
	Head int
	//
	IAMs    []*area.IAM
	Sectors []*area.Sector
	//
	TimePerRev float64
	Clock      float64
	// nominal bit cells per revolution, derived from timing when zero
	TrackLen int
	//
	dangling []area.Area
}

//
func NewTrack(cyl, head int) *Track {
	return &Track{Cyl: cyl, Head: head}
}

//
func (t *Track) Summary() string {
	nsec := len(t.Sectors)
	return fmt.Sprintf("IBM FM (%d/%d sectors)", nsec-t.Missing(), nsec)
}

// HasSector tells whether the ix-th sector in track order is intact.
func (t *Track) HasSector(ix int) bool {
	return 0 <= ix && ix < len(t.Sectors) && t.Sectors[ix].CRC() == 0
}

// Missing returns the number of sectors not (yet) read successfully.
func (t *Track) Missing() int {
	ret := 0
	for _, s := range t.Sectors {
		if s.CRC() != 0 {
			ret++
		}
	}
	return ret
}

// Dangling returns ID fields without data, and data fields without ID, seen
// during the last decode.
func (t *Track) Dangling() []area.Area {
	return t.dangling
}

/*
	DecodeRaw scans raw for index marks and sectors and merges them into this
	track. Areas seen on several revolutions are merged into one; an intact
	sector replaces a defective one found earlier, but never the other way
	round.
*/
func (t *Track) DecodeRaw(raw *track.Raw) error {

	if err := raw.Validate(); err != nil {
		return err
	}

	areas := scan(raw.Bits)
	rebase(areas, raw.Revolutions)

	t.dangling = nil

	for _, a := range areas {
		switch v := a.(type) {

		case *area.IAM:
			if !t.hasIAMNear(v.Start) {
				t.IAMs = append(t.IAMs, v)
			}

		case *area.Sector:
			t.mergeSector(v)

		default:
			t.dangling = append(t.dangling, a)
		}
	}

	sort.SliceStable(t.IAMs, func(i, j int) bool {
		return t.IAMs[i].Start < t.IAMs[j].Start
	})
	sort.SliceStable(t.Sectors, func(i, j int) bool {
		return t.Sectors[i].Start < t.Sectors[j].Start
	})

	log.WithFields(log.Fields{
		"cylinder": t.Cyl,
		"head":     t.Head,
		"areas":    len(areas),
		"sectors":  len(t.Sectors),
		"missing":  t.Missing(),
	}).Debug("track decoded")

	return nil
}

//
func (t *Track) hasIAMNear(pos int) bool {
	for _, i := range t.IAMs {
		if abs(i.Start-pos) < dedupDistance {
			return true
		}
	}
	return false
}

//
func (t *Track) mergeSector(sec *area.Sector) {
	for ix, s := range t.Sectors {
		if abs(s.Start-sec.Start) < dedupDistance {
			if s.CRC() != 0 && sec.CRC() == 0 {
				t.Sectors[ix] = sec
			}
			return
		}
	}
	t.Sectors = append(t.Sectors, sec)
}

// scan finds all marks in s. Offsets are absolute within s.
func scan(s *bits.Stream) []area.Area {

	var areas []area.Area

	for _, offs := range s.Search(fm.IAMSync) {
		offs += 16
		areas = append(areas, area.NewIAM(offs, offs+16))
	}

	var idam *area.IDAM

	for _, offs := range s.Search(fm.SyncPrefix) {

		offs += 16
		if s.Len() < offs+16 {
			continue
		}

		mark := fm.Decode(s.Bytes(offs, offs+16))[0]
		clock := fm.Decode(s.Bytes(offs-1, offs+16-1))[0]
		if clock != fm.ClockMark {
			continue
		}

		switch mark {

		case fm.MarkIDAM:
			start, end := offs, offs+7*16
			if s.Len() < end {
				continue
			}
			b := fm.Decode(s.Bytes(start, end))
			if idam != nil {
				areas = append(areas, idam)
			}
			idam = area.NewIDAM(start, end, crc.Checksum(b), b[1], b[2], b[3], b[4])

		case fm.MarkDAM, fm.MarkDDAM:
			if idam == nil || idam.End-offs > pairingDistance {
				if idam != nil {
					areas = append(areas, idam)
				}
				areas = append(areas,
					area.NewDAM(offs, offs+4*16, area.CRCInvalid, mark, nil))
			} else {
				size := area.SizeFromCode(idam.N)
				start, end := offs, offs+(1+size+2)*16
				if s.Len() < end {
					continue
				}
				b := fm.Decode(s.Bytes(start, end))
				dam := area.NewDAM(
					start, end, crc.Checksum(b), mark, b[1:len(b)-2])
				areas = append(areas, area.NewSector(idam, dam))
			}
			idam = nil

		default:
			log.Tracef("unknown mark %02x at %d", mark, offs)
		}
	}

	if idam != nil {
		areas = append(areas, idam)
	}

	return areas
}

// rebase converts absolute offsets into offsets relative to the start of the
// revolution each area was found in. areas ends up sorted by offset.
func rebase(areas []area.Area, revs []int) {

	sortAreas(areas)

	p, n, next := 0, revs[0], 1
	for _, a := range areas {
		for a.Offset() >= n {
			p = n
			if next < len(revs) {
				n += revs[next]
				next++
			} else {
				n = math.MaxInt
			}
		}
		a.Delta(p)
	}

	sortAreas(areas)
}

//
func sortAreas(areas []area.Area) {
	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].Offset() < areas[j].Offset()
	})
}

/*
	RawTrack encodes this track. Each area gets its gap of filler bytes up to
	its offset, a presync field, and its marks and fields with freshly computed
	CRCs. Filler at the end pads the track to its nominal length. Areas placed
	too close to their predecessor are written right after it.
*/
func (t *Track) RawTrack() *track.Master {

	var buf []byte

	gap := func(pos int) {
		start := pos/16 - gapPresync
		if n := start - len(buf)/2; n > 0 {
			buf = append(buf, fm.Encode(bytes.Repeat([]byte{gapByte}, n))...)
		}
		buf = append(buf, fm.Encode(make([]byte, gapPresync))...)
	}

	for _, a := range t.areasInOrder() {
		switch v := a.(type) {

		case *area.IAM:
			gap(v.Start)
			buf = append(buf, fm.IAMSyncBytes...)

		case *area.Sector:
			gap(v.Start)
			idam := crc.Append([]byte{fm.MarkIDAM,
				v.IDAM.C, v.IDAM.H, v.IDAM.R, v.IDAM.N})
			buf = append(buf, fm.Sync(idam[0], fm.ClockMark)...)
			buf = append(buf, fm.Encode(idam[1:])...)

			gap(v.DAM.Start)
			dam := make([]byte, 0, 1+len(v.DAM.Data)+2)
			dam = crc.Append(append(append(dam, v.DAM.Mark), v.DAM.Data...))
			buf = append(buf, fm.Sync(dam[0], fm.ClockMark)...)
			buf = append(buf, fm.Encode(dam[1:])...)
		}
	}

	// pre-index gap
	if n := t.nominalLength()/16 - len(buf)/2; n > 0 {
		buf = append(buf, fm.Encode(bytes.Repeat([]byte{gapByte}, n))...)
	}

	return &track.Master{
		Bits:       bits.FromBytes(buf),
		TimePerRev: t.TimePerRev,
		Clock:      t.Clock,
		VerifyRevs: DefaultRevs,
	}
}

// areasInOrder merges index marks and sectors by offset. On equal offsets,
// index marks go first.
func (t *Track) areasInOrder() []area.Area {
	ret := make([]area.Area, 0, len(t.IAMs)+len(t.Sectors))
	i, s := 0, 0
	for i < len(t.IAMs) || s < len(t.Sectors) {
		if s == len(t.Sectors) ||
			(i < len(t.IAMs) && t.IAMs[i].Start <= t.Sectors[s].Start) {
			ret = append(ret, t.IAMs[i])
			i++
		} else {
			ret = append(ret, t.Sectors[s])
			s++
		}
	}
	return ret
}

//
func (t *Track) nominalLength() int {
	if t.TrackLen > 0 {
		return t.TrackLen
	}
	if t.Clock <= 0 {
		return 0
	}
	return int(math.Round(t.TimePerRev / t.Clock))
}

//
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
