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
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/area"
	"github.com/xelalexv/fluxdisk/pkg/disk/fm"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

// default gap sizes in bytes
const (
	gap1Default      = 26 // post IAM
	gap2Default      = 11 // post ID field
	gap4aDefault     = 40
	gap4aDefaultNoIM = 16
)

// max auto gap3 by size code of the first sector
var gap3Max = [...]int{27, 42, 58, 138, 255, 255, 255, 255}

var badSectorFill = []byte("-=[BAD SECTOR]=-")

/*
	Formatted is a Track with a known layout, built from a track template. Its
	sectors are the ones expected on the track. Decoding a raw track fills in
	their contents, instead of adding whatever was found.
*/
type Formatted struct {
	Track
	//
	nsec       int
	id0        int
	sizes      []byte
	interleave int
	cskew      int
	hskew      int
	h          int
	//
	gap1  int // Auto when there is no IAM
	gap2  int
	gap3  int
	gap4a int
	//
	rate int
	rpm  int
	//
	raw *Track
}

// Mismatch is a sector found on a track that does not belong there.
type Mismatch struct {
	C, H, R, N byte
}

//
func (m Mismatch) String() string {
	return fmt.Sprintf("C:%d H:%d R:%d N:%d", m.C, m.H, m.R, m.N)
}

/*
	FromFormat builds the ideal track for cylinder cyl and head head from
	template c. Gaps left at Auto get defaults. If the data rate is not set, the
	lowest rate at which the track fits is chosen. An auto gap3 takes up the
	space remaining at that rate, limited by the maximum for the sector size.
*/
func FromFormat(c *Config, cyl, head int) *Formatted {

	t := &Formatted{
		Track:      Track{Cyl: cyl, Head: head},
		nsec:       c.Secs,
		id0:        c.ID,
		sizes:      c.Sizes,
		interleave: c.Interleave,
		cskew:      c.CSkew,
		hskew:      c.HSkew,
		h:          head,
		rpm:        c.RPM,
		raw:        NewTrack(cyl, head),
	}

	if c.H != Auto {
		t.h = c.H
	}

	t.gap1 = Auto
	if c.IAM {
		t.gap1 = orDefault(c.Gap1, gap1Default)
	}
	t.gap2 = orDefault(c.Gap2, gap2Default)
	t.gap3 = orDefault(c.Gap3, 0)
	if c.IAM {
		t.gap4a = orDefault(c.Gap4a, gap4aDefault)
	} else {
		t.gap4a = orDefault(c.Gap4a, gap4aDefaultNoIM)
	}

	idxSize := t.gap4a
	if t.gap1 != Auto {
		idxSize += gapPresync + 1 + t.gap1
	}
	idamSize := gapPresync + 5 + 2 + t.gap2
	damSizePre := gapPresync + 1
	damSizePost := 2 + t.gap3

	trackLen := idxSize + (idamSize+damSizePre+damSizePost)*t.nsec
	for i := 0; i < t.nsec; i++ {
		trackLen += area.SizeFromCode(t.sizeCode(i))
	}
	trackLen *= 16

	t.rate = c.Rate
	if t.rate == 0 {
		// micro-diskette at 125kbps, 8-inch disk at 250kbps
		i := 0
		for ; i < 1; i++ {
			if trackLen < ((50000*300/t.rpm)<<uint(i))+5000 {
				break
			}
		}
		t.rate = 125 << uint(i)
	}

	trackLenBC := t.rate * 400 * 300 / t.rpm

	if t.nsec != 0 && c.Gap3 == Auto {
		space := trackLenBC - trackLen
		if space < 0 {
			space = 0
		}
		t.gap3 = space / (16 * t.nsec)
		if max := gap3Max[t.sizeCode(0)]; t.gap3 > max {
			t.gap3 = max
		}
		trackLen += 16 * t.nsec * t.gap3
	}

	if trackLen > trackLenBC {
		trackLenBC = trackLen
	}

	t.TimePerRev = 60 / float64(t.rpm)
	t.Clock = t.TimePerRev / float64(trackLenBC)
	t.TrackLen = trackLenBC

	t.constructSectors()

	log.WithFields(log.Fields{
		"cylinder": cyl,
		"head":     head,
		"rate":     t.rate,
		"bitcells": trackLenBC,
		"gap3":     t.gap3,
	}).Trace("formatted track")

	return t
}

//
func orDefault(v, def int) int {
	if v == Auto {
		return def
	}
	return v
}

//
func (t *Formatted) sizeCode(i int) byte {
	if i < len(t.sizes) {
		return t.sizes[i]
	}
	return t.sizes[len(t.sizes)-1]
}

/*
	RotationOrder returns, for each rotational slot, the logical sector number
	placed there. Placement starts at the slot given by cylinder and head skew,
	and advances by the interleave factor, taking the next free slot whenever
	the target is already taken.
*/
func (t *Formatted) RotationOrder() []int {

	secMap := make([]int, t.nsec)
	for ix := range secMap {
		secMap[ix] = -1
	}

	pos := 0
	if t.nsec != 0 {
		pos = (t.Cyl*t.cskew + t.Head*t.hskew) % t.nsec
	}

	for i := 0; i < t.nsec; i++ {
		for secMap[pos] != -1 {
			pos = (pos + 1) % t.nsec
		}
		secMap[pos] = i
		pos = (pos + t.interleave) % t.nsec
	}

	return secMap
}

// constructSectors lays out the IAM and the sectors in rotational order, with
// placeholder contents marked as not read.
func (t *Formatted) constructSectors() {

	t.IAMs = nil
	t.Sectors = nil

	pos := t.gap4a
	if t.gap1 != Auto {
		pos += gapPresync
		t.IAMs = []*area.IAM{area.NewIAM(pos*16, (pos+1)*16)}
		pos += 1 + t.gap1
	}

	for _, sec := range t.RotationOrder() {
		pos += gapPresync
		idam := area.NewIDAM(pos*16, (pos+7)*16, area.CRCInvalid,
			byte(t.Cyl), byte(t.h), byte(t.id0+sec), t.sizeCode(sec))
		pos += 7 + t.gap2 + gapPresync
		size := area.SizeFromCode(idam.N)
		dam := area.NewDAM(pos*16, (pos+1+size+2)*16, area.CRCInvalid,
			fm.MarkDAM, bytes.Repeat(badSectorFill, size/len(badSectorFill)))
		t.Sectors = append(t.Sectors, area.NewSector(idam, dam))
		pos += 1 + size + 2 + t.gap3
	}
}

// RawTrack encodes this track, with itself as the verifier.
func (t *Formatted) RawTrack() *track.Master {
	ret := t.Track.RawTrack()
	ret.Verify = t
	return ret
}

/*
	DecodeRaw decodes raw into a scratch track, and fills in the expected
	sectors from what was found there. Sectors with intact ID fields that do
	not match any expected sector are reported as mismatches and otherwise
	ignored.
*/
func (t *Formatted) DecodeRaw(raw *track.Raw) ([]Mismatch, error) {

	if err := t.raw.DecodeRaw(raw); err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	seen := map[Mismatch]bool{}

	for _, r := range t.raw.Sectors {

		if r.IDAM.CRC != 0 {
			continue
		}

		matched := false
		for _, s := range t.Sectors {
			if s.IDAM.SameID(r.IDAM) {
				s.IDAM.CRC = 0
				matched = true
				if r.DAM.CRC == 0 && s.DAM.CRC != 0 {
					s.DAM.CRC = 0
					s.DAM.Data = r.DAM.Data
				}
			}
		}

		if !matched {
			m := Mismatch{C: r.IDAM.C, H: r.IDAM.H, R: r.IDAM.R, N: r.IDAM.N}
			if !seen[m] {
				seen[m] = true
				mismatches = append(mismatches, m)
			}
		}
	}

	for _, m := range mismatches {
		log.WithFields(log.Fields{
			"cylinder": t.Cyl,
			"head":     t.Head,
			"sector":   m.String(),
		}).Info("ignoring unexpected sector")
	}

	return mismatches, nil
}

/*
	VerifyTrack decodes readback into a copy of this track's layout and tells
	whether every sector was read, and everything read matches this track
	exactly.
*/
func (t *Formatted) VerifyTrack(readback *track.Raw) bool {

	rb := &Formatted{
		Track: Track{
			Cyl:        t.Cyl,
			Head:       t.Head,
			TimePerRev: t.TimePerRev,
			Clock:      t.Clock,
			TrackLen:   t.TrackLen,
		},
		raw: NewTrack(t.Cyl, t.Head),
	}

	for _, i := range t.IAMs {
		rb.IAMs = append(rb.IAMs, i.Copy())
	}
	for _, s := range t.Sectors {
		idam, dam := s.IDAM.Copy(), s.DAM.Copy()
		idam.CRC, dam.CRC = area.CRCInvalid, area.CRCInvalid
		rb.Sectors = append(rb.Sectors, area.NewSector(idam, dam))
	}

	if _, err := rb.DecodeRaw(readback); err != nil {
		log.Errorf("T%d.%d: cannot verify: %v", t.Cyl, t.Head, err)
		return false
	}

	if rb.Missing() != 0 {
		log.WithFields(log.Fields{
			"cylinder": t.Cyl,
			"head":     t.Head,
			"missing":  rb.Missing(),
		}).Debug("verify failed")
		return false
	}

	if len(rb.Sectors) != len(t.Sectors) {
		return false
	}
	for ix, s := range t.Sectors {
		if !s.Equal(rb.Sectors[ix]) {
			log.WithFields(log.Fields{
				"cylinder": t.Cyl,
				"head":     t.Head,
				"sector":   s.IDAM.R,
			}).Debug("verify mismatch")
			return false
		}
	}

	return true
}

// ImageSize returns the number of bytes of sector data on this track.
func (t *Formatted) ImageSize() int {
	ret := 0
	for _, s := range t.Sectors {
		ret += s.Size()
	}
	return ret
}

/*
	SetImgTrack sets sector contents from data, which holds the sectors in
	ascending order of sector id. Short data is padded with zeros. All sectors
	are marked as intact afterwards. Returns the number of bytes consumed.
*/
func (t *Formatted) SetImgTrack(data []byte) int {

	sortByID(t.Sectors)

	total := t.ImageSize()
	if len(data) < total {
		padded := make([]byte, total)
		copy(padded, data)
		data = padded
	}

	pos := 0
	for _, s := range t.Sectors {
		size := s.Size()
		s.IDAM.CRC, s.DAM.CRC = 0, 0
		s.DAM.Data = append([]byte{}, data[pos:pos+size]...)
		pos += size
	}

	sort.SliceStable(t.Sectors, func(i, j int) bool {
		return t.Sectors[i].Start < t.Sectors[j].Start
	})

	return total
}

// GetImgTrack returns the sector contents in ascending order of sector id.
func (t *Formatted) GetImgTrack() []byte {

	sectors := make([]*area.Sector, len(t.Sectors))
	copy(sectors, t.Sectors)
	sortByID(sectors)

	ret := make([]byte, 0, t.ImageSize())
	for _, s := range sectors {
		ret = append(ret, s.DAM.Data...)
	}
	return ret
}

//
func sortByID(sectors []*area.Sector) {
	sort.SliceStable(sectors, func(i, j int) bool {
		return sectors[i].IDAM.R < sectors[j].IDAM.R
	})
}

// Layout describes the physical layout of a formatted track.
type Layout struct {
	Cylinder   int            `json:"cylinder"`
	Head       int            `json:"head"`
	Rate       int            `json:"rate"`
	RPM        int            `json:"rpm"`
	BitCells   int            `json:"bitcells"`
	TimePerRev float64        `json:"timePerRev"`
	Clock      float64        `json:"clock"`
	IAM        bool           `json:"iam"`
	Gap1       int            `json:"gap1"`
	Gap2       int            `json:"gap2"`
	Gap3       int            `json:"gap3"`
	Gap4a      int            `json:"gap4a"`
	Sectors    []SectorLayout `json:"sectors"`
}

// SectorLayout is one sector in rotational order.
type SectorLayout struct {
	ID     int `json:"id"`
	Size   int `json:"size"`
	Offset int `json:"offset"`
}

//
func (t *Formatted) Layout() *Layout {

	ret := &Layout{
		Cylinder:   t.Cyl,
		Head:       t.Head,
		Rate:       t.rate,
		RPM:        t.rpm,
		BitCells:   t.TrackLen,
		TimePerRev: t.TimePerRev,
		Clock:      t.Clock,
		IAM:        len(t.IAMs) > 0,
		Gap1:       t.gap1,
		Gap2:       t.gap2,
		Gap3:       t.gap3,
		Gap4a:      t.gap4a,
	}

	for _, s := range t.Sectors {
		ret.Sectors = append(ret.Sectors, SectorLayout{
			ID:     int(s.IDAM.R),
			Size:   s.Size(),
			Offset: s.Start,
		})
	}

	return ret
}

//
func (l *Layout) String() string {

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "\nT%d.%d: %d kbit/s, %d rpm, %d bit cells, "+
		"clock %.3fus\n", l.Cylinder, l.Head, l.Rate, l.RPM, l.BitCells,
		l.Clock*1e6)

	gap1 := "-"
	if l.IAM {
		gap1 = fmt.Sprintf("%d", l.Gap1)
	}
	fmt.Fprintf(&buf, "gaps: 4a=%d 1=%s 2=%d 3=%d\n",
		l.Gap4a, gap1, l.Gap2, l.Gap3)

	fmt.Fprintf(&buf, "\n  SLOT  ID   SIZE  OFFSET\n")
	for ix, s := range l.Sectors {
		fmt.Fprintf(&buf, "  %4d  %3d  %5d  %6d\n", ix, s.ID, s.Size, s.Offset)
	}

	return buf.String()
}
