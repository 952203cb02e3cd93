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
	"testing"

	"github.com/xelalexv/fluxdisk/pkg/disk/area"
	"github.com/xelalexv/fluxdisk/pkg/disk/bits"
	"github.com/xelalexv/fluxdisk/pkg/disk/crc"
	"github.com/xelalexv/fluxdisk/pkg/disk/fm"
	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

func newTestConfig() *Config {
	c := NewConfig()
	c.Secs = 9
	c.Sizes = []byte{2}
	c.Interleave = 2
	return c
}

func newTestImage(size int) []byte {
	ret := make([]byte, size)
	for ix := range ret {
		ret[ix] = byte(ix*7 + ix/512)
	}
	return ret
}

func newTestTrack(t *testing.T) (*Formatted, []byte) {
	f := FromFormat(newTestConfig(), 2, 1)
	img := newTestImage(f.ImageSize())
	if n := f.SetImgTrack(img); n != 9*512 {
		t.Fatalf("want %d bytes consumed, got %d", 9*512, n)
	}
	return f, img
}

// flipDataBit inverts one data cell inside the payload of the sector at ix in
// track order.
func flipDataBit(f *Formatted, m *track.Master, ix int) *bits.Stream {
	data := append([]byte{}, m.Bits.Data()...)
	pos := (f.Sectors[ix].DAM.Start + 16*20) / 8
	data[pos] ^= 0x40
	return bits.FromBytes(data)
}

func concat(streams ...*bits.Stream) *track.Raw {
	var data []byte
	var revs []int
	for _, s := range streams {
		data = append(data, s.Data()...)
		revs = append(revs, s.Len())
	}
	return track.NewRaw(bits.FromBytes(data), revs)
}

func TestScenarioLayout(t *testing.T) {

	f := FromFormat(newTestConfig(), 0, 0)

	if f.rate != 250 {
		t.Errorf("want rate 250, got %d", f.rate)
	}
	if f.TrackLen != 100000 {
		t.Errorf("want 100000 bit cells, got %d", f.TrackLen)
	}
	if f.gap3 != 58 {
		t.Errorf("want gap3 58, got %d", f.gap3)
	}
	if f.TimePerRev != 0.2 {
		t.Errorf("want 0.2s per revolution, got %v", f.TimePerRev)
	}
	if want := f.TimePerRev / float64(f.TrackLen); f.Clock != want {
		t.Errorf("wrong clock %v", f.Clock)
	}

	want := []byte{1, 6, 2, 7, 3, 8, 4, 9, 5}
	if len(f.Sectors) != len(want) {
		t.Fatalf("want %d sectors, got %d", len(want), len(f.Sectors))
	}
	for ix, s := range f.Sectors {
		if s.IDAM.R != want[ix] {
			t.Errorf("slot %d: want id %d, got %d", ix, want[ix], s.IDAM.R)
		}
		if s.IDAM.CRC != area.CRCInvalid || s.DAM.CRC != area.CRCInvalid {
			t.Errorf("slot %d: fresh sector not marked unread", ix)
		}
		if !bytes.HasPrefix(s.DAM.Data, badSectorFill) || len(s.DAM.Data) != 512 {
			t.Errorf("slot %d: wrong placeholder payload", ix)
		}
	}

	if len(f.IAMs) != 1 || f.IAMs[0].Start != (40+6)*16 {
		t.Errorf("wrong IAMs: %v", f.IAMs)
	}
	// gap4a, presync, IAM, gap1, presync
	if s := f.Sectors[0].IDAM.Start; s != (40+6+1+26+6)*16 {
		t.Errorf("wrong first ID field offset %d", s)
	}
}

func TestAutoRate(t *testing.T) {

	tests := []struct {
		name     string
		secs     int
		size     byte
		rate     int
		bitCells int
		gap3     int
	}{
		{name: "5x128", secs: 5, size: 0, rate: 125, bitCells: 50000, gap3: 27},
		{name: "26x128", secs: 26, size: 0, rate: 250, bitCells: 100000, gap3: 27},
		{name: "9x512", secs: 9, size: 2, rate: 250, bitCells: 100000, gap3: 58},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			c.Secs = tt.secs
			c.Sizes = []byte{tt.size}
			f := FromFormat(c, 0, 0)
			if f.rate != tt.rate || f.TrackLen != tt.bitCells || f.gap3 != tt.gap3 {
				t.Errorf("want rate %d, %d cells, gap3 %d, got %d, %d, %d",
					tt.rate, tt.bitCells, tt.gap3, f.rate, f.TrackLen, f.gap3)
			}
		})
	}
}

func TestOverfullTrack(t *testing.T) {

	c := newTestConfig()
	c.Rate = 125
	f := FromFormat(c, 0, 0)

	// content does not fit at 125kbps, track gets longer than nominal
	if f.TrackLen <= 50000 {
		t.Errorf("want track longer than nominal, got %d", f.TrackLen)
	}
	if f.gap3 != 0 {
		t.Errorf("want gap3 0, got %d", f.gap3)
	}
}

func TestNoIAM(t *testing.T) {

	c := newTestConfig()
	c.IAM = false
	f := FromFormat(c, 0, 0)

	if len(f.IAMs) != 0 {
		t.Errorf("want no IAM, got %v", f.IAMs)
	}
	if s := f.Sectors[0].IDAM.Start; s != (16+6)*16 {
		t.Errorf("wrong first ID field offset %d", s)
	}
	if f.Layout().IAM {
		t.Error("layout reports IAM")
	}
}

func TestRotationOrderIsPermutation(t *testing.T) {

	for nsec := 1; nsec <= 30; nsec++ {
		for il := 1; il <= nsec+2; il++ {
			for cyl := 0; cyl < 3; cyl++ {
				c := NewConfig()
				c.Secs = nsec
				c.Sizes = []byte{0}
				c.Interleave = il
				c.CSkew = 2
				c.HSkew = 1
				f := FromFormat(c, cyl, 1)
				seen := make([]bool, nsec)
				for _, sec := range f.RotationOrder() {
					if sec < 0 || sec >= nsec || seen[sec] {
						t.Fatalf("nsec %d, interleave %d, cyl %d: bad order %v",
							nsec, il, cyl, f.RotationOrder())
					}
					seen[sec] = true
				}
			}
		}
	}
}

func TestSkew(t *testing.T) {

	c := newTestConfig()
	c.Interleave = 1
	c.CSkew = 3
	f := FromFormat(c, 2, 0)

	// (2*3) % 9 = 6
	if got := f.RotationOrder()[6]; got != 0 {
		t.Errorf("want first sector in slot 6, got sector %d there", got)
	}
}

func TestHeadOverride(t *testing.T) {

	c := newTestConfig()
	c.H = 0
	f := FromFormat(c, 5, 1)

	for _, s := range f.Sectors {
		if s.IDAM.H != 0 || s.IDAM.C != 5 {
			t.Fatalf("wrong ID field %s", s.IDAM)
		}
	}
}

func TestRoundTrip(t *testing.T) {

	f, img := newTestTrack(t)
	m := f.RawTrack()

	if m.Bits.Len() != f.TrackLen {
		t.Errorf("want %d bit cells, got %d", f.TrackLen, m.Bits.Len())
	}

	for _, revs := range []int{1, 2, 3} {
		d := FromFormat(newTestConfig(), 2, 1)
		mm, err := d.DecodeRaw(m.Loop(revs))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if len(mm) != 0 {
			t.Errorf("unexpected mismatches: %v", mm)
		}
		if d.Missing() != 0 {
			t.Errorf("%d revs: %d sectors missing", revs, d.Missing())
		}
		if !bytes.Equal(d.GetImgTrack(), img) {
			t.Errorf("%d revs: image differs after round trip", revs)
		}
		if len(d.raw.Sectors) != 9 || len(d.raw.IAMs) != 1 {
			t.Errorf("%d revs: revolutions not merged: %d sectors, %d IAMs",
				revs, len(d.raw.Sectors), len(d.raw.IAMs))
		}
		for ix, s := range d.raw.Sectors {
			if s.Start != f.Sectors[ix].Start {
				t.Errorf("%d revs: sector %d at %d, want %d",
					revs, ix, s.Start, f.Sectors[ix].Start)
			}
		}
		if d.Summary() != "IBM FM (9/9 sectors)" {
			t.Errorf("wrong summary %q", d.Summary())
		}
	}
}

func TestVerify(t *testing.T) {

	f, _ := newTestTrack(t)
	m := f.RawTrack()

	if m.Verify == nil {
		t.Fatal("no verifier")
	}
	if !m.Verify.VerifyTrack(m.Loop(m.VerifyRevs)) {
		t.Error("verification of ideal readback failed")
	}

	bad := &track.Master{Bits: flipDataBit(f, m, 3)}
	if m.Verify.VerifyTrack(bad.Loop(m.VerifyRevs)) {
		t.Error("verification of corrupted readback passed")
	}

	// other sectors
	o := FromFormat(newTestConfig(), 2, 1)
	o.SetImgTrack(newTestImage(100))
	if m.Verify.VerifyTrack(o.RawTrack().Loop(2)) {
		t.Error("verification of different contents passed")
	}
}

func TestGoodSectorWins(t *testing.T) {

	f, img := newTestTrack(t)
	m := f.RawTrack()
	bad := flipDataBit(f, m, 0)

	tests := []struct {
		name string
		raw  *track.Raw
	}{
		{name: "bad first", raw: concat(bad, m.Bits)},
		{name: "good first", raw: concat(m.Bits, bad)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FromFormat(newTestConfig(), 2, 1)
			if _, err := d.DecodeRaw(tt.raw); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if d.Missing() != 0 {
				t.Errorf("%d sectors missing", d.Missing())
			}
			if !bytes.Equal(d.GetImgTrack(), img) {
				t.Error("image differs")
			}
			if len(d.raw.Sectors) != 9 {
				t.Errorf("want 9 merged sectors, got %d", len(d.raw.Sectors))
			}
		})
	}
}

func TestBadSectorOnly(t *testing.T) {

	f, _ := newTestTrack(t)
	m := f.RawTrack()
	bad := &track.Master{Bits: flipDataBit(f, m, 4)}

	d := FromFormat(newTestConfig(), 2, 1)
	if _, err := d.DecodeRaw(bad.Loop(2)); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if d.Missing() != 1 {
		t.Errorf("want 1 sector missing, got %d", d.Missing())
	}
	if d.HasSector(4) {
		t.Error("corrupted sector reported as intact")
	}
	if !d.HasSector(3) {
		t.Error("intact sector reported as missing")
	}
	if d.Sectors[4].IDAM.CRC != 0 {
		t.Error("ID field of corrupted sector not marked as seen")
	}
	if !bytes.HasPrefix(d.Sectors[4].DAM.Data, badSectorFill) {
		t.Error("placeholder of corrupted sector was overwritten")
	}
}

func TestMismatch(t *testing.T) {

	f, _ := newTestTrack(t)

	c := newTestConfig()
	c.ID = 11
	d := FromFormat(c, 2, 1)

	mm, err := d.DecodeRaw(f.RawTrack().Loop(2))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(mm) != 9 {
		t.Fatalf("want 9 mismatches, got %v", mm)
	}
	if d.Missing() != 9 {
		t.Errorf("want all sectors missing, got %d", d.Missing())
	}
	if mm[0] != (Mismatch{C: 2, H: 1, R: 1, N: 2}) {
		t.Errorf("wrong first mismatch %v", mm[0])
	}
	if mm[0].String() != "C:2 H:1 R:1 N:2" {
		t.Errorf("wrong mismatch string %q", mm[0])
	}
}

// encodeField returns presync, mark and data of a field plus its CRC, FM
// encoded.
func encodeField(mark byte, data []byte) []byte {
	f := crc.Append(append([]byte{mark}, data...))
	ret := fm.Encode(make([]byte, gapPresync))
	ret = append(ret, fm.Sync(f[0], fm.ClockMark)...)
	return append(ret, fm.Encode(f[1:])...)
}

func encodeGap(n int) []byte {
	return fm.Encode(bytes.Repeat([]byte{gapByte}, n))
}

func TestDangling(t *testing.T) {

	// data field without ID field, then an ID field followed by another one,
	// then a complete sector
	var buf []byte
	buf = append(buf, encodeGap(10)...)
	buf = append(buf, encodeField(fm.MarkDAM, make([]byte, 128))...)
	buf = append(buf, encodeGap(20)...)
	buf = append(buf, encodeField(fm.MarkIDAM, []byte{0, 0, 1, 0})...)
	buf = append(buf, encodeGap(20)...)
	buf = append(buf, encodeField(fm.MarkIDAM, []byte{0, 0, 2, 0})...)
	buf = append(buf, encodeGap(11)...)
	buf = append(buf, encodeField(fm.MarkDAM, make([]byte, 128))...)
	buf = append(buf, encodeGap(1250-len(buf)/2)...)

	d := NewTrack(0, 0)
	raw := track.NewRaw(bits.FromBytes(buf), []int{len(buf) * 8})
	if err := d.DecodeRaw(raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(d.Sectors) != 1 || d.Sectors[0].IDAM.R != 2 || !d.HasSector(0) {
		t.Fatalf("want intact sector 2 only, got %v", d.Sectors)
	}

	dd := d.Dangling()
	if len(dd) != 2 {
		t.Fatalf("want 2 dangling areas, got %v", dd)
	}
	dam, ok := dd[0].(*area.DAM)
	if !ok || dam.Start != 16*16 || dam.End != 20*16 || dam.CRC != area.CRCInvalid {
		t.Errorf("want isolated data field first, got %v", dd[0])
	}
	if id, ok := dd[1].(*area.IDAM); !ok || id.Start != 173*16 || id.R != 1 || id.CRC != 0 {
		t.Errorf("want intact ID field of sector 1 second, got %v", dd[1])
	}
}

func TestLongGap2(t *testing.T) {

	for _, gap2 := range []int{11, 56, 57, 100, 255} {
		t.Run(fmt.Sprintf("gap2=%d", gap2), func(t *testing.T) {

			c := newTestConfig()
			c.Gap2 = gap2

			f := FromFormat(c, 2, 1)
			img := newTestImage(f.ImageSize())
			f.SetImgTrack(img)
			m := f.RawTrack()

			if !m.Verify.VerifyTrack(m.Loop(2)) {
				t.Error("verify failed")
			}

			d := FromFormat(c, 2, 1)
			if _, err := d.DecodeRaw(m.Loop(1)); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if d.Missing() != 0 {
				t.Errorf("%d sectors missing", d.Missing())
			}
			if n := len(d.raw.Dangling()); n != 0 {
				t.Errorf("want no dangling areas, got %d", n)
			}
			if !bytes.Equal(d.GetImgTrack(), img) {
				t.Error("image differs")
			}
		})
	}
}

func TestDeletedData(t *testing.T) {

	tr := NewTrack(1, 0)
	tr.TrackLen = 20000
	data := bytes.Repeat([]byte{0xe5}, 256)
	tr.Sectors = []*area.Sector{area.NewSector(
		area.NewIDAM(50*16, 57*16, 0, 1, 0, 3, 1),
		area.NewDAM(74*16, (74+1+256+2)*16, 0, fm.MarkDDAM, data))}

	m := tr.RawTrack()
	if m.Bits.Len() != 20000 {
		t.Errorf("want 20000 bit cells, got %d", m.Bits.Len())
	}

	d := NewTrack(1, 0)
	if err := d.DecodeRaw(m.Loop(2)); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(d.Sectors) != 1 {
		t.Fatalf("want 1 sector, got %d", len(d.Sectors))
	}
	if !d.Sectors[0].Equal(tr.Sectors[0]) {
		t.Errorf("sector differs:\n%s\n%s", d.Sectors[0], tr.Sectors[0])
	}
	if len(d.Dangling()) != 0 {
		t.Errorf("unexpected dangling areas: %v", d.Dangling())
	}
}

func TestDecodeInvalidRaw(t *testing.T) {
	d := NewTrack(0, 0)
	if err := d.DecodeRaw(track.NewRaw(bits.FromBytes(make([]byte, 4)), nil)); err == nil {
		t.Error("expected error for raw track without revolutions")
	}
}

func TestImagePadding(t *testing.T) {

	f := FromFormat(newTestConfig(), 0, 0)
	if n := f.SetImgTrack([]byte{1, 2, 3}); n != 4608 {
		t.Errorf("want 4608 bytes consumed, got %d", n)
	}

	img := f.GetImgTrack()
	if len(img) != 4608 {
		t.Fatalf("want 4608 byte image, got %d", len(img))
	}
	if !bytes.Equal(img[:3], []byte{1, 2, 3}) || img[4607] != 0 {
		t.Error("image not padded with zeros")
	}
	if f.Missing() != 0 {
		t.Errorf("want all sectors valid, got %d missing", f.Missing())
	}
	for ix := 1; ix < len(f.Sectors); ix++ {
		if f.Sectors[ix-1].Start >= f.Sectors[ix].Start {
			t.Fatal("sectors not in track order")
		}
	}
}

func TestLayout(t *testing.T) {

	l := FromFormat(newTestConfig(), 0, 0).Layout()

	if l.Rate != 250 || l.RPM != 300 || l.BitCells != 100000 || l.Gap3 != 58 {
		t.Errorf("wrong layout %+v", l)
	}
	if len(l.Sectors) != 9 || l.Sectors[1].ID != 6 || l.Sectors[1].Size != 512 {
		t.Errorf("wrong sector layout %+v", l.Sectors)
	}
	if l.String() == "" {
		t.Error("empty layout description")
	}
}
