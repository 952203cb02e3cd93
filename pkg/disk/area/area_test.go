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

package area

import (
	"bytes"
	"strings"
	"testing"
)

func newTestSector() *Sector {
	return NewSector(
		NewIDAM(100, 212, 0, 3, 0, 7, 1),
		NewDAM(400, 4560, 0, 0xfb, bytes.Repeat([]byte{0xe5}, 256)))
}

func TestSectorDelta(t *testing.T) {

	s := newTestSector()
	s.Delta(50)

	if s.Start != 50 || s.End != 4510 {
		t.Errorf("wrong sector span after delta: %d-%d", s.Start, s.End)
	}
	if s.IDAM.Start != 50 || s.IDAM.End != 162 {
		t.Errorf("wrong IDAM span after delta: %d-%d", s.IDAM.Start, s.IDAM.End)
	}
	if s.DAM.Start != 350 || s.DAM.End != 4510 {
		t.Errorf("wrong DAM span after delta: %d-%d", s.DAM.Start, s.DAM.End)
	}
}

func TestSectorCRC(t *testing.T) {

	s := newTestSector()
	if s.CRC() != 0 {
		t.Errorf("want valid sector, got CRC %04x", s.CRC())
	}

	s.DAM.CRC = 0x1234
	if s.CRC() == 0 {
		t.Error("bad data field not reflected in sector CRC")
	}

	s.DAM.CRC = 0
	s.IDAM.CRC = CRCInvalid
	if s.CRC() == 0 {
		t.Error("bad ID field not reflected in sector CRC")
	}
}

func TestSectorEqual(t *testing.T) {

	a, b := newTestSector(), newTestSector()
	if !a.Equal(b) {
		t.Error("identical sectors not equal")
	}

	b.DAM.Data = append([]byte{}, b.DAM.Data...)
	b.DAM.Data[10] = 0
	if a.Equal(b) {
		t.Error("payload difference not detected")
	}

	c := newTestSector()
	c.IDAM.R = 8
	if a.Equal(c) {
		t.Error("sector id difference not detected")
	}

	d := newTestSector()
	d.Delta(1)
	if a.Equal(d) {
		t.Error("position difference not detected")
	}
}

func TestCopyIsIndependent(t *testing.T) {

	s := newTestSector()
	idam := s.IDAM.Copy()
	idam.CRC = CRCInvalid
	if s.IDAM.CRC != 0 {
		t.Error("modifying copy changed original IDAM")
	}

	iam := NewIAM(10, 26)
	c := iam.Copy()
	c.Delta(5)
	if !iam.Equal(NewIAM(10, 26)) || c.Equal(iam) {
		t.Error("IAM copy not independent")
	}
}

func TestSizeFromCode(t *testing.T) {
	for n, want := range map[byte]int{0: 128, 1: 256, 2: 512, 6: 8192, 7: 16384, 9: 32768} {
		if got := SizeFromCode(n); got != want {
			t.Errorf("size code %d, want %d, got %d", n, want, got)
		}
	}
}

func TestEmit(t *testing.T) {
	var buf bytes.Buffer
	newTestSector().Emit(&buf)
	out := buf.String()
	if !strings.Contains(out, "r=07") || !strings.Contains(out, "e5 e5 e5") {
		t.Errorf("unexpected emit output:\n%s", out)
	}
}
