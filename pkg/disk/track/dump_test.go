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

package track

import (
	"bytes"
	"testing"

	"github.com/xelalexv/fluxdisk/pkg/disk/bits"
)

func newTestMaster() *Master {
	return &Master{
		Bits:       bits.FromBytes([]byte{0xaa, 0xaa, 0xf5, 0x7e, 0xff, 0x00}),
		TimePerRev: 0.2,
		Clock:      0.2 / 48,
		VerifyRevs: 2,
	}
}

func TestLoop(t *testing.T) {

	m := newTestMaster()
	raw := m.Loop(3)

	if raw.Bits.Len() != 3*48 {
		t.Fatalf("wrong loop length, want %d, got %d", 3*48, raw.Bits.Len())
	}
	if len(raw.Revolutions) != 3 || raw.Revolutions[2] != 48 {
		t.Errorf("wrong revolutions: %v", raw.Revolutions)
	}
	if !bytes.Equal(raw.Bits.Bytes(96, 144), m.Bits.Data()) {
		t.Errorf("third revolution differs: %x", raw.Bits.Bytes(96, 144))
	}
	if err := raw.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoopUnaligned(t *testing.T) {

	s, _ := bits.New([]byte{0xff, 0x80}, 9)
	m := &Master{Bits: s}
	raw := m.Loop(2)

	if raw.Bits.Len() != 18 {
		t.Fatalf("wrong length %d", raw.Bits.Len())
	}
	if got := raw.Bits.Bytes(0, 18); !bytes.Equal(got, []byte{0xff, 0xff, 0xc0}) {
		t.Errorf("wrong unaligned loop: %x", got)
	}
}

func TestValidate(t *testing.T) {

	s := bits.FromBytes(make([]byte, 10))

	tests := []struct {
		name  string
		raw   *Raw
		valid bool
	}{
		{name: "ok", raw: NewRaw(s, []int{40, 40}), valid: true},
		{name: "no revs", raw: NewRaw(s, nil)},
		{name: "zero rev", raw: NewRaw(s, []int{40, 0})},
		{name: "too long", raw: NewRaw(s, []int{60, 60})},
		{name: "no bits", raw: NewRaw(nil, []int{1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.raw.Validate()
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDumpRoundTrip(t *testing.T) {

	m := newTestMaster()
	entries := []*Entry{m.Entry(0, 0, 1), m.Entry(39, 1, 2)}

	var buf bytes.Buffer
	if err := WriteDump(&buf, entries); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := ReadDump(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("want 2 entries, got %d", len(got))
	}

	e := got[1]
	if e.Cylinder != 39 || e.Head != 1 {
		t.Errorf("wrong position %d.%d", e.Cylinder, e.Head)
	}
	if e.TimePerRev != m.TimePerRev || e.Clock != m.Clock {
		t.Errorf("wrong timing %v/%v", e.TimePerRev, e.Clock)
	}
	if len(e.Raw.Revolutions) != 2 || e.Raw.Bits.Len() != 96 {
		t.Errorf("wrong raw shape: revs %v, bits %d",
			e.Raw.Revolutions, e.Raw.Bits.Len())
	}
	if !bytes.Equal(e.Raw.Bits.Data(), entries[1].Raw.Bits.Data()) {
		t.Error("bit stream differs after round trip")
	}
}

func TestReadDumpRejectsGarbage(t *testing.T) {
	if _, err := ReadDump(bytes.NewReader([]byte("NOPE\x01\x00\x00"))); err == nil {
		t.Error("expected error for bad magic")
	}
	if _, err := ReadDump(bytes.NewReader([]byte("FXDK\x07\x00\x00"))); err == nil {
		t.Error("expected error for bad version")
	}
	if _, err := ReadDump(bytes.NewReader([]byte("FXDK\x01\x00\x01\x00"))); err == nil {
		t.Error("expected error for truncated record")
	}
}
