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

package bits

import (
	"bytes"
	"testing"
)

func TestNewRejectsBadLength(t *testing.T) {
	if _, err := New([]byte{0, 0}, 17); err == nil {
		t.Error("expected error for bit count beyond data")
	}
	if s, err := New([]byte{0, 0}, 12); err != nil || s.Len() != 12 {
		t.Errorf("unexpected result: %v, %v", s, err)
	}
}

func TestBytes(t *testing.T) {

	s := FromBytes([]byte{0xa5, 0x3c, 0xff})

	tests := []struct {
		name       string
		start, end int
		want       []byte
	}{
		{name: "aligned", start: 8, end: 16, want: []byte{0x3c}},
		{name: "aligned partial", start: 0, end: 4, want: []byte{0xa0}},
		{name: "shifted by one", start: 1, end: 17, want: []byte{0x4a, 0x79}},
		{name: "clamped", start: 16, end: 40, want: []byte{0xff}},
		{name: "empty", start: 5, end: 5, want: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Bytes(tt.start, tt.end); !bytes.Equal(got, tt.want) {
				t.Errorf("want %x, got %x", tt.want, got)
			}
		})
	}
}

func TestSearch(t *testing.T) {

	// pattern 0x246 (12 bits) starts at bit offset 21
	s := FromBytes([]byte{0x00, 0x00, 0x01, 0x23, 0x40, 0x00})
	p := NewPattern([]byte{0x24, 0x68}, 12)

	got := s.Search(p)
	if len(got) != 1 || got[0] != 21 {
		t.Errorf("want match at [21], got %v", got)
	}

	alt := FromBytes([]byte{0xaa, 0xaa})
	got = alt.Search(NewPattern([]byte{0xa0}, 4))
	want := []int{0, 2, 4, 6, 8, 10, 12}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for ix := range want {
		if got[ix] != want[ix] {
			t.Errorf("want %v, got %v", want, got)
			break
		}
	}
}
