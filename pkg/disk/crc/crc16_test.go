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

package crc

import (
	"testing"
)

func TestChecksumCheckValue(t *testing.T) {
	// standard check value for CRC-16/CCITT-FALSE
	if got := Checksum([]byte("123456789")); got != 0x29b1 {
		t.Errorf("wrong check value, want 0x29b1, got 0x%04x", got)
	}
}

func TestAppendYieldsZeroResidue(t *testing.T) {

	tests := []struct {
		name string
		data []byte
	}{
		{name: "idam", data: []byte{0xfe, 0x0a, 0x00, 0x03, 0x02}},
		{name: "empty", data: []byte{}},
		{name: "dam", data: append([]byte{0xfb}, make([]byte, 256)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := Append(append([]byte{}, tt.data...))
			if got := Checksum(field); got != 0 {
				t.Errorf("want zero residue, got 0x%04x", got)
			}
			field[0] ^= 0x01
			if got := Checksum(field); got == 0 {
				t.Error("corrupted field still yields zero residue")
			}
		})
	}
}

func TestUpdateIsIncremental(t *testing.T) {
	data := []byte("fluxdisk track")
	whole := Checksum(data)
	part := Update(Update(Initial, data[:5]), data[5:])
	if whole != part {
		t.Errorf("incremental mismatch, want 0x%04x, got 0x%04x", whole, part)
	}
}
