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

/*
	Package fm implements FM (single density) bit cell modulation. Each data
	byte becomes a 16 bit cell word, alternating clock and data bits starting
	with a clock bit. Regular data always has all clock bits set. Address marks
	are written with some clock bits missing, which is what makes them
	recognizable in a raw bit stream.
*/
package fm

import (
	"github.com/xelalexv/fluxdisk/pkg/disk/bits"
)

// clock patterns
const (
	ClockData  = 0xff
	ClockMark  = 0xc7 // ID and data address marks
	ClockIndex = 0xd7 // index address mark
)

// address marks
const (
	MarkIAM  = 0xfc
	MarkIDAM = 0xfe
	MarkDAM  = 0xfb
	MarkDDAM = 0xf8 // deleted data
)

//
var encodeTable = func() [256]uint16 {
	var t [256]uint16
	for x := range t {
		t[x] = interleave(byte(x), ClockData)
	}
	return t
}()

// IAMSyncBytes is the encoded index address mark, 0xfc with clock 0xd7.
var IAMSyncBytes = Sync(MarkIAM, ClockIndex)

/*
	SyncPrefix matches the presync field tail (two encoded zero bytes) and the
	first ten cells of an 0xc7 clocked address mark. The ten cells are shared by
	all of 0xf8, 0xfb and 0xfe, so the mark byte itself needs to be decoded
	after a hit. The mark cell starts 16 bits after a hit.
*/
var SyncPrefix = bits.NewPattern(
	append([]byte{0xaa, 0xaa}, Sync(MarkDDAM, ClockMark)...), 16+10)

// IAMSync matches two encoded zero bytes followed by the index address mark.
var IAMSync = bits.NewPattern(append([]byte{0xaa, 0xaa}, IAMSyncBytes...), 32)

// Sync returns the cell word for data byte dat written with clock pattern clk,
// big-endian.
func Sync(dat, clk byte) []byte {
	w := interleave(dat, clk)
	return []byte{byte(w >> 8), byte(w)}
}

//
func interleave(dat, clk byte) uint16 {
	var w uint16
	for i := uint(0); i < 8; i++ {
		w <<= 1
		w |= uint16(clk>>(7-i)) & 1
		w <<= 1
		w |= uint16(dat>>(7-i)) & 1
	}
	return w
}

// Encode modulates data with regular clock bits. The result is twice as long.
func Encode(data []byte) []byte {
	out := make([]byte, 0, 2*len(data))
	for _, x := range data {
		w := encodeTable[x]
		out = append(out, byte(w>>8), byte(w))
	}
	return out
}

/*
	Decode extracts the data bits from cell words. Passing cells starting one
	bit earlier extracts the clock bits instead. A trailing odd byte is ignored.
*/
func Decode(cells []byte) []byte {
	out := make([]byte, len(cells)/2)
	for ix := range out {
		w := uint16(cells[2*ix])<<8 | uint16(cells[2*ix+1])
		var b byte
		for i := uint(0); i < 8; i++ {
			if w&(1<<(2*i)) != 0 {
				b |= 1 << i
			}
		}
		out[ix] = b
	}
	return out
}
