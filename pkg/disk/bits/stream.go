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
	"fmt"
)

/*
	Stream is a sequence of bit cells, packed MSB first into bytes. It is the
	in-memory form of a flux capture after clock recovery, and of an encoded
	track ready for writing.
*/
type Stream struct {
	data []byte
	n    int
}

// New creates a stream of n bits backed by data. The backing slice is not
// copied.
func New(data []byte, n int) (*Stream, error) {
	if n < 0 || n > 8*len(data) {
		return nil, fmt.Errorf(
			"invalid bit count %d for %d bytes of data", n, len(data))
	}
	return &Stream{data: data, n: n}, nil
}

// FromBytes creates a stream covering all bits of data.
func FromBytes(data []byte) *Stream {
	return &Stream{data: data, n: 8 * len(data)}
}

//
func (s *Stream) Len() int {
	return s.n
}

// Data returns the packed backing bytes. Bits beyond Len are undefined.
func (s *Stream) Data() []byte {
	return s.data[:(s.n+7)/8]
}

//
func (s *Stream) Bit(ix int) byte {
	return (s.data[ix>>3] >> (7 - uint(ix&7))) & 1
}

/*
	Bytes returns the bits in [start, end) packed MSB first into a new slice.
	A trailing partial byte is padded with zero bits. Offsets are clamped to
	the stream.
*/
func (s *Stream) Bytes(start, end int) []byte {

	if start < 0 {
		start = 0
	}
	if end > s.n {
		end = s.n
	}
	if end <= start {
		return []byte{}
	}

	count := end - start
	out := make([]byte, (count+7)/8)

	if start&7 == 0 {
		copy(out, s.data[start>>3:])
		if rem := count & 7; rem != 0 {
			out[len(out)-1] &= 0xff << (8 - uint(rem))
		}
		return out
	}

	for k := 0; k < count; k++ {
		if s.Bit(start+k) != 0 {
			out[k>>3] |= 0x80 >> uint(k&7)
		}
	}
	return out
}

// Pattern is a bit sequence of at most 64 bits to search for.
type Pattern struct {
	bits uint64
	n    int
}

// NewPattern takes the first n bits of data, MSB first, as a search pattern.
func NewPattern(data []byte, n int) Pattern {
	if n > 64 {
		n = 64
	}
	if n > 8*len(data) {
		n = 8 * len(data)
	}
	var p uint64
	for k := 0; k < n; k++ {
		p = p<<1 | uint64((data[k>>3]>>(7-uint(k&7)))&1)
	}
	return Pattern{bits: p, n: n}
}

//
func (p Pattern) Len() int {
	return p.n
}

// Search returns the start offsets of all, possibly overlapping, occurrences
// of p in the stream, in ascending order.
func (s *Stream) Search(p Pattern) []int {

	var ret []int
	if p.n == 0 {
		return ret
	}

	mask := ^uint64(0)
	if p.n < 64 {
		mask = uint64(1)<<uint(p.n) - 1
	}

	var window uint64
	for ix := 0; ix < s.n; ix++ {
		window = (window<<1 | uint64(s.Bit(ix))) & mask
		if ix+1 >= p.n && window == p.bits {
			ret = append(ret, ix+1-p.n)
		}
	}

	return ret
}
