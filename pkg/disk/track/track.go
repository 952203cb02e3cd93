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
	"fmt"

	"github.com/xelalexv/fluxdisk/pkg/disk/bits"
)

/*
	Raw is a bit stream as delivered by clock recovery, possibly spanning
	several revolutions of the disk. Revolutions holds the length in bit cells
	of each revolution, in capture order, with the first one starting at bit 0.
*/
type Raw struct {
	Bits        *bits.Stream
	Revolutions []int
}

//
func NewRaw(s *bits.Stream, revs []int) *Raw {
	return &Raw{Bits: s, Revolutions: revs}
}

// Validate checks that the revolution list describes usable boundaries.
func (r *Raw) Validate() error {
	if r.Bits == nil {
		return fmt.Errorf("raw track has no bit stream")
	}
	if len(r.Revolutions) == 0 {
		return fmt.Errorf("raw track has no revolutions")
	}
	total := 0
	for ix, l := range r.Revolutions {
		if l <= 0 {
			return fmt.Errorf("revolution %d has invalid length %d", ix, l)
		}
		total += l
	}
	if total > r.Bits.Len() {
		return fmt.Errorf("revolutions span %d bits, stream has only %d",
			total, r.Bits.Len())
	}
	return nil
}

// Verifier checks a read back track against what was written.
type Verifier interface {
	VerifyTrack(readback *Raw) bool
}

/*
	Master is an encoded track ready for writing. TimePerRev is the nominal
	duration of one revolution in seconds, Clock the duration of one bit cell
	in seconds. A writer should capture VerifyRevs revolutions after writing
	and pass them to Verify, if set.
*/
type Master struct {
	Bits       *bits.Stream
	TimePerRev float64
	Clock      float64
	Verify     Verifier
	VerifyRevs int
}

// Loop returns revs back-to-back copies of the master as if read back from an
// ideal drive.
func (m *Master) Loop(revs int) *Raw {

	if revs < 1 {
		revs = 1
	}

	n := m.Bits.Len()
	buf := make([]byte, (n*revs+7)/8)
	out, _ := bits.New(buf, n*revs)
	lens := make([]int, revs)

	for r := 0; r < revs; r++ {
		lens[r] = n
		base := r * n
		if base&7 == 0 && n&7 == 0 {
			copy(buf[base>>3:], m.Bits.Data())
			continue
		}
		for ix := 0; ix < n; ix++ {
			if m.Bits.Bit(ix) != 0 {
				p := base + ix
				buf[p>>3] |= 0x80 >> uint(p&7)
			}
		}
	}

	return NewRaw(out, lens)
}
