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
	"encoding/hex"
	"fmt"
	"io"
)

// CRCInvalid marks an area whose checksum is unknown or known to be bad.
const CRCInvalid = 0xffff

// Area is a feature found on, or to be written to, a track. Offsets are
// counted in bit cells.
type Area interface {
	//
	Offset() int

	// Delta moves the area towards the track start by d bit cells.
	Delta(d int)

	String() string
}

// Span is the bit cell range [Start, End) covered by an area.
type Span struct {
	Start int
	End   int
}

//
func (s *Span) Offset() int {
	return s.Start
}

//
func (s *Span) Delta(d int) {
	s.Start -= d
	s.End -= d
}

// IAM is an index address mark.
type IAM struct {
	Span
}

//
func NewIAM(start, end int) *IAM {
	return &IAM{Span{start, end}}
}

//
func (a *IAM) Copy() *IAM {
	c := *a
	return &c
}

//
func (a *IAM) Equal(o *IAM) bool {
	return o != nil && a.Span == o.Span
}

//
func (a *IAM) String() string {
	return fmt.Sprintf("IAM: %6d-%6d", a.Start, a.End)
}

// IDAM is a sector ID field. CRC is zero when the field checked out fine.
type IDAM struct {
	Span
	CRC uint16
	C   byte // cylinder
	H   byte // head
	R   byte // sector id
	N   byte // size code, 128 << N bytes
}

//
func NewIDAM(start, end int, crc uint16, c, h, r, n byte) *IDAM {
	return &IDAM{Span: Span{start, end}, CRC: crc, C: c, H: h, R: r, N: n}
}

//
func (a *IDAM) Copy() *IDAM {
	c := *a
	return &c
}

// SameID tells whether o carries the same cylinder, head, id and size code.
func (a *IDAM) SameID(o *IDAM) bool {
	return a.C == o.C && a.H == o.H && a.R == o.R && a.N == o.N
}

//
func (a *IDAM) Equal(o *IDAM) bool {
	return o != nil && a.Span == o.Span && a.CRC == o.CRC && a.SameID(o)
}

//
func (a *IDAM) String() string {
	return fmt.Sprintf("IDAM:%6d-%6d c=%02x h=%02x r=%02x n=%02x CRC:%04x",
		a.Start, a.End, a.C, a.H, a.R, a.N, a.CRC)
}

// DAM is a data field. Mark is either the normal or the deleted data mark.
type DAM struct {
	Span
	CRC  uint16
	Mark byte
	Data []byte
}

//
func NewDAM(start, end int, crc uint16, mark byte, data []byte) *DAM {
	return &DAM{Span: Span{start, end}, CRC: crc, Mark: mark, Data: data}
}

// Copy returns a shallow copy; the payload is shared.
func (a *DAM) Copy() *DAM {
	c := *a
	return &c
}

//
func (a *DAM) Equal(o *DAM) bool {
	return o != nil && a.Span == o.Span && a.CRC == o.CRC &&
		a.Mark == o.Mark && bytes.Equal(a.Data, o.Data)
}

//
func (a *DAM) String() string {
	return fmt.Sprintf("DAM: %6d-%6d mark=%02x", a.Start, a.End, a.Mark)
}

// Sector pairs an ID field with the data field following it.
type Sector struct {
	Span
	IDAM *IDAM
	DAM  *DAM
}

//
func NewSector(idam *IDAM, dam *DAM) *Sector {
	return &Sector{Span: Span{idam.Start, dam.End}, IDAM: idam, DAM: dam}
}

// CRC is zero only if both ID and data field are intact.
func (s *Sector) CRC() uint16 {
	return s.IDAM.CRC | s.DAM.CRC
}

//
func (s *Sector) Size() int {
	return SizeFromCode(s.IDAM.N)
}

//
func (s *Sector) Delta(d int) {
	s.Span.Delta(d)
	s.IDAM.Delta(d)
	s.DAM.Delta(d)
}

//
func (s *Sector) Equal(o *Sector) bool {
	return o != nil && s.Span == o.Span && s.CRC() == o.CRC() &&
		s.IDAM.Equal(o.IDAM) && s.DAM.Equal(o.DAM)
}

//
func (s *Sector) String() string {
	return fmt.Sprintf("Sec: %6d-%6d CRC:%04x\n %s\n %s",
		s.Start, s.End, s.CRC(), s.IDAM, s.DAM)
}

// Emit writes a description of the sector followed by a hex dump of its
// payload.
func (s *Sector) Emit(w io.Writer) {
	io.WriteString(w, fmt.Sprintf("\n%s\n", s))
	d := hex.Dumper(w)
	defer d.Close()
	d.Write(s.DAM.Data)
}

// SizeFromCode returns the payload size for size code n.
func SizeFromCode(n byte) int {
	if n > 7 {
		n = 8
	}
	return 128 << n
}
