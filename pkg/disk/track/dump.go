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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-restruct/restruct"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/bits"
)

/*
	A dump file carries bit streams for any number of tracks. It starts with a
	fixed header, followed by one length prefixed record per track:

		magic 'FXDK' | version | track count
		length (uint32) | record
		...

	All numbers are big endian.
*/
const DumpVersion = 1

const maxRecordLength = 1 << 24

var dumpMagic = [4]byte{'F', 'X', 'D', 'K'}

var order = binary.BigEndian

//
type dumpHeader struct {
	Magic   [4]byte
	Version uint8
	Tracks  uint16
}

//
type dumpRecord struct {
	Cylinder   uint8
	Head       uint8
	RevCount   uint8 `struct:"uint8,sizeof=Revs"`
	Revs       []uint32
	TimePerRev float64
	Clock      float64
	BitLen     uint32
	DataLen    uint32 `struct:"uint32,sizeof=Data"`
	Data       []byte
}

// Entry is one track in a dump file.
type Entry struct {
	Cylinder   int
	Head       int
	Raw        *Raw
	TimePerRev float64
	Clock      float64
}

// Entry wraps revs revolutions of this master into a dump entry.
func (m *Master) Entry(cyl, head, revs int) *Entry {
	return &Entry{
		Cylinder:   cyl,
		Head:       head,
		Raw:        m.Loop(revs),
		TimePerRev: m.TimePerRev,
		Clock:      m.Clock,
	}
}

// WriteDump writes entries as a dump file to out.
func WriteDump(out io.Writer, entries []*Entry) error {

	w := bufio.NewWriter(out)

	hd, err := restruct.Pack(order, &dumpHeader{
		Magic:   dumpMagic,
		Version: DumpVersion,
		Tracks:  uint16(len(entries)),
	})
	if err != nil {
		return err
	}
	if _, err := w.Write(hd); err != nil {
		return err
	}

	for _, e := range entries {

		rec := &dumpRecord{
			Cylinder:   uint8(e.Cylinder),
			Head:       uint8(e.Head),
			TimePerRev: e.TimePerRev,
			Clock:      e.Clock,
			BitLen:     uint32(e.Raw.Bits.Len()),
			Data:       e.Raw.Bits.Data(),
		}
		for _, r := range e.Raw.Revolutions {
			rec.Revs = append(rec.Revs, uint32(r))
		}

		data, err := restruct.Pack(order, rec)
		if err != nil {
			return fmt.Errorf("error packing track %d.%d: %v",
				e.Cylinder, e.Head, err)
		}
		if err := writeRecord(data, w); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"cylinder": e.Cylinder,
			"head":     e.Head,
			"bits":     rec.BitLen,
		}).Trace("track dumped")
	}

	return w.Flush()
}

// ReadDump reads all entries from a dump file.
func ReadDump(in io.Reader) ([]*Entry, error) {

	r := bufio.NewReader(in)

	var hd dumpHeader
	buf := make([]byte, restructSize(&hd))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("error reading dump header: %v", err)
	}
	if err := restruct.Unpack(buf, order, &hd); err != nil {
		return nil, err
	}

	if hd.Magic != dumpMagic {
		return nil, fmt.Errorf("not a track dump, magic is %q", hd.Magic[:])
	}
	if hd.Version != DumpVersion {
		return nil, fmt.Errorf(
			"incompatible dump version, want %d, got %d",
			DumpVersion, hd.Version)
	}

	ret := make([]*Entry, 0, hd.Tracks)

	for ix := 0; ix < int(hd.Tracks); ix++ {

		data, err := readRecord(r, maxRecordLength)
		if err != nil {
			return nil, fmt.Errorf("error reading track record %d: %v", ix, err)
		}

		var rec dumpRecord
		if err := restruct.Unpack(data, order, &rec); err != nil {
			return nil, fmt.Errorf("error unpacking track record %d: %v", ix, err)
		}

		s, err := bits.New(rec.Data, int(rec.BitLen))
		if err != nil {
			return nil, fmt.Errorf("track record %d: %v", ix, err)
		}

		revs := make([]int, len(rec.Revs))
		for i, l := range rec.Revs {
			revs[i] = int(l)
		}

		e := &Entry{
			Cylinder:   int(rec.Cylinder),
			Head:       int(rec.Head),
			Raw:        NewRaw(s, revs),
			TimePerRev: rec.TimePerRev,
			Clock:      rec.Clock,
		}
		if err := e.Raw.Validate(); err != nil {
			return nil, fmt.Errorf("track %d.%d: %v", e.Cylinder, e.Head, err)
		}
		ret = append(ret, e)
	}

	log.Debugf("%d tracks read from dump", len(ret))
	return ret, nil
}

//
func restructSize(v interface{}) int {
	n, err := restruct.SizeOf(v)
	if err != nil {
		panic(err)
	}
	return n
}

//
func readRecord(in io.Reader, maxLen int) ([]byte, error) {

	buf := make([]byte, 4)
	if _, err := io.ReadFull(in, buf); err != nil {
		return nil, err
	}

	length := int(order.Uint32(buf))

	if length > maxLen {
		return nil, fmt.Errorf("max length %d, but have %d", maxLen, length)
	}

	ret := make([]byte, length)
	if _, err := io.ReadFull(in, ret); err != nil {
		return nil, err
	}

	return ret, nil
}

//
func writeRecord(data []byte, out io.Writer) error {

	buf := make([]byte, 4)
	order.PutUint32(buf, uint32(len(data)))

	if _, err := out.Write(buf); err != nil {
		return err
	}

	if _, err := out.Write(data); err != nil {
		return err
	}

	return nil
}
