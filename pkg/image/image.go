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

package image

import (
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/format"
	"github.com/xelalexv/fluxdisk/pkg/disk/ibm"
)

// Track is the part of a flat image belonging to one track. Data holds the
// sectors of the track in ascending order of sector id.
type Track struct {
	format.Position
	Data []byte
}

// Size returns the size in bytes of a flat image for format f.
func Size(f *format.Format) int {
	ret := 0
	for _, p := range f.Tracks() {
		ret += f.Track(p.Cyl, p.Head).ImageSize()
	}
	return ret
}

/*
	Split cuts data into per track parts, in the order of f.Tracks(). Data
	shorter than the image size is padded with zeros, surplus data is ignored.
*/
func Split(f *format.Format, data []byte) []*Track {

	size := Size(f)

	if len(data) < size {
		log.WithFields(log.Fields{
			"format": f.Name,
			"size":   len(data),
			"want":   size,
		}).Warn("image too short, padding with zeros")
		padded := make([]byte, size)
		copy(padded, data)
		data = padded

	} else if len(data) > size {
		log.WithFields(log.Fields{
			"format": f.Name,
			"size":   len(data),
			"want":   size,
		}).Warn("image too long, ignoring surplus data")
	}

	var ret []*Track
	pos := 0

	for _, p := range f.Tracks() {
		n := f.Track(p.Cyl, p.Head).ImageSize()
		ret = append(ret, &Track{Position: p, Data: data[pos : pos+n]})
		pos += n
	}

	log.Debugf("%d bytes of image data split into %d tracks", pos, len(ret))
	return ret
}

// Join concatenates the sector data of tracks.
func Join(tracks []*ibm.Formatted) []byte {
	var ret []byte
	for _, t := range tracks {
		ret = append(ret, t.GetImgTrack()...)
	}
	return ret
}

// Read reads a complete flat image from in and splits it.
func Read(f *format.Format, in io.Reader) ([]*Track, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return Split(f, data), nil
}

// Write writes the sector data of tracks to out as a flat image.
func Write(tracks []*ibm.Formatted, out io.Writer) error {
	for _, t := range tracks {
		if _, err := out.Write(t.GetImgTrack()); err != nil {
			return err
		}
	}
	return nil
}
