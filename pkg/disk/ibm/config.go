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

package ibm

// Auto marks a parameter that is to be derived when building the track.
const Auto = -1

/*
	Config holds the parameters of an IBM style track template. Sizes is the
	size code schedule, one entry per sector in logical order. Sectors beyond
	the end of the schedule use the last entry.
*/
type Config struct {
	Secs       int
	Sizes      []byte
	ID         int
	H          int // head number written to ID fields, Auto for physical head
	Interleave int
	CSkew      int
	HSkew      int
	RPM        int
	Rate       int // kbit/s, 0 for auto
	Gap1       int // post IAM, needs IAM
	Gap2       int // post ID field
	Gap3       int // post data field
	Gap4a      int // pre IAM, i.e. post index
	IAM        bool
}

//
func NewConfig() *Config {
	return &Config{
		ID:         1,
		H:          Auto,
		Interleave: 1,
		RPM:        300,
		Gap1:       Auto,
		Gap2:       Auto,
		Gap3:       Auto,
		Gap4a:      Auto,
		IAM:        true,
	}
}

// SizeCode returns the size code of the i-th logical sector.
func (c *Config) SizeCode(i int) byte {
	if i < len(c.Sizes) {
		return c.Sizes[i]
	}
	return c.Sizes[len(c.Sizes)-1]
}
