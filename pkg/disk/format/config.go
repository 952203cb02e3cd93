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

package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xelalexv/fluxdisk/pkg/disk/ibm"
)

var reBPS = regexp.MustCompile(`^(\d+)\*(\d+)`)

// max sectors per track
const maxSecs = 256

/*
	TrackConfig is a track template, i.e. the parameters given in one tracks
	block. The same template is shared by all positions the block applies to,
	and must not be changed once finalised.
*/
type TrackConfig struct {
	Family    Family
	IBM       *ibm.Config
	finalised bool
}

//
func newTrackConfig(name string) (*TrackConfig, error) {
	f, err := ParseFamily(name)
	if err != nil {
		return nil, err
	}
	return &TrackConfig{Family: f, IBM: ibm.NewConfig()}, nil
}

// AddParam sets template parameter key to val.
func (tc *TrackConfig) AddParam(key, val string) error {

	if tc.finalised {
		return fmt.Errorf("track template already finalised")
	}

	c := tc.IBM

	switch key {

	case "secs":
		return setInt(&c.Secs, key, val, 0, maxSecs)

	case "bps":
		sizes, err := parseSizes(val)
		if err != nil {
			return err
		}
		c.Sizes = sizes

	case "interleave":
		return setInt(&c.Interleave, key, val, 1, 255)

	case "id":
		return setInt(&c.ID, key, val, 0, 255)
	case "cskew":
		return setInt(&c.CSkew, key, val, 0, 255)
	case "hskew":
		return setInt(&c.HSkew, key, val, 0, 255)

	case "gap1":
		return setAuto(&c.Gap1, key, val)
	case "gap2":
		return setAuto(&c.Gap2, key, val)
	case "gap3":
		return setAuto(&c.Gap3, key, val)
	case "gap4a":
		return setAuto(&c.Gap4a, key, val)
	case "h":
		return setAuto(&c.H, key, val)

	case "iam":
		if val != "yes" && val != "no" {
			return fmt.Errorf("bad iam value")
		}
		c.IAM = val == "yes"

	case "rate":
		return setInt(&c.Rate, key, val, 1, 2000)
	case "rpm":
		return setInt(&c.RPM, key, val, 1, 2000)

	default:
		return fmt.Errorf("unrecognised track option %s", key)
	}

	return nil
}

// Finalise checks the template for consistency. Calling it again has no
// effect.
func (tc *TrackConfig) Finalise() error {

	if tc.finalised {
		return nil
	}

	if !tc.IBM.IAM && tc.IBM.Gap1 != ibm.Auto {
		return fmt.Errorf("gap1 specified but no iam")
	}
	if tc.IBM.Secs != 0 && len(tc.IBM.Sizes) == 0 {
		return fmt.Errorf("sector size not specified")
	}
	if last := tc.IBM.ID + tc.IBM.Secs - 1; last > 255 {
		return fmt.Errorf("sector ids %d-%d out of range", tc.IBM.ID, last)
	}

	tc.finalised = true
	return nil
}

// DefaultRevs is the number of revolutions to read for tracks made from this
// template.
func (tc *TrackConfig) DefaultRevs() int {
	return ibm.DefaultRevs
}

// MkTrack builds the ideal track for the given position.
func (tc *TrackConfig) MkTrack(cyl, head int) *ibm.Formatted {
	return ibm.FromFormat(tc.IBM, cyl, head)
}

//
func parseSizes(val string) ([]byte, error) {

	var ret []byte

	for _, x := range strings.Split(val, ",") {

		var n, l int
		var err error

		if m := reBPS.FindStringSubmatch(x); m != nil {
			if n, err = strconv.Atoi(m[1]); err != nil {
				return nil, fmt.Errorf("bad bps value: %s", x)
			}
			if l, err = strconv.Atoi(m[2]); err != nil {
				return nil, fmt.Errorf("bad bps value: %s", x)
			}
		} else {
			if n, err = strconv.Atoi(x); err != nil {
				return nil, fmt.Errorf("bad bps value: %s", x)
			}
			l = 1
		}

		var s byte
		for n != 128<<s {
			if s++; s > 6 {
				return nil, fmt.Errorf("bps value out of range")
			}
		}

		if len(ret)+l > maxSecs {
			return nil, fmt.Errorf("too many bps values, max is %d", maxSecs)
		}

		for ix := 0; ix < l; ix++ {
			ret = append(ret, s)
		}
	}

	return ret, nil
}

// Position is a cylinder/head pair.
type Position struct {
	Cyl  int
	Head int
}

//
func (p Position) String() string {
	return fmt.Sprintf("%d.%d", p.Cyl, p.Head)
}

/*
	DiskConfig holds the disk level parameters of a disk block, and the track
	template for every position covered by one of its tracks blocks. Cyls and
	Heads are zero until set.
*/
type DiskConfig struct {
	Cyls   int
	Heads  int
	Step   int
	tracks map[Position]*TrackConfig
}

//
func newDiskConfig() *DiskConfig {
	return &DiskConfig{Step: 1, tracks: map[Position]*TrackConfig{}}
}

// AddParam sets disk parameter key to val.
func (dc *DiskConfig) AddParam(key, val string) error {

	switch key {

	case "cyls":
		return setInt(&dc.Cyls, key, val, 1, 255)

	case "heads":
		return setInt(&dc.Heads, key, val, 1, 2)

	case "step":
		return setInt(&dc.Step, key, val, 1, 4)

	default:
		return fmt.Errorf("unrecognised disk option: %s", key)
	}
}

//
func (dc *DiskConfig) Finalise() error {
	if dc.Cyls == 0 {
		return fmt.Errorf("missing cyls")
	}
	if dc.Heads == 0 {
		return fmt.Errorf("missing heads")
	}
	return nil
}

/*
	assign applies template tc to all positions given by spec, a comma
	separated list of either '*', meaning every position, or C[-C2][.H],
	meaning cylinders C to C2 on head H, or on all heads if H is omitted.
	Positions already covered by an earlier block keep their template.
*/
func (dc *DiskConfig) assign(spec string, tc *TrackConfig) error {

	if dc.Cyls == 0 {
		return fmt.Errorf("missing cyls")
	}
	if dc.Heads == 0 {
		return fmt.Errorf("missing heads")
	}

	for _, x := range strings.Split(spec, ",") {

		if x == "*" {
			for c := 0; c < dc.Cyls; c++ {
				for h := 0; h < dc.Heads; h++ {
					p := Position{c, h}
					if _, ok := dc.tracks[p]; !ok {
						dc.tracks[p] = tc
					}
				}
			}
			continue
		}

		m := reTrackSpec.FindStringSubmatch(x)
		if m == nil {
			return fmt.Errorf("bad track specifier")
		}

		s, _ := strconv.Atoi(m[1])
		e := s
		if m[2] != "" {
			e, _ = strconv.Atoi(m[2])
		}

		var heads []int
		if m[3] == "" {
			for h := 0; h < dc.Heads; h++ {
				heads = append(heads, h)
			}
		} else {
			h, _ := strconv.Atoi(m[3])
			if h >= dc.Heads {
				return fmt.Errorf("head out of range")
			}
			heads = []int{h}
		}

		if s < 0 || s >= dc.Cyls || e < 0 || e >= dc.Cyls || s > e {
			return fmt.Errorf("cylinder out of range")
		}

		for c := s; c <= e; c++ {
			for _, h := range heads {
				p := Position{c, h}
				if _, ok := dc.tracks[p]; !ok {
					dc.tracks[p] = tc
				}
			}
		}
	}

	return nil
}

//
func setInt(dst *int, key, val string, min, max int) error {
	v, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("bad value for %s: %s", key, val)
	}
	if v < min || max < v {
		return fmt.Errorf("%s out of range", key)
	}
	*dst = v
	return nil
}

//
func setAuto(dst *int, key, val string) error {
	if val == "auto" {
		*dst = ibm.Auto
		return nil
	}
	return setInt(dst, key, val, 0, 255)
}
