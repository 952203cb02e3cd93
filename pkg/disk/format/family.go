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
)

// Family is the kind of track layout a tracks block describes.
type Family int

const (
	FamilyIBMFM Family = iota
	FamilyIBMMFM
	FamilyAmigaDOS
)

//
func (f Family) String() string {

	switch f {

	case FamilyIBMFM:
		return "ibm.fm"

	case FamilyIBMMFM:
		return "ibm.mfm"

	case FamilyAmigaDOS:
		return "amiga.amigados"

	default:
		return "<unknown>"
	}
}

// Available tells whether there is a codec for tracks of this family.
func (f Family) Available() bool {
	return f == FamilyIBMFM
}

// ParseFamily returns the family with the given format name. Only families
// with an available codec are accepted.
func ParseFamily(name string) (Family, error) {

	for _, f := range []Family{FamilyIBMFM, FamilyIBMMFM, FamilyAmigaDOS} {
		if f.String() == name {
			if !f.Available() {
				return f, fmt.Errorf("codec not available: %s", name)
			}
			return f, nil
		}
	}

	return -1, fmt.Errorf("unrecognised format name: %s", name)
}
