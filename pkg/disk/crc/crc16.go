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
	"github.com/sigurn/crc16"
)

// CRC-16/CCITT-FALSE: polynomial 0x1021, initial value 0xffff, no reflection,
// no final XOR. Running the checksum over a field including its stored
// big-endian CRC yields zero for an intact field.

// Initial is the register value at the start of a field.
const Initial = 0xffff

var table = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Checksum returns the CRC over data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, table)
}

// Update continues a running CRC with data. As there is neither reflection nor
// a final XOR, the result is also the final CRC.
func Update(crc uint16, data []byte) uint16 {
	return crc16.Update(crc, data, table)
}

// Append appends the big-endian CRC of data to data.
func Append(data []byte) []byte {
	c := Checksum(data)
	return append(data, byte(c>>8), byte(c))
}
