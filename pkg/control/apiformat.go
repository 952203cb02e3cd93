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

package control

import (
	"net/http"

	"github.com/xelalexv/fluxdisk/pkg/diskdefs"
)

//
func (a *api) formats(w http.ResponseWriter, req *http.Request) {

	names, err := diskdefs.Names(a.diskdefs)
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}

	list := &FormatList{Formats: names}

	if wantsJSON(req) {
		sendJSONReply(list, http.StatusOK, w)
	} else {
		sendReply([]byte(list.String()), http.StatusOK, w)
	}
}

//
func (a *api) format(w http.ResponseWriter, req *http.Request) {

	f := a.getFormat(w, req)
	if f == nil {
		return
	}

	info := NewFormatInfo(f)

	if wantsJSON(req) {
		sendJSONReply(info, http.StatusOK, w)
	} else {
		sendReply([]byte(info.String()), http.StatusOK, w)
	}
}

//
func (a *api) layout(w http.ResponseWriter, req *http.Request) {

	f := a.getFormat(w, req)
	if f == nil {
		return
	}

	cyl, head := getPosition(w, req, f)
	if cyl == -1 {
		return
	}

	l := f.Track(cyl, head).Layout()

	if wantsJSON(req) {
		sendJSONReply(l, http.StatusOK, w)
	} else {
		sendReply([]byte(l.String()), http.StatusOK, w)
	}
}
