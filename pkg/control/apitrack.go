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
	"bytes"
	"fmt"
	"net/http"

	"github.com/xelalexv/fluxdisk/pkg/disk/track"
)

// encode turns the sector data in the request body into a track dump.
func (a *api) encode(w http.ResponseWriter, req *http.Request) {

	f := a.getFormat(w, req)
	if f == nil {
		return
	}

	cyl, head := getPosition(w, req, f)
	if cyl == -1 {
		return
	}

	revs, err := getIntArg(req, "revs", 1)
	if err == nil && (revs < 1 || 255 < revs) {
		err = fmt.Errorf("invalid revolution count: %d", revs)
	}
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	data, err := readBody(req)
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}

	t := f.Track(cyl, head)
	t.SetImgTrack(data)

	var out bytes.Buffer
	if handleError(track.WriteDump(&out, []*track.Entry{
		t.RawTrack().Entry(cyl, head, revs)}),
		http.StatusInternalServerError, w) {
		return
	}

	sendBinaryReply(out.Bytes(), http.StatusOK, w)
}

// decode decodes the track dump in the request body. With type=img, the
// sector data is returned, otherwise a report. With strict=true, missing
// sectors make the request fail.
func (a *api) decode(w http.ResponseWriter, req *http.Request) {

	f := a.getFormat(w, req)
	if f == nil {
		return
	}

	cyl, head := getPosition(w, req, f)
	if cyl == -1 {
		return
	}

	data, err := readBody(req)
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}

	entries, err := track.ReadDump(bytes.NewReader(data))
	if err != nil {
		handleError(fmt.Errorf("track dump corrupted: %v", err),
			http.StatusUnprocessableEntity, w)
		return
	}

	var entry *track.Entry
	for _, e := range entries {
		if e.Cylinder == cyl && e.Head == head {
			entry = e
			break
		}
	}
	if entry == nil {
		handleError(fmt.Errorf("no track %d.%d in dump", cyl, head),
			http.StatusUnprocessableEntity, w)
		return
	}

	t, mm, err := f.DecodeTrack(cyl, head, entry.Raw)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	status := http.StatusOK
	if isFlagSet(req, "strict") && t.Missing() > 0 {
		status = http.StatusUnprocessableEntity
	}

	if typ, _ := getArg(req, "type"); typ == "img" {
		sendBinaryReply(t.GetImgTrack(), status, w)
		return
	}

	report := NewTrackReport(t, mm)

	if wantsJSON(req) {
		sendJSONReply(report, status, w)
	} else {
		sendReply([]byte(report.String()), status, w)
	}
}
