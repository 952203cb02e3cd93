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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/fluxdisk/pkg/disk/format"
	"github.com/xelalexv/fluxdisk/pkg/diskdefs"
)

// max accepted request body size
const maxBodySize = 1 << 24

//
type APIServer interface {
	Serve() error
	Stop() error
	Handler() http.Handler
}

// NewAPIServer creates an API server listening on addr, serving the formats
// found in the disk definitions at diskdefs, or the built-in ones if empty.
func NewAPIServer(addr, diskdefs string) APIServer {
	return &api{address: addr, diskdefs: diskdefs}
}

//
type api struct {
	address  string
	diskdefs string
	server   *http.Server
}

//
func (a *api) Handler() http.Handler {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "formats", "GET", "/formats", a.formats)
	addRoute(router, "format", "GET", "/format/{name}", a.format)
	addRoute(router, "layout", "GET",
		"/format/{name}/track/{cyl:[0-9]+}/{head:[0-9]+}", a.layout)
	addRoute(router, "encode", "PUT",
		"/format/{name}/track/{cyl:[0-9]+}/{head:[0-9]+}/encode", a.encode)
	addRoute(router, "decode", "PUT",
		"/format/{name}/track/{cyl:[0-9]+}/{head:[0-9]+}/decode", a.decode)

	return router
}

//
func (a *api) Serve() error {

	addr := a.address
	if len(strings.Split(addr, ":")) < 2 {
		addr = fmt.Sprintf("%s:8888", a.address)
	}

	log.Infof("FluxDisk API starts listening on %s", addr)
	a.server = &http.Server{Addr: addr, Handler: a.Handler()}

	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

//
func (a *api) Stop() error {
	if a.server != nil {
		log.Info("API server stopping...")
		err := a.server.Shutdown(context.Background())
		a.server = nil
		return err
	}
	return nil
}

//
func addRoute(r *mux.Router, name, method, pattern string,
	handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

//
func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

// getFormat compiles the format named in the request path. On failure, an
// error reply is sent and nil returned.
func (a *api) getFormat(w http.ResponseWriter, req *http.Request) *format.Format {

	name := mux.Vars(req)["name"]
	f, err := diskdefs.Get(name, a.diskdefs)

	if err != nil {
		if strings.HasPrefix(err.Error(), "unknown format") {
			handleError(err, http.StatusNotFound, w)
		} else {
			handleError(err, http.StatusUnprocessableEntity, w)
		}
		return nil
	}

	return f
}

// getPosition returns cylinder and head from the request path, or sends an
// error reply and returns -1s if the format does not cover that track.
func getPosition(w http.ResponseWriter, req *http.Request,
	f *format.Format) (int, int) {

	vars := mux.Vars(req)

	cyl, err := strconv.Atoi(vars["cyl"])
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return -1, -1
	}

	head, err := strconv.Atoi(vars["head"])
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return -1, -1
	}

	if f.Template(cyl, head) == nil {
		handleError(fmt.Errorf("format %s has no track %d.%d", f.Name, cyl, head),
			http.StatusNotFound, w)
		return -1, -1
	}

	return cyl, head
}

//
func isFlagSet(req *http.Request, flag string) bool {
	arg, _ := getArg(req, flag)
	return arg == "true"
}

//
func getArg(req *http.Request, arg string) (string, error) {
	ret := req.URL.Query().Get(arg)
	if ret != "" {
		return url.QueryUnescape(ret)
	}
	return ret, nil
}

//
func getIntArg(req *http.Request, arg string, def int) (int, error) {
	if val, err := getArg(req, arg); err != nil {
		return -1, err
	} else if val == "" {
		return def, nil
	} else {
		if ret, err := strconv.Atoi(val); err != nil {
			return -1, err
		} else {
			return ret, nil
		}
	}
}

//
func setHeaders(h http.Header, json bool) {
	if json {
		h.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
	}
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	log.Errorf("%v", e)

	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(fmt.Sprintf("%v\n", e))); err != nil {
		log.Errorf("problem writing error: %v", err)
	}

	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendBinaryReply(body []byte, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), true)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem writing error: %v", err)
	}
}

//
func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.Header.Get("Content-Type"), "application/json") ||
		strings.HasPrefix(req.Header.Get("Accept"), "application/json")
}

//
func readBody(req *http.Request) ([]byte, error) {
	defer req.Body.Close()
	return io.ReadAll(io.LimitReader(req.Body, maxBodySize))
}
