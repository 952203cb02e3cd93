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
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

var (
	reContent     = regexp.MustCompile(`^\s*([^#]*)`)
	reDisk        = regexp.MustCompile(`^disk\s+([\w,.-]+)`)
	reListDisk    = regexp.MustCompile(`^\s*disk\s+([\w,.-]+)`)
	reTracks      = regexp.MustCompile(`^tracks\s+([0-9,.*-]+)\s+([\w,.-]+)`)
	reTrackSpec   = regexp.MustCompile(`^(\d+)(?:-(\d+))?(?:\.([01]))?$`)
	reDiskKeyVal  = regexp.MustCompile(`^([a-zA-Z0-9:,._-]+)\s*=\s*([a-zA-Z0-9:,._-]+)`)
	reTrackKeyVal = regexp.MustCompile(`^([a-zA-Z0-9:,._-]+)\s*=\s*([a-zA-Z0-9:,._*-]+)`)
)

// ParseError is a problem found in a disk definition source. Line is 1-based,
// and zero if the problem was found at the end of the source.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

//
func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s, line %d: %v", e.Source, e.Line, e.Err)
}

//
func (e *ParseError) Unwrap() error {
	return e.Err
}

//
type parseMode int

const (
	modeOuter parseMode = iota
	modeDisk
	modeTrack
)

/*
	parser is a line by line state machine over disk definitions. Only the disk
	block named name is materialised. Other blocks need to be well-formed at the
	directive level, but their parameters are not checked.
*/
type parser struct {
	name   string
	mode   parseMode
	active bool
	disk   *DiskConfig
	track  *TrackConfig
	done   bool // active disk block has been finalised
}

//
func (p *parser) line(text string) error {

	switch p.mode {

	case modeOuter:
		m := reDisk.FindStringSubmatch(text)
		if m == nil {
			return fmt.Errorf("syntax error")
		}
		p.mode = modeDisk
		p.active = m[1] == p.name
		if p.active {
			p.disk = newDiskConfig()
			p.done = false
		}

	case modeDisk:
		if text == "end" {
			p.mode = modeOuter
			if p.active {
				p.active = false
				p.done = true
				return p.disk.Finalise()
			}
			return nil
		}

		if m := reTracks.FindStringSubmatch(text); m != nil {
			p.mode = modeTrack
			if !p.active {
				return nil
			}
			tc, err := newTrackConfig(m[2])
			if err != nil {
				return err
			}
			p.track = tc
			return p.disk.assign(m[1], tc)
		}

		if !p.active {
			return nil
		}

		m := reDiskKeyVal.FindStringSubmatch(text)
		if m == nil {
			return fmt.Errorf("syntax error")
		}
		return p.disk.AddParam(m[1], m[2])

	case modeTrack:
		if text == "end" {
			p.mode = modeDisk
			if p.track != nil {
				tc := p.track
				p.track = nil
				return tc.Finalise()
			}
			return nil
		}

		if !p.active {
			return nil
		}

		m := reTrackKeyVal.FindStringSubmatch(text)
		if m == nil {
			return fmt.Errorf("syntax error")
		}
		return p.track.AddParam(m[1], m[2])
	}

	return nil
}

// finish closes whatever is still open for the active disk block at the end
// of the source.
func (p *parser) finish() error {
	if p.track != nil {
		if err := p.track.Finalise(); err != nil {
			return err
		}
		p.track = nil
	}
	if p.disk != nil && !p.done {
		return p.disk.Finalise()
	}
	return nil
}

/*
	Compile reads disk definitions from in and returns the format defined by
	the disk block called name. If there is no such block, Compile returns nil
	and no error. Problems in the source are returned as *ParseError, naming
	source and line. No partially compiled format is ever returned.
*/
func Compile(name string, in io.Reader, source string) (*Format, error) {

	p := &parser{name: name}
	scanner := bufio.NewScanner(in)
	no := 0

	for scanner.Scan() {
		no++
		text := strings.TrimSpace(
			reContent.FindStringSubmatch(scanner.Text())[1])
		if text == "" {
			continue
		}
		if err := p.line(text); err != nil {
			return nil, &ParseError{Source: source, Line: no, Err: err}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", source, err)
	}

	if p.disk == nil {
		log.WithFields(log.Fields{
			"format": name,
			"source": source,
		}).Debug("format not found")
		return nil, nil
	}

	if err := p.finish(); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	f := &Format{Name: name, disk: p.disk}

	log.WithFields(log.Fields{
		"format": name,
		"source": source,
		"tracks": len(p.disk.tracks),
	}).Debug("format compiled")

	return f, nil
}

// ListNames returns the names of all disk blocks in in, sorted. Block bodies
// are not checked.
func ListNames(in io.Reader) ([]string, error) {

	var ret []string
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if m := reListDisk.FindStringSubmatch(scanner.Text()); m != nil {
			ret = append(ret, m[1])
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Strings(ret)
	return ret, nil
}
