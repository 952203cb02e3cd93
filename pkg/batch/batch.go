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

package batch

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/xelalexv/fluxdisk/pkg/disk/format"
)

// DefaultWorkers is the number of tracks processed in parallel, if not set
// otherwise.
const DefaultWorkers = 4

// Func processes the track at position p, the ix-th job of a batch. Results
// are best stored by ix, so that they come out in job order.
type Func func(ctx context.Context, ix int, p format.Position) error

/*
	Run calls fn for each of jobs, using up to workers goroutines. Tracks are
	independent of each other, so jobs may run in any order. The first error
	cancels the context passed to the remaining jobs, and is returned once all
	started jobs have finished. Jobs not yet started when ctx is done are
	skipped.
*/
func Run(ctx context.Context, workers int, jobs []format.Position, fn Func) error {

	if workers < 1 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for ix, p := range jobs {

		if gctx.Err() != nil {
			break
		}

		ix, p := ix, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"cylinder": p.Cyl,
				"head":     p.Head,
			}).Trace("processing track")
			return fn(gctx, ix, p)
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	log.WithFields(log.Fields{
		"jobs":    len(jobs),
		"workers": workers,
	}).Debug("batch done")

	return err
}
