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
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/xelalexv/fluxdisk/pkg/disk/format"
)

func positions(n int) []format.Position {
	var ret []format.Position
	for ix := 0; ix < n; ix++ {
		ret = append(ret, format.Position{Cyl: ix / 2, Head: ix % 2})
	}
	return ret
}

func TestRunOrder(t *testing.T) {

	jobs := positions(40)
	results := make([]string, len(jobs))

	err := Run(context.Background(), 3, jobs,
		func(ctx context.Context, ix int, p format.Position) error {
			results[ix] = p.String()
			return nil
		})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for ix, r := range results {
		if r != jobs[ix].String() {
			t.Errorf("job %d: want %s, got %s", ix, jobs[ix], r)
		}
	}
}

func TestRunLimit(t *testing.T) {

	var running, max int32

	err := Run(context.Background(), 2, positions(20),
		func(ctx context.Context, ix int, p format.Position) error {
			n := atomic.AddInt32(&running, 1)
			for {
				m := atomic.LoadInt32(&max)
				if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
					break
				}
			}
			atomic.AddInt32(&running, -1)
			return nil
		})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if max > 2 {
		t.Errorf("want at most 2 concurrent jobs, got %d", max)
	}
}

func TestRunError(t *testing.T) {

	var done int32

	err := Run(context.Background(), 1, positions(10),
		func(ctx context.Context, ix int, p format.Position) error {
			atomic.AddInt32(&done, 1)
			if ix == 2 {
				return fmt.Errorf("track %s failed", p)
			}
			return nil
		})

	if err == nil || err.Error() != "track 1.0 failed" {
		t.Errorf("want error of job 2, got %v", err)
	}
	if done != 3 {
		t.Errorf("want jobs after the failing one skipped, %d ran", done)
	}
}

func TestRunCancelled(t *testing.T) {

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Run(ctx, 2, positions(4),
		func(ctx context.Context, ix int, p format.Position) error {
			called = true
			return nil
		})

	if err != context.Canceled {
		t.Errorf("want context canceled, got %v", err)
	}
	if called {
		t.Error("job ran on cancelled context")
	}
}
