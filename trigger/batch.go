// Copyright 2024 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trigger

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of decoding one event of a batch.
type Result struct {
	Event *Event
	Err   error // decoding error of this event, if any
}

// DecodeAll decodes a batch of raw events concurrently, with at most n
// workers (n <= 0 selects the number of CPUs).
// Decoding errors are reported per event. DecodeAll only fails when ctx is
// canceled.
func DecodeAll(ctx context.Context, unp *Unpacker, raws [][]byte, n int) ([]Result, error) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > len(raws) {
		n = len(raws)
	}

	var (
		res  = make([]Result, len(raws))
		grp  errgroup.Group
		jobs = make(chan int)
	)

	for w := 0; w < n; w++ {
		grp.Go(func() error {
			for i := range jobs {
				evt := unp.NewEvent()
				err := unp.Decode(raws[i], evt)
				res[i] = Result{Event: evt, Err: err}
			}
			return nil
		})
	}

	grp.Go(func() error {
		defer close(jobs)
		for i := range raws {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case jobs <- i:
			}
		}
		return nil
	})

	err := grp.Wait()
	if err != nil {
		return nil, err
	}
	return res, nil
}
