// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package engine

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/makaimann/fault"
)

// A Cycle names one compile-and-run invocation for RunMatrix.
type Cycle struct {
	Name    string
	Model   *fault.Model
	Actions []fault.Action
	Target  string
	Opts    []Option
}

// RunMatrix runs several cycles concurrently, at most limit at a time
// (unlimited when limit <= 0), and collects their reports by cycle name.
// Verification failures stay inside the reports; only structural errors
// abort the matrix.
func RunMatrix(ctx context.Context, cycles []Cycle, limit int) (map[string]fault.Report, error) {
	seen := make(map[string]bool, len(cycles))
	for _, c := range cycles {
		if seen[c.Name] {
			return nil, errors.Errorf("duplicate cycle name %q", c.Name)
		}
		seen[c.Name] = true
	}

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	reports := make(map[string]fault.Report, len(cycles))
	for _, c := range cycles {
		c := c
		g.Go(func() error {
			rep, err := CompileAndRun(ctx, c.Model, c.Actions, c.Target, c.Opts...)
			if err != nil {
				return errors.Wrapf(err, "cycle %s", c.Name)
			}
			mu.Lock()
			reports[c.Name] = rep
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
