// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/makaimann/fault/lower"
)

// Icarus is the external engine for the event-simulation target: it
// compiles the device sources and the generated testbench with iverilog
// and runs the result under vvp.
type Icarus struct {
	// Bin is the iverilog binary; default "iverilog".
	Bin string
	// VVP is the runtime binary; default "vvp".
	VVP string
	// Sources are the device HDL files, relative to the run directory.
	// Default "<dut>.v".
	Sources []string
	// Flags are appended to the compile command.
	Flags []string
}

// Name implements Engine.
func (*Icarus) Name() string { return "icarus" }

// Run implements Engine.
func (ic *Icarus) Run(ctx context.Context, art *lower.Artifact, dir string) (*Result, error) {
	bin, vvp := ic.Bin, ic.VVP
	if bin == "" {
		bin = "iverilog"
	}
	if vvp == "" {
		vvp = "vvp"
	}
	srcs := ic.Sources
	if len(srcs) == 0 {
		srcs = []string{art.DUT + ".v"}
	}

	args := []string{"-g2012", "-o", "tb.vvp"}
	args = append(args, ic.Flags...)
	args = append(args, srcs...)
	args = append(args, art.Main)
	out, err := runCmd(ctx, dir, bin, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "iverilog failed:\n%s", out)
	}

	out, err = runCmd(ctx, dir, vvp, "tb.vvp")
	if err != nil {
		return nil, errors.Wrapf(err, "vvp failed:\n%s", out)
	}
	fails, err := parseMarkers(art, out)
	if err != nil {
		return nil, err
	}
	return &Result{Failures: fails, Output: out}, nil
}
