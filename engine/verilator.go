// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package engine

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/makaimann/fault/lower"
)

// Verilator is the external engine for the compiled-simulation target: it
// compiles the device sources and the generated C++ driver into a native
// simulator and runs it.
type Verilator struct {
	// Bin is the verilator binary; default "verilator".
	Bin string
	// Sources are the device HDL files, relative to the run directory.
	// Default "<dut>.v".
	Sources []string
	// Flags are appended to the verilate command.
	Flags []string
}

// Name implements Engine.
func (*Verilator) Name() string { return "verilator" }

// Run implements Engine.
func (v *Verilator) Run(ctx context.Context, art *lower.Artifact, dir string) (*Result, error) {
	bin := v.Bin
	if bin == "" {
		bin = "verilator"
	}
	srcs := v.Sources
	if len(srcs) == 0 {
		srcs = []string{art.DUT + ".v"}
	}

	args := []string{"--cc", "--exe", "--build", "-o", "sim",
		"--top-module", art.DUT, "--prefix", "V" + art.DUT}
	args = append(args, v.Flags...)
	args = append(args, srcs...)
	args = append(args, art.Main)
	out, err := runCmd(ctx, dir, bin, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "verilate failed:\n%s", out)
	}

	out, err = runCmd(ctx, dir, filepath.Join("obj_dir", "sim"))
	// the driver exits nonzero when checks failed; the markers decide
	fails, perr := parseMarkers(art, out)
	if perr != nil {
		if err != nil {
			return nil, errors.Wrapf(err, "simulation failed:\n%s", out)
		}
		return nil, perr
	}
	return &Result{Failures: fails, Output: out}, nil
}
