// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/bench"
	"github.com/makaimann/fault/engine"
	"github.com/makaimann/fault/iface"
	"github.com/makaimann/fault/lower"
)

// errReportFailed marks a completed run whose report is anything but a
// pass. main maps it to exit code 2 after deferred cleanup has run.
var errReportFailed = errors.New("verification failed")

// record loads the interface and script and replays the script on a fresh
// tester, yielding the model and the recorded actions.
func record() (*fault.Model, []fault.Action, error) {
	m, err := iface.LoadModel(flags.iface)
	if err != nil {
		return nil, nil, err
	}
	script, err := iface.LoadScript(flags.script)
	if err != nil {
		return nil, nil, err
	}
	var clock fault.Path
	if flags.clock != "" {
		clock = fault.ParsePath(flags.clock)
	}
	t, err := fault.New(m, clock)
	if err != nil {
		return nil, nil, err
	}
	if err := script.Apply(t); err != nil {
		return nil, nil, err
	}
	return m, t.Snapshot(), nil
}

func lowerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lower",
		Short: "emit the artifact for a target without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := logger()
			if err != nil {
				return err
			}
			defer closeLog()

			m, actions, err := record()
			if err != nil {
				return err
			}
			art, err := lower.Lower(m, actions, flags.target, lower.Options{
				MaxResamples: flags.maxResamples,
				Seed:         flags.seed,
				StopOnFail:   flags.stopOnFail,
			})
			if err != nil {
				return err
			}
			dir := flags.dir
			if dir == "" {
				if dir, err = engine.ScratchDir(flags.target); err != nil {
					return err
				}
			}
			names := make([]string, 0, len(art.Files))
			for name := range art.Files {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if err := os.WriteFile(filepath.Join(dir, name), art.Files[name], 0o644); err != nil {
					return errors.Wrapf(err, "write %s", name)
				}
				log.Info("wrote artifact file", "file", filepath.Join(dir, name))
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
	addCycleFlags(cmd)
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "lower, run and report",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := logger()
			if err != nil {
				return err
			}
			defer closeLog()

			m, actions, err := record()
			if err != nil {
				return err
			}
			opts := []engine.Option{
				engine.WithLogger(log),
				engine.WithSeed(flags.seed),
				engine.WithMaxResamples(flags.maxResamples),
				engine.WithSources(flags.sources...),
			}
			if flags.dir != "" {
				opts = append(opts, engine.WithDir(flags.dir))
			}
			if flags.stopOnFail {
				opts = append(opts, engine.WithStopOnFail())
			}
			if flags.skipRegen {
				opts = append(opts, engine.WithSkipRegen())
			}
			if flags.timeout != "" {
				d, err := time.ParseDuration(flags.timeout)
				if err != nil {
					return errors.Wrap(err, "bad timeout")
				}
				opts = append(opts, engine.WithTimeout(d))
			}
			if flags.behavior != "" {
				eng, err := behaviorEngine(flags.behavior, flags.target)
				if err != nil {
					return err
				}
				opts = append(opts, engine.WithEngine(eng))
			}

			rep, err := engine.CompileAndRun(cmd.Context(), m, actions, flags.target, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rep.String())
			if rep.Outcome != fault.Pass {
				return errReportFailed
			}
			return nil
		},
	}
	addCycleFlags(cmd)
	cmd.Flags().StringVar(&flags.timeout, "timeout", "", "engine timeout, e.g. 30s")
	cmd.Flags().StringVar(&flags.behavior, "behavior", "",
		"run in-process against a built-in device model (passthrough, and2, adder, toggle)")
	cmd.Flags().StringSliceVar(&flags.sources, "source", nil, "device HDL file for the external engines")
	cmd.Flags().BoolVar(&flags.skipRegen, "skip-regen", false, "keep pre-placed artifact files")
	return cmd
}

func addCycleFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "constrained-random seed")
	cmd.Flags().IntVar(&flags.maxResamples, "max-resamples", 0,
		fmt.Sprintf("rejection sampling bound per assumption (default %d)", lower.DefaultMaxResamples))
	cmd.Flags().BoolVar(&flags.stopOnFail, "stop-on-fail", false, "abort at the first failed check")
}

func behaviorEngine(name, target string) (engine.Engine, error) {
	var dut engine.Evaluator
	switch name {
	case "passthrough":
		dut = &bench.Passthrough{}
	case "and2":
		dut = bench.And2{}
	case "adder":
		dut = &bench.Adder{}
	case "toggle":
		dut = &bench.ToggleFF{}
	default:
		return nil, errors.Errorf("unknown behavior %q", name)
	}
	if target == lower.TargetFormal {
		return engine.NewExhaust(dut), nil
	}
	return engine.NewInterp(dut), nil
}
