// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package engine executes lowered artifacts and normalizes heterogeneous
backend output into the unified report shape. External engines (Verilator,
Icarus Verilog, an SMT solver) invoke binaries inside a scratch directory;
the in-process engines (Interp, Exhaust) execute the structured artifact
directly against a functional device model and need no external tools.
*/
package engine

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/lower"
)

// A Result is an engine's normalized run outcome: the violated checks, if
// any, plus raw output kept for diagnostics.
type Result struct {
	Failures []fault.Failure
	Output   string
}

// An Engine runs one artifact inside a working directory. Run returns an
// error only for resource problems (missing binary, compile failure,
// unusable output); verification failures are data, not errors.
type Engine interface {
	Name() string
	Run(ctx context.Context, art *lower.Artifact, dir string) (*Result, error)
}

// Options configure one compile-and-run cycle.
type Options struct {
	// Dir overrides the generated scratch directory.
	Dir string
	// SkipRegen keeps pre-placed files instead of regenerating them,
	// supporting hand-written implementations behind a declared-only
	// interface.
	SkipRegen bool
	// Sources are extra implementation files copied into the scratch
	// directory before the run.
	Sources []string

	// MaxResamples, Seed and StopOnFail are passed through to lowering.
	MaxResamples int
	Seed         int64
	StopOnFail   bool

	// Timeout bounds the engine invocation. Exceeding it yields a Timeout
	// outcome, never Pass.
	Timeout time.Duration

	// Engine overrides the target's default engine.
	Engine Engine
	// Simulator and Solver override the default external binaries.
	Simulator string
	Solver    string

	Logger *slog.Logger
}

// An Option mutates Options.
type Option func(*Options)

// WithDir overrides the scratch directory.
func WithDir(dir string) Option { return func(o *Options) { o.Dir = dir } }

// WithSkipRegen keeps pre-placed artifact files.
func WithSkipRegen() Option { return func(o *Options) { o.SkipRegen = true } }

// WithSources copies implementation files into the scratch directory.
func WithSources(paths ...string) Option {
	return func(o *Options) { o.Sources = append(o.Sources, paths...) }
}

// WithMaxResamples overrides the rejection-sampling bound for assumptions.
func WithMaxResamples(n int) Option { return func(o *Options) { o.MaxResamples = n } }

// WithSeed seeds the constrained-random sampler.
func WithSeed(seed int64) Option { return func(o *Options) { o.Seed = seed } }

// WithStopOnFail aborts the action sequence at the first failed check.
func WithStopOnFail() Option { return func(o *Options) { o.StopOnFail = true } }

// WithTimeout bounds the engine invocation.
func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }

// WithEngine overrides the target's default engine, e.g. to run a
// simulation program in-process with Interp.
func WithEngine(e Engine) Option { return func(o *Options) { o.Engine = e } }

// WithSimulator overrides the simulator binary.
func WithSimulator(bin string) Option { return func(o *Options) { o.Simulator = bin } }

// WithSolver overrides the SMT solver binary.
func WithSolver(bin string) Option { return func(o *Options) { o.Solver = bin } }

// WithLogger sets the coordinator's logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// CompileAndRun snapshots nothing itself: it takes the recorded actions,
// lowers them for the named target, writes the artifact into a scratch
// directory, runs the target's engine and normalizes the outcome.
//
// Structural lowering errors are returned as Go errors: they indicate a
// broken test, not a broken device. Everything the engine reports, from
// verification failures to timeouts and missing binaries, lands in the Report.
func CompileAndRun(ctx context.Context, m *fault.Model, actions []fault.Action, target string, opts ...Option) (fault.Report, error) {
	o := &Options{Logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	start := time.Now()
	rep := fault.Report{Target: target}

	art, err := lower.Lower(m, actions, target, lower.Options{
		MaxResamples: o.MaxResamples,
		Seed:         o.Seed,
		StopOnFail:   o.StopOnFail,
	})
	if err != nil {
		var unsat *lower.UnsatError
		if errors.As(err, &unsat) {
			// an unsatisfiable assumption is a verification failure,
			// reported in the same shape as any other
			rep.Outcome = fault.Fail
			rep.Failures = []fault.Failure{{
				Action:  unsat.Action,
				Path:    unsat.Paths,
				Message: unsat.Error(),
			}}
			rep.Elapsed = time.Since(start)
			return rep, nil
		}
		return rep, err
	}

	dir := o.Dir
	if dir == "" {
		dir, err = ScratchDir(target)
		if err != nil {
			return rep, err
		}
	}
	if err := writeArtifact(art, dir, o); err != nil {
		return rep, err
	}

	eng := o.Engine
	if eng == nil {
		eng = defaultEngine(target, o)
	}

	runCtx := ctx
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	o.Logger.Debug("running engine", "engine", eng.Name(), "target", target, "dir", dir)

	res, err := eng.Run(runCtx, art, dir)
	rep.Elapsed = time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			rep.Outcome = fault.Timeout
			rep.Diagnostics = err.Error()
			return rep, nil
		}
		rep.Outcome = fault.EngineError
		rep.Diagnostics = err.Error()
		return rep, nil
	}

	rep.Failures = res.Failures
	if len(res.Failures) > 0 {
		rep.Outcome = fault.Fail
	} else {
		rep.Outcome = fault.Pass
	}
	return rep, nil
}

func defaultEngine(target string, o *Options) Engine {
	switch target {
	case lower.TargetCompiled:
		return &Verilator{Bin: o.Simulator, Sources: sourceNames(o)}
	case lower.TargetEvent:
		return &Icarus{Bin: o.Simulator, Sources: sourceNames(o)}
	default:
		return &Solver{Bin: o.Solver}
	}
}

func sourceNames(o *Options) []string {
	names := make([]string, 0, len(o.Sources))
	for _, s := range o.Sources {
		names = append(names, filepath.Base(s))
	}
	return names
}

// ScratchDir creates a fresh scratch directory for one cycle. Artifacts and
// engine side effects are confined to it; the model and action log are
// never touched.
func ScratchDir(target string) (string, error) {
	dir := filepath.Join(os.TempDir(), "fault-"+target+"-"+uuid.NewString()[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create scratch directory")
	}
	return dir, nil
}

func writeArtifact(art *lower.Artifact, dir string, o *Options) error {
	names := make([]string, 0, len(art.Files))
	for name := range art.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if o.SkipRegen {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		if err := os.WriteFile(path, art.Files[name], 0o644); err != nil {
			return errors.Wrapf(err, "write %s", name)
		}
	}
	for _, src := range o.Sources {
		dst := filepath.Join(dir, filepath.Base(src))
		if o.SkipRegen {
			if _, err := os.Stat(dst); err == nil {
				continue
			}
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return errors.Wrapf(err, "read source %s", src)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return errors.Wrapf(err, "copy source %s", src)
		}
	}
	return nil
}

// runCmd runs one external command inside dir and returns its combined
// output. Context cancellation wins over the command's own exit error.
func runCmd(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return string(out), ctx.Err()
	}
	if err != nil {
		return string(out), errors.Wrapf(err, "%s", name)
	}
	return string(out), nil
}
