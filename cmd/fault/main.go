// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

// Command fault lowers and runs YAML-described tests: a circuit interface
// description plus an action script, lowered for one of the supported
// targets and optionally run through the target's engine.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		if errors.Is(err, errReportFailed) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "fault:", err)
		os.Exit(1)
	}
}

var flags struct {
	iface   string
	script  string
	clock   string
	target  string
	dir     string
	logFile string
	verbose bool

	seed         int64
	maxResamples int
	timeout      string
	stopOnFail   bool
	behavior     string
	sources      []string
	skipRegen    bool
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fault",
		Short:         "lower and run hardware tests from YAML descriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&flags.iface, "iface", "i", "", "circuit interface description (YAML)")
	pf.StringVarP(&flags.script, "script", "s", "", "action script (YAML)")
	pf.StringVar(&flags.clock, "clock", "", "clock port path for step actions")
	pf.StringVarP(&flags.target, "target", "t", "compiled-simulation", "lowering target")
	pf.StringVarP(&flags.dir, "dir", "d", "", "artifact directory (default: a scratch directory)")
	pf.StringVar(&flags.logFile, "log-json", "", "append JSON logs to this file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	root.MarkPersistentFlagRequired("iface")
	root.MarkPersistentFlagRequired("script")

	root.AddCommand(lowerCmd(), runCmd())
	return root
}

// logger builds the process logger: human-readable text on stderr, plus a
// JSON fan-out when --log-json is set.
func logger() (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	text := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if flags.logFile == "" {
		return slog.New(text), func() {}, nil
	}
	f, err := os.OpenFile(flags.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	h := slogmulti.Fanout(text, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return slog.New(h), func() { f.Close() }, nil
}
