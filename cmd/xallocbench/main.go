// Command xallocbench runs a node churn workload through the recycling
// allocator and optionally exports the pool metrics.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap/zapcore"
)

func main() {
	opts, err := parseFlags(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := newLogger(opts)

	if !opts.disableMaxProc {
		undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			logger.Logf(zapcore.InfoLevel, format, args...)
		}))
		defer undo()
		if err != nil {
			logger.Warn("automaxprocs: " + err.Error())
		}
	}

	// Blocks until the workload finishes or a signal arrives, exits with
	// the code of the workload.
	newApp(opts, logger).Run()
}
