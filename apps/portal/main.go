// Command portal is the terminal front end of the LMS: one sub-command per page.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/portal"
	"github.com/trezcool/masomo-portal/storage/local"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var exitCode int
	err := newContainer().Invoke(func(logger core.Logger, persist *local.BoltStore, deps portal.Deps) {
		defer func() {
			if err := persist.Close(); err != nil {
				logger.Warn("closing storage", err)
			}
		}()

		deps.Session.Restore()
		cli := commandLine{deps: deps, out: os.Stdout}
		if err := cli.run(ctx, os.Args); err != nil {
			if err != errHelp {
				fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
			}
			exitCode = 1
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		exitCode = 1
	}
	stop()
	os.Exit(exitCode)
}
