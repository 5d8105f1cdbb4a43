// Command api serves the LMS REST contract from memory for local development of the portal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	dig_container "github.com/trezcool/masomo-portal/apps/api/di/dig"
	echoapi "github.com/trezcool/masomo-portal/apps/api/echo"
	"github.com/trezcool/masomo-portal/core"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
)

func main() {
	seed := flag.Bool("seed", true, "create demo accounts and content")
	flag.Parse()

	c := dig_container.New()

	must(c.Invoke(func(conf *core.Config, logger core.Logger, db *inmemdb.DB, server echoapi.Server) {
		logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
		defer logger.Info("Application stopped")

		if *seed {
			if err := seedDB(db); err != nil {
				logger.Fatal(fmt.Sprintf("seeding database: %v", err), err)
			}
			logger.Info("Seeded demo accounts", map[string]interface{}{"accounts": demoAccounts})
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info(fmt.Sprintf("Listening on %s", conf.Server.Address))
			serverErrors <- server.Start()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if err != nil && err != http.ErrServerClosed {
				logger.Fatal(fmt.Sprintf("server error: %v", err), err)
			}

		case sig := <-shutdown:
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Stop(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
