package main

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/portal"
	"github.com/trezcool/masomo-portal/services/lmsapi"
	logsvc "github.com/trezcool/masomo-portal/services/logger"
	"github.com/trezcool/masomo-portal/storage/local"
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stderr, "PORTAL : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newPersistence(conf *core.Config) (*local.BoltStore, error) {
	return local.OpenBolt(conf.Storage.Path)
}

// newSession wires the session store and the API client: the client reads its bearer
// token from the store, the store logs in through the client.
func newSession(
	conf *core.Config,
	logger core.Logger,
	persist *local.BoltStore,
	validate *validator.Validate,
	translator ut.Translator,
) (*session.Store, lms.API) {
	var store *session.Store
	api := lmsapi.New(lmsapi.Options{
		BaseURL: conf.API.BaseURL,
		Timeout: conf.API.RequestTimeout,
		Token:   func() string { return store.Token() },
		Logger:  logger,
	})
	store = session.NewStore(api, persist, session.Options{
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		LoginFallback: conf.Session.LoginFallback,
	})
	return store, api
}

func newPageDeps(
	conf *core.Config,
	logger core.Logger,
	api lms.API,
	store *session.Store,
	validate *validator.Validate,
	translator ut.Translator,
) portal.Deps {
	return portal.Deps{
		API:              api,
		Session:          store,
		Logger:           logger,
		Validate:         validate,
		Translator:       translator,
		StatusTTL:        conf.Portal.StatusTTL,
		FileReleaseDelay: conf.Portal.FileReleaseDelay,
	}
}

// newContainer returns the dependency injection dig.Container of the portal.
func newContainer() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newPersistence))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(core.NewValidate))
	must(c.Provide(newSession))
	must(c.Provide(newPageDeps))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
