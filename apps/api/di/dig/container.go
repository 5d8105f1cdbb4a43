package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/masomo-portal/apps/api/echo"
	"github.com/trezcool/masomo-portal/core"
	logsvc "github.com/trezcool/masomo-portal/services/logger"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	db *inmemdb.DB,
	validate *validator.Validate,
	translator ut.Translator,
) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Address:            conf.Server.Address,
		AppName:            conf.AppName,
		SecretKey:          conf.Server.SecretKey,
		JWTExpirationDelta: conf.Server.JWTExpirationDelta,
		Debug:              conf.Debug,
		TestMode:           conf.TestMode,
		DB:                 db,
		Logger:             logger,
		Validate:           validate,
		Translator:         translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(inmemdb.Open))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(core.NewValidate))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
