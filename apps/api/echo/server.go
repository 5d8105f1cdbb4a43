// Package echoapi is the development LMS backend: the portal's REST contract served
// from memory, with JWT auth and editor-only writes.
package echoapi

import (
	"context"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/masomo-portal/core"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
)

type (
	Options struct {
		Address            string
		AppName            string
		SecretKey          string
		JWTExpirationDelta time.Duration
		Debug              bool
		TestMode           bool
		DisableReqLogs     bool

		DB         *inmemdb.DB
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
		// Tokens issues tokens the server accepts.
		Tokens() *Tokenizer
	}

	server struct {
		opts   *Options
		app    *echo.Echo
		tokens *Tokenizer
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Logger == nil {
		opts.Logger = core.NopLogger{}
	}
	if opts.Translator == nil {
		opts.Translator = core.NewTranslator()
	}
	if opts.Validate == nil {
		opts.Validate = core.NewValidate(opts.Translator)
	}
	if opts.DB == nil {
		opts.DB = inmemdb.Open()
	}
	s := &server{
		opts:   opts,
		app:    echo.New(),
		tokens: NewTokenizer(opts.AppName, opts.SecretKey, opts.JWTExpirationDelta),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.RequestID())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)

	g := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(s.tokens.jwtConfig())

	deps := apiDeps{
		db:         s.opts.DB,
		validate:   s.opts.Validate,
		translator: s.opts.Translator,
		tokens:     s.tokens,
	}
	registerAccountAPI(g, jwt, deps)
	registerCourseAPI(g, jwt, deps)
	registerAssignmentAPI(g, jwt, deps)
	registerGradebookAPI(g, jwt, deps)
	registerAnnouncementAPI(g, jwt, deps)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Tokens() *Tokenizer {
	return s.tokens
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Masomo API!")
}

// apiDeps is what every resource API needs.
type apiDeps struct {
	db         *inmemdb.DB
	validate   *validator.Validate
	translator ut.Translator
	tokens     *Tokenizer
}

func (d apiDeps) validateStruct(s interface{}) error {
	return core.ValidateStruct(d.validate, d.translator, s)
}
