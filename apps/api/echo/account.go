package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

const errNoPermsToSetRole = "not enough rights to set this role"

type accountApi struct {
	apiDeps
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps apiDeps) {
	api := accountApi{deps}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/register", api.register, jwt, editorMiddleware())

	g.GET("/students", api.queryStudents, jwt, editorMiddleware())
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (api *accountApi) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validateStruct(data); err != nil {
		return err
	}

	usr, err := authenticate(api.db, data.Email, data.Password)
	if err != nil {
		return err
	}
	token, err := api.tokens.Generate(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, lms.AuthResult{OK: true, User: &usr, Token: token})
}

// rolePriority ranks roles; an editor cannot create an account above their own rank.
var rolePriority = map[string]int{
	lms.RoleStudent: 1,
	lms.RoleTeacher: 2,
	lms.RoleAdmin:   3,
}

func (api *accountApi) register(ctx echo.Context) error {
	var data lms.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	data.Role = core.CleanString(data.Role, true /* lower */)
	if err := api.validateStruct(data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if rolePriority[data.Role] > rolePriority[claims.Role] {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: errNoPermsToSetRole})
	}

	if _, err := api.db.CreateAccount(data.Email, data.Password, data.Role); err != nil {
		return errors.Wrap(err, "creating account")
	}
	return ctx.JSON(http.StatusCreated, lms.AccountResult{OK: true})
}

func (api *accountApi) queryStudents(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.db.ListStudents())
}
