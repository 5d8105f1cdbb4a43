package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

type gradebookApi struct {
	apiDeps
}

func registerGradebookAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps apiDeps) {
	api := gradebookApi{deps}

	gg := g.Group("/gradebook", jwt)
	gg.GET("", api.query)
	gg.POST("", api.create, editorMiddleware())
	gg.PUT("/:id", api.update, editorMiddleware())
}

// query lists every entry for editors, and only their own for students.
func (api *gradebookApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var studentEmail string
	if !claims.IsEditor() {
		studentEmail = claims.Email
	}
	return ctx.JSON(http.StatusOK, api.db.ListGradebook(studentEmail))
}

func (api *gradebookApi) create(ctx echo.Context) error {
	var data lms.NewGradebookEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGradebookEntry")
	}
	data.StudentEmail = core.CleanString(data.StudentEmail, true /* lower */)
	if err := api.validateStruct(data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, api.db.CreateGradebookEntry(data))
}

func (api *gradebookApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data lms.UpdateGradebookEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGradebookEntry")
	}
	if err := api.validateStruct(data); err != nil {
		return err
	}
	entry, err := api.db.UpdateGradebookEntry(id, data)
	if err != nil {
		return errors.Wrap(err, "updating gradebook entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}
