package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

type courseApi struct {
	apiDeps
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps apiDeps) {
	api := courseApi{deps}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, editorMiddleware())
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, editorMiddleware())
}

// paramID reads the `:id` path parameter; a malformed id is a 404.
func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func (api *courseApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.db.ListCourses())
}

func (api *courseApi) create(ctx echo.Context) error {
	var data lms.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	data.Title = core.CleanString(data.Title)
	if err := api.validateStruct(data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, api.db.CreateCourse(data))
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	course, err := api.db.GetCourse(id)
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *courseApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data lms.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	course, err := api.db.UpdateCourse(id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, course)
}
