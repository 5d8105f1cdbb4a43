package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

type announcementApi struct {
	apiDeps
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps apiDeps) {
	api := announcementApi{deps}

	ag := g.Group("/announcements", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, editorMiddleware())
}

func (api *announcementApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.db.ListAnnouncements())
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data lms.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	data.Title = core.CleanString(data.Title)
	return ctx.JSON(http.StatusCreated, api.db.CreateAnnouncement(data))
}
