package echoapi

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
)

type assignmentApi struct {
	apiDeps
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps apiDeps) {
	api := assignmentApi{deps}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, editorMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/submission", api.retrieveMySubmission)
	ag.POST("/:id/submissions", api.submit)

	g.GET("/submissions", api.querySubmissions, jwt, editorMiddleware())
}

func (api *assignmentApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.db.ListAssignments())
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data lms.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	data.Title = core.CleanString(data.Title)
	if data.Due != nil && *data.Due == "" {
		data.Due = nil
	}
	if err := api.validateStruct(data); err != nil {
		return err
	}
	asgmt, err := api.db.CreateAssignment(data)
	if err != nil {
		if errors.Cause(err) == inmemdb.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "courseId", Error: "course not found"})
		}
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asgmt)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	asgmt, err := api.db.GetAssignment(id)
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	return ctx.JSON(http.StatusOK, asgmt)
}

func (api *assignmentApi) retrieveMySubmission(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	sub, err := api.db.GetLatestSubmission(id, claims.Email)
	if err != nil {
		return errors.Wrap(err, "finding submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data lms.SubmitAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitAssignment")
	}
	if data.File != nil && data.File.Data != "" {
		if _, err := base64.StdEncoding.DecodeString(data.File.Data); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file data must be base64"})
		}
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.db.CreateSubmission(id, claims.Email, data)
	if err != nil {
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, lms.SubmitResult{OK: true, Submission: &sub})
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	var filter lms.SubmissionFilter
	// unparsable filters match nothing rather than everything
	for param, dst := range map[string]*int{"courseId": &filter.CourseID, "assignmentId": &filter.AssignmentID} {
		raw := ctx.QueryParam(param)
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return ctx.JSON(http.StatusOK, []lms.Submission{})
		}
		*dst = id
	}
	return ctx.JSON(http.StatusOK, api.db.ListSubmissions(filter))
}
