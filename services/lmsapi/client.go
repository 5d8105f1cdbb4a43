// Package lmsapi is the JSON-over-HTTP implementation of lms.API.
package lmsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

const (
	headerRequestID   = "X-Request-ID"
	contentTypeJSON   = "application/json"
	maxErrorBodyBytes = 4 << 10
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Token returns the bearer token to send; empty means no Authorization header.
	Token      func() string
	Logger     core.Logger
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
	logger  core.Logger
}

var _ lms.API = (*Client)(nil) // interface compliance check

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Token == nil {
		opts.Token = func() string { return "" }
	}
	if opts.Logger == nil {
		opts.Logger = core.NopLogger{}
	}
	return &Client{
		baseURL: opts.BaseURL,
		http:    hc,
		token:   opts.Token,
		logger:  opts.Logger,
	}
}

// do sends a JSON request and decodes a 2xx JSON response into out (when not nil).
// Any other status is returned as a *lms.RequestError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	reqID := uuid.New().String()
	req.Header.Set(headerRequestID, reqID)
	req.Header.Set("Accept", contentTypeJSON)
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() {
		if cErr := resp.Body.Close(); cErr != nil {
			c.logger.Warn("closing response body", errors.Wrap(cErr, "closing response body"))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		reqErr := &lms.RequestError{Method: method, Path: path, Status: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
		c.logger.Debug("request failed", reqErr, map[string]interface{}{"requestId": reqID})
		return reqErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

func idPath(prefix string, id int, suffix ...string) string {
	p := prefix + "/" + strconv.Itoa(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// Auth

func (c *Client) Authenticate(ctx context.Context, creds lms.Credentials) (lms.AuthResult, error) {
	var res lms.AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &res)
	return res, err
}

func (c *Client) CreateAccount(ctx context.Context, acct lms.NewAccount) (lms.AccountResult, error) {
	var res lms.AccountResult
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, acct, &res)
	return res, err
}

// Announcements

func (c *Client) ListAnnouncements(ctx context.Context) ([]lms.Announcement, error) {
	var res []lms.Announcement
	err := c.do(ctx, http.MethodGet, "/announcements", nil, nil, &res)
	return res, err
}

func (c *Client) CreateAnnouncement(ctx context.Context, na lms.NewAnnouncement) (lms.Announcement, error) {
	var res lms.Announcement
	err := c.do(ctx, http.MethodPost, "/announcements", nil, na, &res)
	return res, err
}

// Assignments

func (c *Client) ListAssignments(ctx context.Context) ([]lms.Assignment, error) {
	var res []lms.Assignment
	err := c.do(ctx, http.MethodGet, "/assignments", nil, nil, &res)
	return res, err
}

func (c *Client) GetAssignment(ctx context.Context, id int) (lms.Assignment, error) {
	var res lms.Assignment
	err := c.do(ctx, http.MethodGet, idPath("/assignments", id), nil, nil, &res)
	return res, err
}

func (c *Client) CreateAssignment(ctx context.Context, na lms.NewAssignment) (lms.Assignment, error) {
	var res lms.Assignment
	err := c.do(ctx, http.MethodPost, "/assignments", nil, na, &res)
	return res, err
}

// Submissions

func (c *Client) GetMySubmission(ctx context.Context, assignmentID int) (*lms.Submission, error) {
	var res *lms.Submission
	if err := c.do(ctx, http.MethodGet, idPath("/assignments", assignmentID, "submission"), nil, nil, &res); err != nil {
		if lms.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

func (c *Client) SubmitAssignment(ctx context.Context, assignmentID int, sa lms.SubmitAssignment) (lms.SubmitResult, error) {
	var res lms.SubmitResult
	err := c.do(ctx, http.MethodPost, idPath("/assignments", assignmentID, "submissions"), nil, sa, &res)
	return res, err
}

func (c *Client) ListSubmissions(ctx context.Context, filter lms.SubmissionFilter) ([]lms.Submission, error) {
	query := make(url.Values)
	if filter.CourseID != 0 {
		query.Set("courseId", strconv.Itoa(filter.CourseID))
	}
	if filter.AssignmentID != 0 {
		query.Set("assignmentId", strconv.Itoa(filter.AssignmentID))
	}
	var res []lms.Submission
	err := c.do(ctx, http.MethodGet, "/submissions", query, nil, &res)
	return res, err
}

// Courses

func (c *Client) ListCourses(ctx context.Context) ([]lms.Course, error) {
	var res []lms.Course
	err := c.do(ctx, http.MethodGet, "/courses", nil, nil, &res)
	return res, err
}

func (c *Client) GetCourse(ctx context.Context, id int) (lms.Course, error) {
	var res lms.Course
	err := c.do(ctx, http.MethodGet, idPath("/courses", id), nil, nil, &res)
	return res, err
}

func (c *Client) CreateCourse(ctx context.Context, nc lms.NewCourse) (lms.Course, error) {
	var res lms.Course
	err := c.do(ctx, http.MethodPost, "/courses", nil, nc, &res)
	return res, err
}

func (c *Client) UpdateCourse(ctx context.Context, id int, uc lms.UpdateCourse) (lms.Course, error) {
	var res lms.Course
	err := c.do(ctx, http.MethodPut, idPath("/courses", id), nil, uc, &res)
	return res, err
}

// Gradebook

func (c *Client) ListGradebook(ctx context.Context) ([]lms.GradebookEntry, error) {
	var res []lms.GradebookEntry
	err := c.do(ctx, http.MethodGet, "/gradebook", nil, nil, &res)
	return res, err
}

func (c *Client) CreateGradebookEntry(ctx context.Context, ne lms.NewGradebookEntry) (lms.GradebookEntry, error) {
	var res lms.GradebookEntry
	err := c.do(ctx, http.MethodPost, "/gradebook", nil, ne, &res)
	return res, err
}

func (c *Client) UpdateGradebookEntry(ctx context.Context, id int, ue lms.UpdateGradebookEntry) (lms.GradebookEntry, error) {
	var res lms.GradebookEntry
	err := c.do(ctx, http.MethodPut, idPath("/gradebook", id), nil, ue, &res)
	return res, err
}

// Students

func (c *Client) ListStudents(ctx context.Context) ([]lms.Student, error) {
	var res []lms.Student
	err := c.do(ctx, http.MethodGet, "/students", nil, nil, &res)
	return res, err
}
