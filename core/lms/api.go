package lms

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// API is the request layer the portal depends on: one operation per REST resource.
// Every operation returns the parsed result on success and an error otherwise.
// Errors carry no code the portal branches on; callers fall back to generic messages.
type API interface {
	Authenticate(ctx context.Context, creds Credentials) (AuthResult, error)
	CreateAccount(ctx context.Context, acct NewAccount) (AccountResult, error)

	ListAnnouncements(ctx context.Context) ([]Announcement, error)
	CreateAnnouncement(ctx context.Context, na NewAnnouncement) (Announcement, error)

	ListAssignments(ctx context.Context) ([]Assignment, error)
	GetAssignment(ctx context.Context, id int) (Assignment, error)
	CreateAssignment(ctx context.Context, na NewAssignment) (Assignment, error)

	// GetMySubmission returns nil when the current user has not submitted yet.
	GetMySubmission(ctx context.Context, assignmentID int) (*Submission, error)
	SubmitAssignment(ctx context.Context, assignmentID int, sa SubmitAssignment) (SubmitResult, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)

	ListCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id int) (Course, error)
	CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
	UpdateCourse(ctx context.Context, id int, uc UpdateCourse) (Course, error)

	ListGradebook(ctx context.Context) ([]GradebookEntry, error)
	CreateGradebookEntry(ctx context.Context, ne NewGradebookEntry) (GradebookEntry, error)
	UpdateGradebookEntry(ctx context.Context, id int, ue UpdateGradebookEntry) (GradebookEntry, error)

	ListStudents(ctx context.Context) ([]Student, error)
}

// RequestError is a non-2xx response. Kept for logs only.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (err *RequestError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code %d: %s", err.Method, err.Path, err.Status, err.Body)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	reqErr, ok := errors.Cause(err).(*RequestError)
	return ok && reqErr.Status == http.StatusNotFound
}
