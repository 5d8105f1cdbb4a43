package portal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core/lms"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/storage/local"
)

// fakeAPI serves canned data and records the calls it gets.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error // method => error returned
	wait  map[string]chan struct{}

	courses       []lms.Course
	assignments   []lms.Assignment
	submissions   []lms.Submission
	mine          *lms.Submission
	gradebook     []lms.GradebookEntry
	announcements []lms.Announcement
	students      []lms.Student
	rejectSubmit  bool

	gotSubmit  lms.SubmitAssignment
	gotGrade   lms.NewGradebookEntry
	gotFilters []lms.SubmissionFilter
	nextID     int
}

var _ lms.API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls: make(map[string]int),
		errs:  make(map[string]error),
		wait:  make(map[string]chan struct{}),
		courses: []lms.Course{
			{ID: 2, Title: "Physics", Description: "forces"},
			{ID: 1, Title: "Math", Description: "numbers"},
		},
		assignments: []lms.Assignment{
			{ID: 3, Title: "Lab 1", CourseID: 2},
			{ID: 2, Title: "HW2", CourseID: 1},
			{ID: 1, Title: "HW1", CourseID: 1},
		},
		nextID: 100,
	}
}

// call records method, then waits for its release when blocked.
func (api *fakeAPI) call(ctx context.Context, method string) error {
	api.mu.Lock()
	api.calls[method]++
	err := api.errs[method]
	wait := api.wait[method]
	api.mu.Unlock()
	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (api *fakeAPI) block(method string) chan struct{} {
	api.mu.Lock()
	defer api.mu.Unlock()
	ch := make(chan struct{})
	api.wait[method] = ch
	return ch
}

func (api *fakeAPI) fail(method string, err error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.errs[method] = err
}

func (api *fakeAPI) count(method string) int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.calls[method]
}

func (api *fakeAPI) id() int {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.nextID++
	return api.nextID
}

func (api *fakeAPI) Authenticate(ctx context.Context, creds lms.Credentials) (lms.AuthResult, error) {
	if err := api.call(ctx, "Authenticate"); err != nil {
		return lms.AuthResult{}, err
	}
	role, ok := map[string]string{
		"admin@test.cd":   lms.RoleAdmin,
		"teacher@test.cd": lms.RoleTeacher,
		"student@test.cd": lms.RoleStudent,
	}[creds.Email]
	if !ok || creds.Password != "pwd" {
		return lms.AuthResult{OK: false}, nil
	}
	return lms.AuthResult{OK: true, User: &lms.User{Email: creds.Email, Role: role}, Token: "tok-" + role}, nil
}

func (api *fakeAPI) CreateAccount(ctx context.Context, _ lms.NewAccount) (lms.AccountResult, error) {
	if err := api.call(ctx, "CreateAccount"); err != nil {
		return lms.AccountResult{}, err
	}
	return lms.AccountResult{OK: true}, nil
}

func (api *fakeAPI) ListAnnouncements(ctx context.Context) ([]lms.Announcement, error) {
	if err := api.call(ctx, "ListAnnouncements"); err != nil {
		return nil, err
	}
	return api.announcements, nil
}

func (api *fakeAPI) CreateAnnouncement(ctx context.Context, na lms.NewAnnouncement) (lms.Announcement, error) {
	if err := api.call(ctx, "CreateAnnouncement"); err != nil {
		return lms.Announcement{}, err
	}
	return lms.Announcement{ID: api.id(), Title: na.Title, Body: na.Body}, nil
}

func (api *fakeAPI) ListAssignments(ctx context.Context) ([]lms.Assignment, error) {
	if err := api.call(ctx, "ListAssignments"); err != nil {
		return nil, err
	}
	return api.assignments, nil
}

func (api *fakeAPI) GetAssignment(ctx context.Context, id int) (lms.Assignment, error) {
	if err := api.call(ctx, "GetAssignment"); err != nil {
		return lms.Assignment{}, err
	}
	for _, a := range api.assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return lms.Assignment{}, &lms.RequestError{Method: "GET", Path: "/assignments", Status: 404}
}

func (api *fakeAPI) CreateAssignment(ctx context.Context, na lms.NewAssignment) (lms.Assignment, error) {
	if err := api.call(ctx, "CreateAssignment"); err != nil {
		return lms.Assignment{}, err
	}
	return lms.Assignment{ID: api.id(), Title: na.Title, Due: na.Due, CourseID: na.CourseID, Description: na.Description}, nil
}

func (api *fakeAPI) GetMySubmission(ctx context.Context, _ int) (*lms.Submission, error) {
	if err := api.call(ctx, "GetMySubmission"); err != nil {
		return nil, err
	}
	return api.mine, nil
}

func (api *fakeAPI) SubmitAssignment(ctx context.Context, assignmentID int, sa lms.SubmitAssignment) (lms.SubmitResult, error) {
	if err := api.call(ctx, "SubmitAssignment"); err != nil {
		return lms.SubmitResult{}, err
	}
	api.mu.Lock()
	api.gotSubmit = sa
	reject := api.rejectSubmit
	api.mu.Unlock()
	if reject {
		return lms.SubmitResult{OK: false}, nil
	}
	sub := &lms.Submission{ID: api.id(), AssignmentID: assignmentID, File: sa.File, Text: sa.Text, SubmittedAt: time.Now()}
	return lms.SubmitResult{OK: true, Submission: sub}, nil
}

func (api *fakeAPI) ListSubmissions(ctx context.Context, filter lms.SubmissionFilter) ([]lms.Submission, error) {
	api.mu.Lock()
	api.gotFilters = append(api.gotFilters, filter)
	api.mu.Unlock()
	if err := api.call(ctx, "ListSubmissions"); err != nil {
		return nil, err
	}
	subs := make([]lms.Submission, 0)
	for _, s := range api.submissions {
		if (filter.CourseID == 0 || s.CourseID == filter.CourseID) && (filter.AssignmentID == 0 || s.AssignmentID == filter.AssignmentID) {
			subs = append(subs, s)
		}
	}
	return subs, nil
}

func (api *fakeAPI) ListCourses(ctx context.Context) ([]lms.Course, error) {
	if err := api.call(ctx, "ListCourses"); err != nil {
		return nil, err
	}
	return api.courses, nil
}

func (api *fakeAPI) GetCourse(ctx context.Context, id int) (lms.Course, error) {
	if err := api.call(ctx, "GetCourse"); err != nil {
		return lms.Course{}, err
	}
	for _, c := range api.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return lms.Course{}, &lms.RequestError{Method: "GET", Path: "/courses", Status: 404}
}

func (api *fakeAPI) CreateCourse(ctx context.Context, nc lms.NewCourse) (lms.Course, error) {
	if err := api.call(ctx, "CreateCourse"); err != nil {
		return lms.Course{}, err
	}
	return lms.Course{ID: api.id(), Title: nc.Title, Description: nc.Description, Overview: nc.Overview, Resources: nc.Resources}, nil
}

func (api *fakeAPI) UpdateCourse(ctx context.Context, id int, uc lms.UpdateCourse) (lms.Course, error) {
	course, err := api.GetCourse(ctx, id)
	if err != nil {
		return lms.Course{}, err
	}
	if err := api.call(ctx, "UpdateCourse"); err != nil {
		return lms.Course{}, err
	}
	course.Overview, course.Resources = uc.Overview, uc.Resources
	return course, nil
}

func (api *fakeAPI) ListGradebook(ctx context.Context) ([]lms.GradebookEntry, error) {
	if err := api.call(ctx, "ListGradebook"); err != nil {
		return nil, err
	}
	return api.gradebook, nil
}

func (api *fakeAPI) CreateGradebookEntry(ctx context.Context, ne lms.NewGradebookEntry) (lms.GradebookEntry, error) {
	if err := api.call(ctx, "CreateGradebookEntry"); err != nil {
		return lms.GradebookEntry{}, err
	}
	api.mu.Lock()
	api.gotGrade = ne
	api.mu.Unlock()
	return lms.GradebookEntry{ID: api.id(), Course: ne.Course, Assignment: ne.Assignment, StudentEmail: ne.StudentEmail, Grade: ne.Grade, Feedback: ne.Feedback}, nil
}

func (api *fakeAPI) UpdateGradebookEntry(ctx context.Context, id int, ue lms.UpdateGradebookEntry) (lms.GradebookEntry, error) {
	if err := api.call(ctx, "UpdateGradebookEntry"); err != nil {
		return lms.GradebookEntry{}, err
	}
	for _, e := range api.gradebook {
		if e.ID == id {
			e.Grade, e.Feedback = ue.Grade, ue.Feedback
			return e, nil
		}
	}
	return lms.GradebookEntry{}, &lms.RequestError{Method: "PUT", Path: "/gradebook", Status: 404}
}

func (api *fakeAPI) ListStudents(ctx context.Context) ([]lms.Student, error) {
	if err := api.call(ctx, "ListStudents"); err != nil {
		return nil, err
	}
	return api.students, nil
}

// newDeps returns page deps backed by api, logged in as role ("" for nobody).
func newDeps(t *testing.T, api *fakeAPI, role string) Deps {
	t.Helper()
	store := session.NewStore(api, local.NewMemoryStore(), session.Options{})
	store.Restore()
	if role != "" {
		ok, err := store.Login(context.Background(), role+"@test.cd", "pwd")
		require.NoError(t, err)
		require.True(t, ok)
	}
	api.mu.Lock()
	api.calls = make(map[string]int) // forget the login
	api.mu.Unlock()
	return Deps{API: api, Session: store}
}
