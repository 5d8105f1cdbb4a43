package portal

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

func newSubmissionsAPI() *fakeAPI {
	api := newFakeAPI()
	api.submissions = []lms.Submission{
		{ID: 3, AssignmentID: 3, CourseID: 2, AssignmentTitle: "Lab 1", CourseTitle: "Physics", StudentEmail: "a@test.cd", Text: "e=mc2"},
		{ID: 2, AssignmentID: 2, CourseID: 1, StudentEmail: "b@test.cd"},
		{ID: 1, AssignmentID: 1, CourseID: 1, AssignmentTitle: "HW1", CourseTitle: "Math", StudentEmail: "a@test.cd",
			File: &lms.SubmittedFile{Name: "hw1.txt", Size: 5, Type: "text/plain", Data: base64.StdEncoding.EncodeToString([]byte("hello"))}},
	}
	return api
}

func TestSubmissionsPage_accessDenied(t *testing.T) {
	api := newSubmissionsAPI()
	p := NewSubmissionsPage(newDeps(t, api, "student"))
	require.NoError(t, p.Load(context.Background()))

	assert.Equal(t, "Access denied. Only admins and teachers can view submissions.", p.Banner())
	assert.Zero(t, api.count("ListSubmissions"))
	assert.Zero(t, api.count("ListCourses"))

	_, err := p.Grade(context.Background(), 1, "90", "")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestSubmissionsPage_filters(t *testing.T) {
	api := newSubmissionsAPI()
	p := NewSubmissionsPage(newDeps(t, api, "teacher"))
	require.NoError(t, p.Load(context.Background()))
	assert.Len(t, p.Submissions(), 3)
	assert.Len(t, p.AssignmentChoices(), 3)

	require.NoError(t, p.SelectCourse(context.Background(), 1))
	for _, a := range p.AssignmentChoices() {
		assert.Equal(t, 1, a.CourseID)
	}
	assert.Len(t, p.AssignmentChoices(), 2)
	assert.Len(t, p.Submissions(), 2)

	require.NoError(t, p.SelectAssignment(context.Background(), 1))
	assert.Equal(t, lms.SubmissionFilter{CourseID: 1, AssignmentID: 1}, p.Filter())
	assert.Len(t, p.Submissions(), 1)

	require.NoError(t, p.SelectCourse(context.Background(), 2))
	assert.Equal(t, lms.SubmissionFilter{CourseID: 2}, p.Filter(), "selecting a course resets the assignment")
	assert.Equal(t, []lms.SubmissionFilter{{}, {CourseID: 1}, {CourseID: 1, AssignmentID: 1}, {CourseID: 2}}, api.gotFilters)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	assert.Contains(t, buf.String(), "Course: Physics | Assignment: All assignments")
	assert.Contains(t, buf.String(), "1 submission found")
	assert.Contains(t, buf.String(), "Text: e=mc2")

	require.NoError(t, p.SelectCourse(context.Background(), 42))
	buf.Reset()
	require.NoError(t, p.Render(&buf))
	assert.Contains(t, buf.String(), "0 submissions found")
	assert.Contains(t, buf.String(), "No submissions yet.")
}

func TestSubmissionsPage_loadFailures(t *testing.T) {
	t.Run("filters", func(t *testing.T) {
		api := newSubmissionsAPI()
		api.fail("ListAssignments", errors.New("boom"))
		p := NewSubmissionsPage(newDeps(t, api, "admin"))
		assert.Error(t, p.Load(context.Background()))
		assert.Equal(t, "Failed to load filters", p.Banner())
		assert.Zero(t, api.count("ListSubmissions"))
	})
	t.Run("submissions", func(t *testing.T) {
		api := newSubmissionsAPI()
		api.fail("ListSubmissions", errors.New("boom"))
		p := NewSubmissionsPage(newDeps(t, api, "admin"))
		assert.Error(t, p.Load(context.Background()))
		assert.Equal(t, "Failed to load submissions", p.Banner())
	})
}

func TestSubmissionsPage_Grade(t *testing.T) {
	tests := []struct {
		name       string
		subID      int
		grade      string
		apiErr     error
		want       lms.NewGradebookEntry
		wantStatus string
		wantValErr bool
	}{
		{
			name: "denormalized titles", subID: 1, grade: "87.5",
			want:       lms.NewGradebookEntry{Course: "Math", Assignment: "HW1", StudentEmail: "a@test.cd", Grade: floatPtr(87.5), Feedback: "good"},
			wantStatus: "Grade recorded",
		},
		{
			name: "ids when titles are missing", subID: 2, grade: "",
			want:       lms.NewGradebookEntry{Course: "1", Assignment: "2", StudentEmail: "b@test.cd", Feedback: "good"},
			wantStatus: "Grade recorded",
		},
		{name: "not a number", subID: 1, grade: "A+", wantStatus: lms.ErrGradeNotNumber.Error(), wantValErr: true},
		{name: "NaN", subID: 1, grade: "NaN", wantStatus: lms.ErrGradeNotNumber.Error(), wantValErr: true},
		{name: "out of range", subID: 1, grade: "101", wantStatus: lms.ErrGradeOutOfRange.Error(), wantValErr: true},
		{name: "api failure", subID: 1, grade: "50", apiErr: errors.New("boom"), wantStatus: "Failed to record grade"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newSubmissionsAPI()
			if tt.apiErr != nil {
				api.fail("CreateGradebookEntry", tt.apiErr)
			}
			p := NewSubmissionsPage(newDeps(t, api, "teacher"))
			require.NoError(t, p.Load(context.Background()))

			_, err := p.Grade(context.Background(), tt.subID, tt.grade, "good")
			assert.Equal(t, tt.wantStatus, p.Status())
			if tt.wantValErr {
				assert.True(t, core.IsValidationError(err))
				assert.Zero(t, api.count("CreateGradebookEntry"))
				return
			}
			if tt.apiErr != nil {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, api.gotGrade)
		})
	}
}

func TestSubmissionsPage_OpenFile(t *testing.T) {
	var opened string
	var openedContent []byte
	orig := openFileFunc
	openFileFunc = func(path string) error {
		opened = path
		content, err := os.ReadFile(path)
		openedContent = content
		return err
	}
	t.Cleanup(func() { openFileFunc = orig })

	deps := newDeps(t, newSubmissionsAPI(), "teacher")
	deps.FileReleaseDelay = 20 * time.Millisecond
	p := NewSubmissionsPage(deps)
	require.NoError(t, p.Load(context.Background()))

	path, err := p.OpenFile(1)
	require.NoError(t, err)
	assert.Equal(t, path, opened)
	assert.Equal(t, []byte("hello"), openedContent)
	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, time.Second, 5*time.Millisecond, "temporary file is released")

	_, err = p.OpenFile(3)
	assert.Equal(t, ErrNoFile, err)
}

func TestSubmissionsPage_OpenFile_failures(t *testing.T) {
	orig := openFileFunc
	openFileFunc = func(string) error { return errors.New("no handler") }
	t.Cleanup(func() { openFileFunc = orig })

	api := newSubmissionsAPI()
	api.submissions = append(api.submissions, lms.Submission{ID: 4, File: &lms.SubmittedFile{Name: "x", Data: "%%%"}})
	deps := newDeps(t, api, "teacher")
	deps.FileReleaseDelay = time.Hour
	p := NewSubmissionsPage(deps)
	require.NoError(t, p.Load(context.Background()))

	_, err := p.OpenFile(4)
	assert.Error(t, err)
	assert.Equal(t, "Failed to open file. Try downloading instead.", p.Status())

	path, err := p.OpenFile(1)
	assert.Error(t, err)
	assert.Equal(t, "Failed to open file. Try downloading instead.", p.Status())
	assert.FileExists(t, path)

	p.Close()
	assert.NoFileExists(t, path, "closing the page releases its files")
}

func floatPtr(f float64) *float64 {
	return &f
}
