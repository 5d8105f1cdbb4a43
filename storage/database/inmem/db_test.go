package inmemdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core/lms"
)

func TestDB_accounts(t *testing.T) {
	db := Open()

	acct, err := db.CreateAccount("s@test.cd", "pwd", lms.RoleStudent)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("pwd"), acct.PasswordHash)
	assert.NoError(t, acct.CheckPassword("pwd"))
	assert.Error(t, acct.CheckPassword("lol"))

	_, err = db.CreateAccount("s@test.cd", "other", lms.RoleAdmin)
	assert.Equal(t, ErrEmailExists, err)

	_, err = db.CreateAccount("t@test.cd", "pwd", lms.RoleTeacher)
	require.NoError(t, err)
	_, err = db.CreateAccount("a@test.cd", "pwd", lms.RoleStudent)
	require.NoError(t, err)

	got, err := db.GetAccount("t@test.cd")
	require.NoError(t, err)
	assert.Equal(t, lms.User{Email: "t@test.cd", Role: lms.RoleTeacher}, got.User())

	_, err = db.GetAccount("lol@test.cd")
	assert.Equal(t, ErrNotFound, err)

	assert.Equal(t, []lms.Student{{Email: "a@test.cd"}, {Email: "s@test.cd"}}, db.ListStudents())
}

func TestDB_coursesAndAssignments(t *testing.T) {
	db := Open()
	math := db.CreateCourse(lms.NewCourse{Title: "Math", Description: "numbers"})
	bio := db.CreateCourse(lms.NewCourse{Title: "Bio"})
	assert.Equal(t, []lms.Course{bio, math}, db.ListCourses(), "newest first")

	updated, err := db.UpdateCourse(math.ID, lms.UpdateCourse{Overview: "ov", Resources: "res"})
	require.NoError(t, err)
	assert.Equal(t, lms.Course{ID: math.ID, Title: "Math", Description: "numbers", Overview: "ov", Resources: "res"}, updated)

	_, err = db.UpdateCourse(42, lms.UpdateCourse{})
	assert.Equal(t, ErrNotFound, err)

	_, err = db.CreateAssignment(lms.NewAssignment{Title: "Orphan", CourseID: 42})
	assert.Equal(t, ErrNotFound, err)

	hw, err := db.CreateAssignment(lms.NewAssignment{Title: "HW1", CourseID: math.ID})
	require.NoError(t, err)
	got, err := db.GetAssignment(hw.ID)
	require.NoError(t, err)
	assert.Equal(t, hw, got)
}

func TestDB_submissions(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	db := Open()
	math := db.CreateCourse(lms.NewCourse{Title: "Math"})
	bio := db.CreateCourse(lms.NewCourse{Title: "Bio"})
	hw1, _ := db.CreateAssignment(lms.NewAssignment{Title: "HW1", CourseID: math.ID})
	hw2, _ := db.CreateAssignment(lms.NewAssignment{Title: "Cells", CourseID: bio.ID})

	_, err := db.GetLatestSubmission(hw1.ID, "s@test.cd")
	assert.Equal(t, ErrNotFound, err)

	first, err := db.CreateSubmission(hw1.ID, "s@test.cd", lms.SubmitAssignment{Text: "draft"})
	require.NoError(t, err)
	assert.Equal(t, lms.Submission{
		ID: first.ID, AssignmentID: hw1.ID, CourseID: math.ID, AssignmentTitle: "HW1", CourseTitle: "Math",
		StudentEmail: "s@test.cd", SubmittedAt: now, Text: "draft",
	}, first)

	second, err := db.CreateSubmission(hw1.ID, "s@test.cd", lms.SubmitAssignment{Text: "final"})
	require.NoError(t, err)
	other, err := db.CreateSubmission(hw2.ID, "k@test.cd", lms.SubmitAssignment{})
	require.NoError(t, err)

	latest, err := db.GetLatestSubmission(hw1.ID, "s@test.cd")
	require.NoError(t, err)
	assert.Equal(t, second, latest)

	_, err = db.CreateSubmission(42, "s@test.cd", lms.SubmitAssignment{})
	assert.Equal(t, ErrNotFound, err)

	tests := []struct {
		name   string
		filter lms.SubmissionFilter
		want   []lms.Submission
	}{
		{name: "no filter", want: []lms.Submission{other, second, first}},
		{name: "by course", filter: lms.SubmissionFilter{CourseID: bio.ID}, want: []lms.Submission{other}},
		{name: "by assignment", filter: lms.SubmissionFilter{AssignmentID: hw1.ID}, want: []lms.Submission{second, first}},
		{name: "course and assignment mismatch", filter: lms.SubmissionFilter{CourseID: bio.ID, AssignmentID: hw1.ID}, want: []lms.Submission{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, db.ListSubmissions(tt.filter))
		})
	}
}

func TestDB_gradebook(t *testing.T) {
	db := Open()
	grade := 80.0
	e1 := db.CreateGradebookEntry(lms.NewGradebookEntry{Course: "Math", Assignment: "HW1", StudentEmail: "s@test.cd", Grade: &grade})
	e2 := db.CreateGradebookEntry(lms.NewGradebookEntry{Course: "Math", Assignment: "HW1", StudentEmail: "k@test.cd"})

	assert.Equal(t, []lms.GradebookEntry{e2, e1}, db.ListGradebook(""))
	assert.Equal(t, []lms.GradebookEntry{e1}, db.ListGradebook("s@test.cd"))

	updated, err := db.UpdateGradebookEntry(e2.ID, lms.UpdateGradebookEntry{Grade: &grade, Feedback: "ok"})
	require.NoError(t, err)
	assert.Equal(t, &grade, updated.Grade)
	assert.Equal(t, "ok", updated.Feedback)
	assert.Equal(t, "k@test.cd", updated.StudentEmail)
}

func TestDB_announcements(t *testing.T) {
	db := Open()
	a1 := db.CreateAnnouncement(lms.NewAnnouncement{Title: "Hi", Body: "welcome"})
	a2 := db.CreateAnnouncement(lms.NewAnnouncement{Title: "Exam"})
	assert.Equal(t, []lms.Announcement{a2, a1}, db.ListAnnouncements())
}
