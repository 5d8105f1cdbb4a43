package portal_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/masomo-portal/apps/api/echo"
	"github.com/trezcool/masomo-portal/core/lms"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/portal"
	"github.com/trezcool/masomo-portal/services/lmsapi"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
	"github.com/trezcool/masomo-portal/storage/local"
)

// client is one portal user: its own durable storage, session and API client.
type client struct {
	deps portal.Deps
}

func newClient(t *testing.T, baseURL, email, pwd string) *client {
	t.Helper()
	persist, err := local.OpenBolt(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = persist.Close() })

	var store *session.Store
	api := lmsapi.New(lmsapi.Options{BaseURL: baseURL, Token: func() string { return store.Token() }})
	store = session.NewStore(api, persist, session.Options{})
	store.Restore()

	login := portal.NewLoginPage(portal.Deps{API: api, Session: store})
	require.NoError(t, login.Login(context.Background(), email, pwd))
	return &client{deps: portal.Deps{API: api, Session: store}}
}

func TestPortal_endToEnd(t *testing.T) {
	db := inmemdb.Open()
	srv := httptest.NewServer(echoapi.NewServer(&echoapi.Options{
		AppName:            "Masomo",
		SecretKey:          "secret",
		JWTExpirationDelta: time.Hour,
		TestMode:           true,
		DisableReqLogs:     true,
		DB:                 db,
	}))
	t.Cleanup(srv.Close)
	_, err := db.CreateAccount("teacher@test.cd", "pwd", lms.RoleTeacher)
	require.NoError(t, err)
	_, err = db.CreateAccount("student@test.cd", "pwd", lms.RoleStudent)
	require.NoError(t, err)

	ctx := context.Background()
	baseURL := srv.URL + "/api"
	teacher := newClient(t, baseURL, "teacher@test.cd", "pwd")
	student := newClient(t, baseURL, "student@test.cd", "pwd")

	// the teacher creates a course and an assignment
	courses := portal.NewCoursesPage(teacher.deps)
	require.NoError(t, courses.Load(ctx))
	course, err := courses.CreateCourse(ctx, lms.NewCourse{Title: "Math"})
	require.NoError(t, err)

	assignments := portal.NewAssignmentsPage(teacher.deps)
	require.NoError(t, assignments.Load(ctx))
	_, err = assignments.Post(ctx, portal.AssignmentForm{Title: "", CourseID: course.ID})
	require.Error(t, err)
	asgmt, err := assignments.Post(ctx, portal.AssignmentForm{Title: "HW1", CourseID: course.ID, Due: "2030-01-31"})
	require.NoError(t, err)

	// the student submits a binary file
	content := []byte{0x00, 0x9f, 0x92, 0x96, 0xff, 'o', 'k'}
	path := filepath.Join(t.TempDir(), "answer.bin")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	detail := portal.NewAssignmentDetailPage(student.deps, asgmt.ID)
	require.NoError(t, detail.Load(ctx))
	assert.Nil(t, detail.MySubmission())
	require.NoError(t, detail.SelectFile(path))
	res, err := detail.Submit(ctx, "see attachment")
	require.NoError(t, err)
	require.True(t, res.OK)

	var buf bytes.Buffer
	require.NoError(t, detail.Render(&buf))
	assert.Contains(t, buf.String(), "Already submitted")

	// students see no submissions, the teacher grades them
	denied := portal.NewSubmissionsPage(student.deps)
	require.NoError(t, denied.Load(ctx))
	assert.NotEmpty(t, denied.Banner())

	subsPage := portal.NewSubmissionsPage(teacher.deps)
	require.NoError(t, subsPage.Load(ctx))
	require.NoError(t, subsPage.SelectCourse(ctx, course.ID))
	subs := subsPage.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "student@test.cd", subs[0].StudentEmail)
	require.NotNil(t, subs[0].File)
	assert.Equal(t, "answer.bin", subs[0].File.Name)
	decoded, err := base64.StdEncoding.DecodeString(subs[0].File.Data)
	require.NoError(t, err)
	assert.Equal(t, content, decoded)

	_, err = subsPage.Grade(ctx, subs[0].ID, "88", "nice")
	require.NoError(t, err)

	// the student reads their grade
	gradebook := portal.NewGradebookPage(student.deps)
	require.NoError(t, gradebook.Load(ctx))
	rows := gradebook.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Math", rows[0].Course)
	assert.Equal(t, "HW1", rows[0].Assignment)
	assert.Equal(t, "88%", rows[0].GradeLabel())
}
