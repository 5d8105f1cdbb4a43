package portal

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

var (
	// ErrNoFile is returned when opening a submission that carries no file content.
	ErrNoFile = errors.New("submission has no file")

	openFileFunc = browser.OpenFile // mockable
)

const accessDenied = "Access denied. Only admins and teachers can view submissions."

// SubmissionsPage lets editors browse submissions by course and assignment, grade them
// and open their files.
type SubmissionsPage struct {
	page
	courses     []lms.Course
	assignments []lms.Assignment
	submissions list[lms.Submission]
	filter      lms.SubmissionFilter
	fetchSeq    int
	opened      map[string]*time.Timer // temporary file => release timer
}

var _ Page = (*SubmissionsPage)(nil)

func NewSubmissionsPage(deps Deps) *SubmissionsPage {
	p := &SubmissionsPage{}
	p.init("Submissions", deps)
	return p
}

// Load fetches the filter choices, then the submissions matching the current filter.
// Nothing is fetched for students.
func (p *SubmissionsPage) Load(ctx context.Context) error {
	if !p.isEditor() {
		p.commit(func() {
			p.loading = false
			p.errMsg = accessDenied
		})
		return nil
	}

	var (
		courses     []lms.Course
		assignments []lms.Assignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		courses, err = p.API.ListCourses(gctx)
		return err
	})
	g.Go(func() (err error) {
		assignments, err = p.API.ListAssignments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return p.finishLoad(err, "Failed to load filters", nil)
	}
	if !p.commit(func() {
		p.courses = courses
		p.assignments = assignments
	}) {
		return ErrClosed
	}
	return p.fetch(ctx)
}

// fetch loads the submissions of the current filter. Only the latest fetch is applied.
func (p *SubmissionsPage) fetch(ctx context.Context) error {
	p.mu.Lock()
	p.fetchSeq++
	seq, filter := p.fetchSeq, p.filter
	p.mu.Unlock()

	subs, err := p.API.ListSubmissions(ctx, filter)

	p.mu.Lock()
	stale := seq != p.fetchSeq
	p.mu.Unlock()
	if stale {
		return nil
	}
	return p.finishLoad(err, "Failed to load submissions", func() {
		p.submissions.reset(subs)
	})
}

func (p *SubmissionsPage) Controls() []Control {
	return editorOnly(p.isEditor(), ControlFilterCourse, ControlFilterAssignmt, ControlGrade, ControlOpenFile)
}

// SelectCourse filters on courseID (0 for all courses) and resets the assignment filter.
func (p *SubmissionsPage) SelectCourse(ctx context.Context, courseID int) error {
	if err := p.gate(ControlFilterCourse, p.Controls()); err != nil {
		return err
	}
	p.mu.Lock()
	p.filter = lms.SubmissionFilter{CourseID: courseID}
	p.mu.Unlock()
	return p.fetch(ctx)
}

// SelectAssignment filters on assignmentID (0 for all assignments).
func (p *SubmissionsPage) SelectAssignment(ctx context.Context, assignmentID int) error {
	if err := p.gate(ControlFilterAssignmt, p.Controls()); err != nil {
		return err
	}
	p.mu.Lock()
	p.filter.AssignmentID = assignmentID
	p.mu.Unlock()
	return p.fetch(ctx)
}

func (p *SubmissionsPage) Filter() lms.SubmissionFilter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// AssignmentChoices are the assignments of the selected course, or all of them.
func (p *SubmissionsPage) AssignmentChoices() []lms.Assignment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lms.FilterAssignmentsByCourse(p.assignments, p.filter.CourseID)
}

func (p *SubmissionsPage) Submissions() []lms.Submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submissions.all()
}

func (p *SubmissionsPage) submission(id int) (lms.Submission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.submissions.find(id)
	if !ok {
		return lms.Submission{}, errors.Errorf("submission %d is not listed", id)
	}
	return sub, nil
}

// Grade records a gradebook entry for the submission. An empty grade records no grade.
func (p *SubmissionsPage) Grade(ctx context.Context, submissionID int, grade, feedback string) (lms.GradebookEntry, error) {
	if err := p.gate(ControlGrade, p.Controls()); err != nil {
		return lms.GradebookEntry{}, err
	}
	sub, err := p.submission(submissionID)
	if err != nil {
		return lms.GradebookEntry{}, err
	}
	if err := p.begin("grade"); err != nil {
		return lms.GradebookEntry{}, err
	}
	defer p.end("grade")

	value, err := lms.ParseGrade(grade)
	if err != nil {
		return lms.GradebookEntry{}, p.invalid(err.Error(), core.FieldError{Field: "grade", Error: err.Error()})
	}
	entry, err := p.API.CreateGradebookEntry(ctx, lms.NewGradebookEntry{
		Course:       sub.CourseLabel(),
		Assignment:   sub.AssignmentLabel(),
		StudentEmail: sub.StudentEmail,
		Grade:        value,
		Feedback:     feedback,
	})
	if err != nil {
		return lms.GradebookEntry{}, p.fail("Failed to record grade", err)
	}
	p.setStatus("Grade recorded")
	return entry, nil
}

// OpenFile writes the submission's file to a temporary file, opens it with the default
// application and deletes it after the release delay. It returns the temporary path.
func (p *SubmissionsPage) OpenFile(submissionID int) (string, error) {
	if err := p.gate(ControlOpenFile, p.Controls()); err != nil {
		return "", err
	}
	sub, err := p.submission(submissionID)
	if err != nil {
		return "", err
	}
	if sub.File == nil || sub.File.Data == "" {
		return "", ErrNoFile
	}

	const failMsg = "Failed to open file. Try downloading instead."
	content, err := base64.StdEncoding.DecodeString(sub.File.Data)
	if err != nil {
		return "", p.fail(failMsg, errors.Wrap(err, "decoding file"))
	}
	path, err := writeTempFile(*sub.File, content)
	if err != nil {
		return "", p.fail(failMsg, err)
	}
	p.releaseLater(path)

	if err := openFileFunc(path); err != nil {
		return path, p.fail(failMsg, errors.Wrapf(err, "opening %s", path))
	}
	return path, nil
}

func (p *SubmissionsPage) releaseLater(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opened == nil {
		p.opened = make(map[string]*time.Timer)
	}
	p.opened[path] = time.AfterFunc(p.FileReleaseDelay, func() {
		p.mu.Lock()
		delete(p.opened, path)
		p.mu.Unlock()
		p.release(path)
	})
}

func (p *SubmissionsPage) release(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.Logger.Warn("releasing submission file", errors.Wrapf(err, "removing %s", path))
	}
}

// Close also deletes the opened files not released yet.
func (p *SubmissionsPage) Close() {
	p.page.Close()
	p.mu.Lock()
	opened := p.opened
	p.opened = nil
	p.mu.Unlock()
	for path, timer := range opened {
		if timer.Stop() {
			p.release(path)
		}
	}
}

// writeTempFile stores content in a temporary file whose extension follows the file's
// declared type, falling back to its name.
func writeTempFile(file lms.SubmittedFile, content []byte) (string, error) {
	ext := filepath.Ext(file.Name)
	if file.Type != "" {
		if exts, _ := mime.ExtensionsByType(file.Type); len(exts) > 0 && !contains(exts, ext) {
			ext = exts[0]
		}
	}
	f, err := os.CreateTemp("", "masomo-submission-*"+ext)
	if err != nil {
		return "", errors.Wrap(err, "creating temporary file")
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "writing temporary file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "closing temporary file")
	}
	return f.Name(), nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func (p *SubmissionsPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct {
		Header      header
		Course      string
		Assignment  string
		Submissions []lms.Submission
	}{
		Header:      p.headerLocked(ctrls),
		Course:      "All courses",
		Assignment:  "All assignments",
		Submissions: p.submissions.all(),
	}
	for _, c := range p.courses {
		if c.ID == p.filter.CourseID {
			v.Course = c.Title
		}
	}
	for _, a := range p.assignments {
		if a.ID == p.filter.AssignmentID {
			v.Assignment = a.Title
		}
	}
	p.mu.Unlock()
	return render(w, "submissions", v)
}
