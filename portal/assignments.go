package portal

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

// AssignmentForm is what an editor fills in to post an assignment.
// Due is a YYYY-MM-DD date, empty for no deadline. CourseID 0 means no course selected.
type AssignmentForm struct {
	Title       string
	Due         string
	CourseID    int
	Description string
}

// AssignmentsPage lists the assignments; editors can post new ones.
type AssignmentsPage struct {
	page
	assignments list[lms.Assignment]
	courses     []lms.Course
}

var _ Page = (*AssignmentsPage)(nil)

func NewAssignmentsPage(deps Deps) *AssignmentsPage {
	p := &AssignmentsPage{}
	p.init("Assignments & Quizzes", deps)
	return p
}

func (p *AssignmentsPage) Load(ctx context.Context) error {
	var (
		assignments []lms.Assignment
		courses     []lms.Course
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		assignments, err = p.API.ListAssignments(gctx)
		return err
	})
	g.Go(func() (err error) {
		courses, err = p.API.ListCourses(gctx)
		return err
	})
	err := g.Wait()
	return p.finishLoad(err, "Failed to load assignments", func() {
		p.assignments.reset(assignments)
		p.courses = courses
	})
}

func (p *AssignmentsPage) Controls() []Control {
	return editorOnly(p.isEditor(), ControlPostAssignment, ControlViewSubmissions)
}

func (p *AssignmentsPage) Assignments() []lms.Assignment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assignments.all()
}

// Courses are the choices of the course selector.
func (p *AssignmentsPage) Courses() []lms.Course {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]lms.Course(nil), p.courses...)
}

// Post creates an assignment from form and puts it first.
// A missing title or course is rejected before anything is sent.
func (p *AssignmentsPage) Post(ctx context.Context, form AssignmentForm) (lms.Assignment, error) {
	if err := p.gate(ControlPostAssignment, p.Controls()); err != nil {
		return lms.Assignment{}, err
	}
	if err := p.begin("post"); err != nil {
		return lms.Assignment{}, err
	}
	defer p.end("post")

	na := lms.NewAssignment{
		Title:       core.CleanString(form.Title),
		CourseID:    form.CourseID,
		Description: form.Description,
	}
	if na.Title == "" || na.CourseID == 0 {
		var flds []core.FieldError
		if na.Title == "" {
			flds = append(flds, core.FieldError{Field: "title", Error: "this field is required"})
		}
		if na.CourseID == 0 {
			flds = append(flds, core.FieldError{Field: "courseId", Error: "this field is required"})
		}
		return lms.Assignment{}, p.invalid("Title and course are required", flds...)
	}
	if due := core.CleanString(form.Due); due != "" {
		na.Due = &due
	}
	if err := core.ValidateStruct(p.Validate, p.Translator, na); err != nil {
		p.setStatus(err.Error())
		return lms.Assignment{}, err
	}

	asgmt, err := p.API.CreateAssignment(ctx, na)
	if err != nil {
		return lms.Assignment{}, p.fail("Failed to post assignment", err)
	}
	p.commit(func() {
		p.assignments.apply(Mutation[lms.Assignment]{Kind: Created, Item: asgmt})
		p.setStatusLocked("Assignment posted")
	})
	return asgmt, nil
}

func (p *AssignmentsPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct {
		Header      header
		Editor      bool
		Assignments []lms.Assignment
		Courses     []lms.Course
	}{p.headerLocked(ctrls), len(ctrls) > 0, p.assignments.all(), p.courses}
	p.mu.Unlock()
	return render(w, "assignments", v)
}
