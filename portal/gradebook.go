package portal

import (
	"context"
	"io"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

// GradeForm is what an editor fills in to add a gradebook entry.
// Grade is the raw input: empty for no grade, otherwise a number between 0 and 100.
type GradeForm struct {
	CourseID     int
	AssignmentID int
	StudentEmail string
	Grade        string
	Feedback     string
}

// GradebookPage shows the grades: all of them to editors, their own to students.
// Editors can add entries and edit the grade and feedback of any row.
type GradebookPage struct {
	page
	rows        list[lms.GradebookEntry]
	courses     []lms.Course
	assignments []lms.Assignment
	students    []lms.Student
}

var _ Page = (*GradebookPage)(nil)

func NewGradebookPage(deps Deps) *GradebookPage {
	p := &GradebookPage{}
	p.init("Gradebook", deps)
	return p
}

func (p *GradebookPage) Load(ctx context.Context) error {
	var (
		rows        []lms.GradebookEntry
		courses     []lms.Course
		assignments []lms.Assignment
		students    []lms.Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows, err = p.API.ListGradebook(gctx)
		return err
	})
	g.Go(func() (err error) {
		courses, err = p.API.ListCourses(gctx)
		return err
	})
	g.Go(func() (err error) {
		assignments, err = p.API.ListAssignments(gctx)
		return err
	})
	if p.isEditor() {
		g.Go(func() (err error) {
			students, err = p.API.ListStudents(gctx)
			return err
		})
	}
	err := g.Wait()
	return p.finishLoad(err, "Failed to load gradebook", func() {
		p.rows.reset(rows)
		p.courses = courses
		p.assignments = assignments
		p.students = students
	})
}

func (p *GradebookPage) Controls() []Control {
	return editorOnly(p.isEditor(), ControlAddGrade, ControlSaveGrade)
}

func (p *GradebookPage) Rows() []lms.GradebookEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows.all()
}

// Students are the choices of the student selector; empty for students.
func (p *GradebookPage) Students() []lms.Student {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]lms.Student(nil), p.students...)
}

// AssignmentChoices are the assignments of courseID, or all of them when it is 0.
func (p *GradebookPage) AssignmentChoices(courseID int) []lms.Assignment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lms.FilterAssignmentsByCourse(p.assignments, courseID)
}

// resolve finds the selected course and assignment among the loaded ones.
func (p *GradebookPage) resolve(form GradeForm) (course lms.Course, asgmt lms.Assignment, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var foundCourse, foundAsgmt bool
	for _, c := range p.courses {
		if c.ID == form.CourseID {
			course, foundCourse = c, true
		}
	}
	for _, a := range p.assignments {
		if a.ID == form.AssignmentID {
			asgmt, foundAsgmt = a, true
		}
	}
	return course, asgmt, foundCourse && foundAsgmt
}

// warnSharedTitles logs when the entry's titles do not identify a single course or
// assignment: gradebook rows only carry the titles.
func (p *GradebookPage) warnSharedTitles(course lms.Course, asgmt lms.Assignment) {
	p.mu.Lock()
	var courses, assignments int
	for _, c := range p.courses {
		if c.Title == course.Title {
			courses++
		}
	}
	for _, a := range p.assignments {
		if a.Title == asgmt.Title {
			assignments++
		}
	}
	p.mu.Unlock()
	if courses > 1 || assignments > 1 {
		p.Logger.Warn("gradebook entry title is shared", map[string]interface{}{
			"course":      course.Title,
			"courses":     courses,
			"assignment":  asgmt.Title,
			"assignments": assignments,
		}, p.Session.User())
	}
}

// AddGrade creates an entry from form and puts it first.
// The course, assignment and student must be selected; nothing is sent otherwise.
func (p *GradebookPage) AddGrade(ctx context.Context, form GradeForm) (lms.GradebookEntry, error) {
	if err := p.gate(ControlAddGrade, p.Controls()); err != nil {
		return lms.GradebookEntry{}, err
	}
	if err := p.begin("add"); err != nil {
		return lms.GradebookEntry{}, err
	}
	defer p.end("add")

	email := core.CleanString(form.StudentEmail, true /* lower */)
	course, asgmt, ok := p.resolve(form)
	if !ok || email == "" {
		return lms.GradebookEntry{}, p.invalid("Please select course, assignment and student email")
	}
	grade, err := lms.ParseGrade(form.Grade)
	if err != nil {
		return lms.GradebookEntry{}, p.invalid(err.Error(), core.FieldError{Field: "grade", Error: err.Error()})
	}
	p.warnSharedTitles(course, asgmt)

	entry, err := p.API.CreateGradebookEntry(ctx, lms.NewGradebookEntry{
		Course:       course.Title,
		Assignment:   asgmt.Title,
		StudentEmail: email,
		Grade:        grade,
		Feedback:     form.Feedback,
	})
	if err != nil {
		return lms.GradebookEntry{}, p.fail("Failed to add entry", err)
	}
	p.commit(func() {
		p.rows.apply(Mutation[lms.GradebookEntry]{Kind: Created, Item: entry})
		p.setStatusLocked("Grade entry added")
	})
	return entry, nil
}

// SaveRow replaces the grade and feedback of row id. Rows are saved independently.
func (p *GradebookPage) SaveRow(ctx context.Context, id int, grade, feedback string) (lms.GradebookEntry, error) {
	if err := p.gate(ControlSaveGrade, p.Controls()); err != nil {
		return lms.GradebookEntry{}, err
	}
	action := "save:" + strconv.Itoa(id)
	if err := p.begin(action); err != nil {
		return lms.GradebookEntry{}, err
	}
	defer p.end(action)

	value, err := lms.ParseGrade(grade)
	if err != nil {
		return lms.GradebookEntry{}, p.invalid(err.Error(), core.FieldError{Field: "grade", Error: err.Error()})
	}
	entry, err := p.API.UpdateGradebookEntry(ctx, id, lms.UpdateGradebookEntry{Grade: value, Feedback: feedback})
	if err != nil {
		return lms.GradebookEntry{}, p.fail("Failed to save", err)
	}
	p.commit(func() {
		p.rows.apply(Mutation[lms.GradebookEntry]{Kind: Updated, Item: entry})
		p.setStatusLocked("Saved")
	})
	return entry, nil
}

func (p *GradebookPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct {
		Header   header
		Editor   bool
		Rows     []lms.GradebookEntry
		Courses  []lms.Course
		Students []lms.Student
	}{p.headerLocked(ctrls), len(ctrls) > 0, p.rows.all(), p.courses, p.students}
	p.mu.Unlock()
	return render(w, "gradebook", v)
}
