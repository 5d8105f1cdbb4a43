package portal

import (
	"context"
	"io"

	"github.com/trezcool/masomo-portal/core/lms"
)

// CoursesPage lists the courses; editors can create new ones.
type CoursesPage struct {
	page
	courses list[lms.Course]
}

var _ Page = (*CoursesPage)(nil)

func NewCoursesPage(deps Deps) *CoursesPage {
	p := &CoursesPage{}
	p.init("Courses", deps)
	return p
}

func (p *CoursesPage) Load(ctx context.Context) error {
	courses, err := p.API.ListCourses(ctx)
	return p.finishLoad(err, "Failed to load courses", func() {
		p.courses.reset(courses)
	})
}

func (p *CoursesPage) Controls() []Control {
	return editorOnly(p.isEditor(), ControlCreateCourse)
}

func (p *CoursesPage) Courses() []lms.Course {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.courses.all()
}

// CreateCourse posts nc and puts the created course first.
func (p *CoursesPage) CreateCourse(ctx context.Context, nc lms.NewCourse) (lms.Course, error) {
	if err := p.gate(ControlCreateCourse, p.Controls()); err != nil {
		return lms.Course{}, err
	}
	if err := p.begin("create"); err != nil {
		return lms.Course{}, err
	}
	defer p.end("create")

	course, err := p.API.CreateCourse(ctx, nc)
	if err != nil {
		return lms.Course{}, p.fail("Failed to create course", err)
	}
	p.commit(func() {
		p.courses.apply(Mutation[lms.Course]{Kind: Created, Item: course})
		p.setStatusLocked("Course created")
	})
	return course, nil
}

func (p *CoursesPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct {
		Header  header
		Editor  bool
		Courses []lms.Course
	}{p.headerLocked(ctrls), len(ctrls) > 0, p.courses.all()}
	p.mu.Unlock()
	return render(w, "courses", v)
}
