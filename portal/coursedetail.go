package portal

import (
	"context"
	"io"
	"strconv"

	"github.com/trezcool/masomo-portal/core/lms"
)

// CourseDetailPage shows one course; editors can edit its overview and resources.
type CourseDetailPage struct {
	page
	id     int
	course lms.Course
}

var _ Page = (*CourseDetailPage)(nil)

func NewCourseDetailPage(deps Deps, id int) *CourseDetailPage {
	p := &CourseDetailPage{id: id}
	p.init("Course "+strconv.Itoa(id), deps)
	return p
}

func (p *CourseDetailPage) Load(ctx context.Context) error {
	course, err := p.API.GetCourse(ctx, p.id)
	failMsg := "Failed to load course"
	if lms.IsNotFound(err) {
		failMsg = "Course not found"
	}
	return p.finishLoad(err, failMsg, func() {
		p.course = course
		p.title = course.Title
	})
}

func (p *CourseDetailPage) Controls() []Control {
	return editorOnly(p.isEditor(), ControlSaveCourse)
}

func (p *CourseDetailPage) Course() lms.Course {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.course
}

// Save replaces the overview and resources of the course.
func (p *CourseDetailPage) Save(ctx context.Context, uc lms.UpdateCourse) (lms.Course, error) {
	if err := p.gate(ControlSaveCourse, p.Controls()); err != nil {
		return lms.Course{}, err
	}
	if err := p.begin("save"); err != nil {
		return lms.Course{}, err
	}
	defer p.end("save")

	course, err := p.API.UpdateCourse(ctx, p.id, uc)
	if err != nil {
		return lms.Course{}, p.fail("Failed to save", err)
	}
	p.commit(func() {
		p.course = course
		p.title = course.Title
		p.setStatusLocked("Saved")
	})
	return course, nil
}

func (p *CourseDetailPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct {
		Header header
		Editor bool
		Course lms.Course
	}{p.headerLocked(ctrls), len(ctrls) > 0, p.course}
	p.mu.Unlock()
	return render(w, "course", v)
}
