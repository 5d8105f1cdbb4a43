package portal

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-portal/core/lms"
)

// fileSelection is a file picked for submission. Its base64 payload is encoded in the
// background; done is closed once data or err is set.
type fileSelection struct {
	meta lms.SubmittedFile
	done chan struct{}
	data string
	err  error
}

func (sel *fileSelection) ready() bool {
	select {
	case <-sel.done:
		return true
	default:
		return false
	}
}

// AssignmentDetailPage shows one assignment and the current user's latest submission,
// and submits a file and/or text for it.
type AssignmentDetailPage struct {
	page
	id         int
	assignment lms.Assignment
	mine       *lms.Submission
	selected   *fileSelection
}

var _ Page = (*AssignmentDetailPage)(nil)

func NewAssignmentDetailPage(deps Deps, id int) *AssignmentDetailPage {
	p := &AssignmentDetailPage{id: id}
	p.init("Assignment "+strconv.Itoa(id), deps)
	return p
}

// Load fetches the assignment and the user's submission. Only the assignment is required.
func (p *AssignmentDetailPage) Load(ctx context.Context) error {
	var (
		asgmt lms.Assignment
		mine  *lms.Submission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		asgmt, err = p.API.GetAssignment(gctx, p.id)
		return err
	})
	g.Go(func() error {
		sub, err := p.API.GetMySubmission(gctx, p.id)
		if err != nil {
			p.Logger.Debug("fetching own submission", errors.Wrapf(err, "assignment %d", p.id))
			return nil
		}
		mine = sub
		return nil
	})
	err := g.Wait()
	return p.finishLoad(err, "Failed to load assignment", func() {
		p.assignment = asgmt
		p.mine = mine
		p.title = "Assignment " + asgmt.Title
	})
}

func (p *AssignmentDetailPage) Controls() []Control {
	return []Control{ControlSubmit}
}

func (p *AssignmentDetailPage) Assignment() lms.Assignment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assignment
}

// MySubmission is the user's latest submission, nil when there is none.
func (p *AssignmentDetailPage) MySubmission() *lms.Submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mine
}

// SelectFile picks the file at path for the next submission and starts encoding it.
// It replaces any previous selection.
func (p *AssignmentDetailPage) SelectFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return errors.Wrap(err, "reading file info")
	}
	name := filepath.Base(path)
	p.attach(name, info.Size(), mime.TypeByExtension(filepath.Ext(name)), f)
	return nil
}

// attach starts encoding r in the background and closes it when done.
func (p *AssignmentDetailPage) attach(name string, size int64, contentType string, r io.ReadCloser) {
	sel := &fileSelection{
		meta: lms.SubmittedFile{Name: name, Size: size, Type: contentType},
		done: make(chan struct{}),
	}
	go func() {
		defer close(sel.done)
		defer r.Close()
		content, err := io.ReadAll(r)
		if err != nil {
			sel.err = errors.Wrapf(err, "reading %s", name)
			return
		}
		sel.data = base64.StdEncoding.EncodeToString(content)
	}()

	p.mu.Lock()
	p.selected = sel
	p.mu.Unlock()
}

// ClearFile drops the selected file.
func (p *AssignmentDetailPage) ClearFile() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = nil
}

// Submit sends the selected file, if any, and text. It waits for the file encoding to
// finish first. A response with ok=false is not an error; res.OK tells.
func (p *AssignmentDetailPage) Submit(ctx context.Context, text string) (lms.SubmitResult, error) {
	if err := p.begin("submit"); err != nil {
		return lms.SubmitResult{}, err
	}
	defer p.end("submit")

	p.mu.Lock()
	sel := p.selected
	p.mu.Unlock()

	var file *lms.SubmittedFile
	if sel != nil {
		select {
		case <-sel.done:
		case <-ctx.Done():
			return lms.SubmitResult{}, p.submitFailed(ctx.Err())
		}
		if sel.err != nil {
			return lms.SubmitResult{}, p.submitFailed(sel.err)
		}
		meta := sel.meta
		meta.Data = sel.data
		file = &meta
	}

	res, err := p.API.SubmitAssignment(ctx, p.id, lms.SubmitAssignment{File: file, Text: text})
	if err != nil {
		return lms.SubmitResult{}, p.submitFailed(err)
	}
	if !res.OK {
		p.Logger.Warn("submission rejected", map[string]interface{}{"assignmentId": p.id}, p.Session.User())
		p.setStatus("Submission failed. Please try again.")
		return res, nil
	}

	msg := "Submitted assignment " + strconv.Itoa(p.id)
	if file != nil {
		msg += " with file"
	}
	if text != "" {
		msg += " and text"
	}
	p.commit(func() {
		if p.selected == sel {
			p.selected = nil
		}
		p.mine = res.Submission
		p.setStatusLocked(msg + ".")
	})
	return res, nil
}

func (p *AssignmentDetailPage) submitFailed(err error) error {
	msg := "Unexpected error"
	if cause := errors.Cause(err); cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return p.fail(fmt.Sprintf("Submission failed: %s", msg), err)
}

func (p *AssignmentDetailPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct {
		Header     header
		Assignment lms.Assignment
		Mine       *lms.Submission
		Selected   *lms.SubmittedFile
		Preparing  bool
	}{Header: p.headerLocked(ctrls), Assignment: p.assignment, Mine: p.mine}
	if sel := p.selected; sel != nil {
		meta := sel.meta
		v.Selected = &meta
		v.Preparing = !sel.ready()
	}
	p.mu.Unlock()
	return render(w, "assignment", v)
}
