// Package portal holds one controller per portal page. A controller fetches what its
// page shows, gates editor-only controls on the session role, runs the page's
// mutations and renders the page as text.
package portal

import (
	"context"
	"io"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
	"github.com/trezcool/masomo-portal/core/session"
)

var (
	// ErrBusy is returned when a mutation is submitted while the same one is in flight.
	ErrBusy = errors.New("another request is in flight")
	// ErrUnavailable is returned when the session may not use a control.
	ErrUnavailable = errors.New("control not available")
	// ErrClosed is returned by Load when the page was closed before its results arrived.
	ErrClosed = errors.New("page closed")

	nowFunc = time.Now // mockable
)

// Page is what the front end drives.
type Page interface {
	// Load fetches everything the page shows. Results are dropped once the page is closed.
	Load(ctx context.Context) error
	// Close marks the page as gone; in-flight results will not be applied.
	Close()
	// Controls lists the controls visible to the current session.
	Controls() []Control
	Render(w io.Writer) error
}

// Deps are shared by every page.
type Deps struct {
	API        lms.API
	Session    *session.Store
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	// StatusTTL is how long a status message stays visible.
	StatusTTL time.Duration
	// FileReleaseDelay is how long an opened submission file is kept on disk.
	FileReleaseDelay time.Duration
}

func (d *Deps) setDefaults() {
	if d.Logger == nil {
		d.Logger = core.NopLogger{}
	}
	if d.Translator == nil {
		d.Translator = core.NewTranslator()
	}
	if d.Validate == nil {
		d.Validate = core.NewValidate(d.Translator)
	}
	if d.StatusTTL <= 0 {
		d.StatusTTL = 5 * time.Second
	}
	if d.FileReleaseDelay <= 0 {
		d.FileReleaseDelay = 60 * time.Second
	}
}

// page is the state every controller shares: liveness, loading, the terminal error
// banner, a short-lived status message and the in-flight mutations.
type page struct {
	Deps
	title string

	mu       sync.Mutex
	closed   bool
	loading  bool
	errMsg   string
	status   string
	statusAt time.Time
	inFlight map[string]bool
}

func (p *page) init(title string, deps Deps) {
	deps.setDefaults()
	p.Deps = deps
	p.title = title
	p.loading = true
	p.inFlight = make(map[string]bool)
}

func (p *page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *page) isEditor() bool {
	return p.Session.IsEditor()
}

// commit runs fn under the page lock, only while the page is alive.
func (p *page) commit(fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	fn()
	return true
}

// finishLoad ends the loading state: on error the page gets its terminal banner,
// otherwise apply commits the fetched data.
func (p *page) finishLoad(err error, failMsg string, apply func()) error {
	if err != nil {
		p.Logger.Warn(failMsg, errors.Wrap(err, "loading "+p.Title()), p.Session.User())
	}
	ok := p.commit(func() {
		p.loading = false
		if err != nil {
			p.errMsg = failMsg
			return
		}
		if apply != nil {
			apply()
		}
	})
	if !ok {
		return ErrClosed
	}
	return err
}

// begin marks action in flight; it fails when it already is.
func (p *page) begin(action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[action] {
		return ErrBusy
	}
	p.inFlight[action] = true
	p.status = ""
	return nil
}

func (p *page) end(action string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, action)
}

func (p *page) busy(action string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight[action]
}

// setStatus shows msg until the status TTL runs out.
func (p *page) setStatus(msg string) {
	p.commit(func() { p.setStatusLocked(msg) })
}

func (p *page) setStatusLocked(msg string) {
	p.status = msg
	p.statusAt = nowFunc()
}

// Status is the current status message, empty once expired.
func (p *page) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *page) statusLocked() string {
	if p.status == "" || nowFunc().Sub(p.statusAt) >= p.StatusTTL {
		return ""
	}
	return p.status
}

// Banner is the terminal error banner, if any.
func (p *page) Banner() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errMsg
}

// Title can change once the page has loaded its subject.
func (p *page) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

func (p *page) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// fail records a failed mutation: the status shows msg, the cause goes to the logs.
func (p *page) fail(msg string, err error) error {
	p.Logger.Warn(msg, errors.Wrap(err, p.Title()), p.Session.User())
	p.setStatus(msg)
	return err
}

// invalid records a client-side validation failure; nothing was sent.
func (p *page) invalid(msg string, flds ...core.FieldError) error {
	p.setStatus(msg)
	return core.NewValidationError(errors.New(msg), flds...)
}

// gate fails unless the current session sees ctrl.
func (p *page) gate(ctrl Control, visible []Control) error {
	if hasControl(visible, ctrl) {
		return nil
	}
	return errors.Wrapf(ErrUnavailable, "%s", ctrl)
}

// header is the part of every view the layout template renders.
type header struct {
	Title    string
	Loading  bool
	Error    string
	Status   string
	User     *session.Session
	Controls []Control
}

// Ready reports whether the page body can be shown.
func (h header) Ready() bool {
	return !h.Loading && h.Error == ""
}

// headerLocked adds Logout to the page controls when someone is logged in.
func (p *page) headerLocked(controls []Control) header {
	usr := p.Session.User()
	if usr != nil && !hasControl(controls, ControlLogout) {
		controls = append(controls[:len(controls):len(controls)], ControlLogout)
	}
	return header{
		Title:    p.title,
		Loading:  p.loading,
		Error:    p.errMsg,
		Status:   p.statusLocked(),
		User:     usr,
		Controls: controls,
	}
}
