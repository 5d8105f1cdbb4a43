package portal

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

// ErrInvalidCredentials is returned by LoginPage.Login whatever the cause of the failure.
var ErrInvalidCredentials = errors.New("invalid credentials")

// DashboardPage greets the logged in user. Editors get the admin dashboard.
type DashboardPage struct {
	page
}

var _ Page = (*DashboardPage)(nil)

func NewDashboardPage(deps Deps) *DashboardPage {
	p := &DashboardPage{}
	p.init("Dashboard", deps)
	return p
}

// Load fetches nothing; it fails when nobody is logged in.
func (p *DashboardPage) Load(context.Context) error {
	var err error
	if p.Session.User() == nil {
		err = errors.New("no session")
	}
	return p.finishLoad(err, "Please log in", func() {
		if p.isEditor() {
			p.title = "Admin Dashboard"
		} else {
			p.title = "Student Dashboard"
		}
	})
}

func (p *DashboardPage) Controls() []Control {
	if p.isEditor() {
		return []Control{ControlManageUsers, ControlPlatformSettings, ControlViewSubmissions}
	}
	return []Control{ControlGoCourses, ControlGoAssignments}
}

func (p *DashboardPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct {
		Header header
		Editor bool
	}{p.headerLocked(ctrls), p.isEditor()}
	p.mu.Unlock()
	return render(w, "dashboard", v)
}

// LoginPage signs the user in.
type LoginPage struct {
	page
}

var _ Page = (*LoginPage)(nil)

func NewLoginPage(deps Deps) *LoginPage {
	p := &LoginPage{}
	p.init("Login", deps)
	return p
}

func (p *LoginPage) Load(context.Context) error {
	return p.finishLoad(nil, "", nil)
}

func (p *LoginPage) Controls() []Control {
	if p.Session.User() != nil {
		return []Control{ControlLogout}
	}
	return []Control{ControlLogin}
}

// Login reports every failure, rejected credentials or not, as ErrInvalidCredentials.
func (p *LoginPage) Login(ctx context.Context, email, password string) error {
	if err := p.begin("login"); err != nil {
		return err
	}
	defer p.end("login")

	ok, err := p.Session.Login(ctx, email, password)
	if err != nil {
		p.Logger.Info("login failed", err, map[string]interface{}{"email": email})
	}
	if err != nil || !ok {
		p.setStatus("Invalid credentials")
		return ErrInvalidCredentials
	}
	return nil
}

func (p *LoginPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct{ Header header }{p.headerLocked(ctrls)}
	p.mu.Unlock()
	return render(w, "login", v)
}

// AccountForm is what an editor fills in to create an account. Role defaults to student.
type AccountForm struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// RegisterPage lets editors create accounts. The current session is left untouched.
type RegisterPage struct {
	page
}

var _ Page = (*RegisterPage)(nil)

func NewRegisterPage(deps Deps) *RegisterPage {
	p := &RegisterPage{}
	p.init("Register", deps)
	return p
}

func (p *RegisterPage) Load(context.Context) error {
	return p.finishLoad(nil, "", nil)
}

func (p *RegisterPage) Controls() []Control {
	return editorOnly(p.isEditor(), ControlCreateAccount)
}

// Roles are the choices of the role selector.
func (p *RegisterPage) Roles() []string {
	return lms.AllRoles
}

func (p *RegisterPage) Register(ctx context.Context, form AccountForm) error {
	if err := p.gate(ControlCreateAccount, p.Controls()); err != nil {
		return err
	}
	if err := p.begin("register"); err != nil {
		return err
	}
	defer p.end("register")

	if form.Role == "" {
		form.Role = lms.RoleStudent
	}
	ok, err := p.Session.Register(ctx, form.Name, form.Email, form.Password, form.Role)
	switch {
	case core.IsValidationError(err):
		p.setStatus(err.Error())
		return err
	case err != nil:
		return p.fail("Failed to create account", err)
	case !ok:
		return p.fail("Failed to create account", errors.New("account creation refused"))
	}
	p.setStatus("Account created")
	return nil
}

func (p *RegisterPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct {
		Header header
		Roles  []string
	}{p.headerLocked(ctrls), lms.AllRoles}
	p.mu.Unlock()
	return render(w, "register", v)
}
