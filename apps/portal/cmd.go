package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/masomo-portal/core/lms"
	"github.com/trezcool/masomo-portal/portal"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in, run: portal login -email EMAIL")
)

type commandLine struct {
	deps portal.Deps
	out  io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL - log in, the password is prompted next")
	fmt.Fprintln(cli.out, "  logout - forget the current session")
	fmt.Fprintln(cli.out, "  register -email EMAIL [-name NAME] [-role student|teacher|admin] - create an account (teachers & admins)")
	fmt.Fprintln(cli.out, "  dashboard - show your dashboard")
	fmt.Fprintln(cli.out, "  courses [-create -title TITLE ...] - list or create courses")
	fmt.Fprintln(cli.out, "  course -id ID [-save -overview TEXT -resources TEXT] - show or edit a course")
	fmt.Fprintln(cli.out, "  assignments [-post -title TITLE -course ID ...] - list or post assignments")
	fmt.Fprintln(cli.out, "  assignment -id ID [-submit [-file PATH] [-text TEXT]] - show or submit an assignment")
	fmt.Fprintln(cli.out, "  submissions [-course ID] [-assignment ID] [-grade ID -value GRADE] [-open ID] - review submissions")
	fmt.Fprintln(cli.out, "  gradebook [-add -course ID -assignment ID -student EMAIL ...] [-save ID -grade GRADE] - show or edit grades")
	fmt.Fprintln(cli.out, "  announcements [-post -title TITLE -body TEXT] - list or post announcements")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd, args := args[1], args[2:]
	switch cmd {
	case "login":
		return cli.login(ctx, args)
	case "logout":
		cli.deps.Session.Logout()
		fmt.Fprintln(cli.out, "Logged out")
		return nil
	}

	if cli.deps.Session.User() == nil {
		return errNotLoggedIn
	}
	switch cmd {
	case "register":
		return cli.register(ctx, args)
	case "dashboard":
		return cli.show(ctx, portal.NewDashboardPage(cli.deps), nil)
	case "courses":
		return cli.courses(ctx, args)
	case "course":
		return cli.course(ctx, args)
	case "assignments":
		return cli.assignments(ctx, args)
	case "assignment":
		return cli.assignment(ctx, args)
	case "submissions":
		return cli.submissions(ctx, args)
	case "gradebook":
		return cli.gradebook(ctx, args)
	case "announcements":
		return cli.announcements(ctx, args)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) readPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// show loads p, runs action when the page loaded, then renders the page.
func (cli *commandLine) show(ctx context.Context, p portal.Page, action func() error) error {
	defer p.Close()
	if err := p.Load(ctx); err != nil {
		_ = p.Render(cli.out) // the error banner
		return err
	}
	var actionErr error
	if action != nil {
		actionErr = action()
	}
	if err := p.Render(cli.out); err != nil {
		return err
	}
	return actionErr
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "Your email. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.readPassword()
	if err != nil {
		return err
	}
	if pwd == "" {
		fs.Usage()
		return errHelp
	}
	page := portal.NewLoginPage(cli.deps)
	return cli.show(ctx, page, func() error {
		return page.Login(ctx, *email, pwd)
	})
}

func (cli *commandLine) register(ctx context.Context, args []string) error {
	fs := cli.flagSet("register")
	name := fs.String("name", "", "The user's name.")
	email := fs.String("email", "", "The user's email. The password will be prompted next.")
	role := fs.String("role", lms.RoleStudent, "The user's role: student, teacher or admin.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.readPassword()
	if err != nil {
		return err
	}
	page := portal.NewRegisterPage(cli.deps)
	return cli.show(ctx, page, func() error {
		return page.Register(ctx, portal.AccountForm{Name: *name, Email: *email, Password: pwd, Role: *role})
	})
}

func (cli *commandLine) courses(ctx context.Context, args []string) error {
	fs := cli.flagSet("courses")
	create := fs.Bool("create", false, "Create a course.")
	title := fs.String("title", "", "The new course's title.")
	description := fs.String("description", "", "The new course's short description.")
	overview := fs.String("overview", "", "The new course's overview.")
	resources := fs.String("resources", "", "The new course's resources.")
	if err := parse(fs, args); err != nil {
		return err
	}
	page := portal.NewCoursesPage(cli.deps)
	var action func() error
	if *create {
		action = func() error {
			_, err := page.CreateCourse(ctx, lms.NewCourse{Title: *title, Description: *description, Overview: *overview, Resources: *resources})
			return err
		}
	}
	return cli.show(ctx, page, action)
}

func (cli *commandLine) course(ctx context.Context, args []string) error {
	fs := cli.flagSet("course")
	id := fs.Int("id", 0, "The course's id.")
	save := fs.Bool("save", false, "Replace the course's overview and resources.")
	overview := fs.String("overview", "", "The course's overview.")
	resources := fs.String("resources", "", "The course's resources.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == 0 {
		fs.Usage()
		return errHelp
	}
	page := portal.NewCourseDetailPage(cli.deps, *id)
	var action func() error
	if *save {
		action = func() error {
			_, err := page.Save(ctx, lms.UpdateCourse{Overview: *overview, Resources: *resources})
			return err
		}
	}
	return cli.show(ctx, page, action)
}

func (cli *commandLine) assignments(ctx context.Context, args []string) error {
	fs := cli.flagSet("assignments")
	post := fs.Bool("post", false, "Post an assignment.")
	title := fs.String("title", "", "The new assignment's title.")
	due := fs.String("due", "", "The new assignment's deadline, YYYY-MM-DD.")
	courseID := fs.Int("course", 0, "The new assignment's course id.")
	description := fs.String("description", "", "The new assignment's instructions.")
	if err := parse(fs, args); err != nil {
		return err
	}
	page := portal.NewAssignmentsPage(cli.deps)
	var action func() error
	if *post {
		action = func() error {
			_, err := page.Post(ctx, portal.AssignmentForm{Title: *title, Due: *due, CourseID: *courseID, Description: *description})
			return err
		}
	}
	return cli.show(ctx, page, action)
}

func (cli *commandLine) assignment(ctx context.Context, args []string) error {
	fs := cli.flagSet("assignment")
	id := fs.Int("id", 0, "The assignment's id.")
	submit := fs.Bool("submit", false, "Submit a file and/or a text.")
	file := fs.String("file", "", "The file to submit.")
	text := fs.String("text", "", "The text to submit.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == 0 {
		fs.Usage()
		return errHelp
	}
	page := portal.NewAssignmentDetailPage(cli.deps, *id)
	var action func() error
	if *submit {
		action = func() error {
			if *file != "" {
				if err := page.SelectFile(*file); err != nil {
					return err
				}
			}
			_, err := page.Submit(ctx, *text)
			return err
		}
	}
	return cli.show(ctx, page, action)
}

func (cli *commandLine) submissions(ctx context.Context, args []string) error {
	fs := cli.flagSet("submissions")
	courseID := fs.Int("course", 0, "Only show the submissions of this course.")
	assignmentID := fs.Int("assignment", 0, "Only show the submissions of this assignment.")
	gradeID := fs.Int("grade", 0, "Grade this submission.")
	value := fs.String("value", "", "The grade, 0 to 100. Empty for no grade.")
	feedback := fs.String("feedback", "", "The grade's feedback.")
	openID := fs.Int("open", 0, "Open the file of this submission.")
	if err := parse(fs, args); err != nil {
		return err
	}
	page := portal.NewSubmissionsPage(cli.deps)
	return cli.show(ctx, page, func() error {
		if *courseID != 0 {
			if err := page.SelectCourse(ctx, *courseID); err != nil {
				return err
			}
		}
		if *assignmentID != 0 {
			if err := page.SelectAssignment(ctx, *assignmentID); err != nil {
				return err
			}
		}
		if *gradeID != 0 {
			if _, err := page.Grade(ctx, *gradeID, *value, *feedback); err != nil {
				return err
			}
		}
		if *openID != 0 {
			path, err := page.OpenFile(*openID)
			if err != nil {
				return err
			}
			delay := cli.deps.FileReleaseDelay
			fmt.Fprintf(cli.out, "Opened %s, it will be deleted in %s\n", path, delay)
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
		return nil
	})
}

func (cli *commandLine) gradebook(ctx context.Context, args []string) error {
	fs := cli.flagSet("gradebook")
	add := fs.Bool("add", false, "Add a grade.")
	courseID := fs.Int("course", 0, "The new grade's course id.")
	assignmentID := fs.Int("assignment", 0, "The new grade's assignment id.")
	student := fs.String("student", "", "The new grade's student email.")
	saveID := fs.Int("save", 0, "Replace the grade and feedback of this row.")
	grade := fs.String("grade", "", "The grade, 0 to 100. Empty for no grade.")
	feedback := fs.String("feedback", "", "The grade's feedback.")
	if err := parse(fs, args); err != nil {
		return err
	}
	page := portal.NewGradebookPage(cli.deps)
	var action func() error
	switch {
	case *add:
		action = func() error {
			_, err := page.AddGrade(ctx, portal.GradeForm{
				CourseID:     *courseID,
				AssignmentID: *assignmentID,
				StudentEmail: *student,
				Grade:        *grade,
				Feedback:     *feedback,
			})
			return err
		}
	case *saveID != 0:
		action = func() error {
			_, err := page.SaveRow(ctx, *saveID, *grade, *feedback)
			return err
		}
	}
	return cli.show(ctx, page, action)
}

func (cli *commandLine) announcements(ctx context.Context, args []string) error {
	fs := cli.flagSet("announcements")
	post := fs.Bool("post", false, "Post an announcement.")
	title := fs.String("title", "", "The new announcement's title.")
	body := fs.String("body", "", "The new announcement's body.")
	if err := parse(fs, args); err != nil {
		return err
	}
	page := portal.NewAnnouncementsPage(cli.deps)
	var action func() error
	if *post {
		action = func() error {
			_, err := page.Post(ctx, lms.NewAnnouncement{Title: *title, Body: *body})
			return err
		}
	}
	return cli.show(ctx, page, action)
}
