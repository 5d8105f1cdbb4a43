package lms

import (
	"strconv"
	"time"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var AllRoles = []string{RoleStudent, RoleTeacher, RoleAdmin}

// IsEditorRole reports whether role grants the authoring UI.
func IsEditorRole(role string) bool {
	return role == RoleTeacher || role == RoleAdmin
}

// User is the identity returned by the backend on login.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Course struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Overview    string `json:"overview"`
	Resources   string `json:"resources"`
}

func (c Course) Key() int { return c.ID }

type NewCourse struct {
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description"`
	Overview    string `json:"overview"`
	Resources   string `json:"resources"`
}

type UpdateCourse struct {
	Overview  string `json:"overview"`
	Resources string `json:"resources"`
}

type Assignment struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Due         *string `json:"due"`
	CourseID    int     `json:"courseId"`
	Description string  `json:"description"`
}

func (a Assignment) Key() int { return a.ID }

// DueLabel is the deadline as shown to users.
func (a Assignment) DueLabel() string {
	if a.Due == nil || *a.Due == "" {
		return "none"
	}
	return *a.Due
}

type NewAssignment struct {
	Title       string  `json:"title" validate:"notblank"`
	Due         *string `json:"due" validate:"omitempty,datetime=2006-01-02"`
	CourseID    int     `json:"courseId" validate:"required"`
	Description string  `json:"description"`
}

// SubmittedFile is a file attached to a Submission; Data is the base64 payload.
type SubmittedFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// SizeKB is the file size rounded to the nearest KB.
func (f SubmittedFile) SizeKB() int64 {
	return (f.Size + 512) / 1024
}

type Submission struct {
	ID              int            `json:"id"`
	AssignmentID    int            `json:"assignmentId"`
	CourseID        int            `json:"courseId"`
	AssignmentTitle string         `json:"assignmentTitle,omitempty"`
	CourseTitle     string         `json:"courseTitle,omitempty"`
	StudentEmail    string         `json:"studentEmail"`
	SubmittedAt     time.Time      `json:"submittedAt"`
	File            *SubmittedFile `json:"file,omitempty"`
	Text            string         `json:"text,omitempty"`
}

func (s Submission) Key() int { return s.ID }

// CourseLabel is the course title, or its id when the backend did not denormalize it.
func (s Submission) CourseLabel() string {
	if s.CourseTitle != "" {
		return s.CourseTitle
	}
	return strconv.Itoa(s.CourseID)
}

// AssignmentLabel is the assignment title, or its id when the backend did not denormalize it.
func (s Submission) AssignmentLabel() string {
	if s.AssignmentTitle != "" {
		return s.AssignmentTitle
	}
	return strconv.Itoa(s.AssignmentID)
}

// SubmitAssignment is the payload of a submission. File is null when no file was selected.
type SubmitAssignment struct {
	File *SubmittedFile `json:"file"`
	Text string         `json:"text"`
}

type SubmitResult struct {
	OK         bool        `json:"ok"`
	Submission *Submission `json:"submission,omitempty"`
}

type SubmissionFilter struct {
	CourseID     int
	AssignmentID int
}

type GradebookEntry struct {
	ID           int      `json:"id"`
	Course       string   `json:"course"`
	Assignment   string   `json:"assignment"`
	StudentEmail string   `json:"studentEmail"`
	Grade        *float64 `json:"grade"`
	Feedback     string   `json:"feedback"`
}

func (e GradebookEntry) Key() int { return e.ID }

// GradeLabel renders the grade as a percentage; empty when ungraded.
func (e GradebookEntry) GradeLabel() string {
	if e.Grade == nil {
		return ""
	}
	return strconv.FormatFloat(*e.Grade, 'f', -1, 64) + "%"
}

type NewGradebookEntry struct {
	Course       string   `json:"course" validate:"notblank"`
	Assignment   string   `json:"assignment" validate:"notblank"`
	StudentEmail string   `json:"studentEmail" validate:"notblank"`
	Grade        *float64 `json:"grade" validate:"omitempty,gte=0,lte=100"`
	Feedback     string   `json:"feedback"`
}

type UpdateGradebookEntry struct {
	Grade    *float64 `json:"grade" validate:"omitempty,gte=0,lte=100"`
	Feedback string   `json:"feedback"`
}

type Announcement struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (a Announcement) Key() int { return a.ID }

type NewAnnouncement struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Student struct {
	Email string `json:"email"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the login response. User and Token are optional.
type AuthResult struct {
	OK    bool   `json:"ok"`
	User  *User  `json:"user,omitempty"`
	Token string `json:"token,omitempty"`
}

// NewAccount contains what an editor provides to create another account.
// Name is collected by the form but not part of the backend contract.
type NewAccount struct {
	Name     string `json:"-"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=student teacher admin"`
}

type AccountResult struct {
	OK bool `json:"ok"`
}
