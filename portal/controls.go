package portal

// Control is a user-facing action label.
type Control string

// Everyone.
const (
	ControlSubmit         Control = "Submit"
	ControlGoCourses      Control = "Go to Courses"
	ControlGoAssignments  Control = "Go to Assignments"
	ControlLogin          Control = "Login"
	ControlLogout         Control = "Logout"
	ControlFilterCourse   Control = "Filter by Course"
	ControlFilterAssignmt Control = "Filter by Assignment"
)

// Editors only.
const (
	ControlCreateCourse      Control = "Create Course"
	ControlSaveCourse        Control = "Save Changes"
	ControlPostAssignment    Control = "Post Assignment"
	ControlViewSubmissions   Control = "View Submissions"
	ControlGrade             Control = "Grade"
	ControlOpenFile          Control = "Open"
	ControlAddGrade          Control = "Add Grade"
	ControlSaveGrade         Control = "Save"
	ControlPostAnnouncement  Control = "Post Announcement"
	ControlCreateAccount     Control = "Create Account"
	ControlManageUsers       Control = "Manage Users"
	ControlPlatformSettings  Control = "Platform Settings"
)

// EditorControls are never shown to students.
var EditorControls = []Control{
	ControlCreateCourse,
	ControlSaveCourse,
	ControlPostAssignment,
	ControlViewSubmissions,
	ControlGrade,
	ControlOpenFile,
	ControlAddGrade,
	ControlSaveGrade,
	ControlPostAnnouncement,
	ControlCreateAccount,
	ControlManageUsers,
	ControlPlatformSettings,
}

func hasControl(ctrls []Control, ctrl Control) bool {
	for _, c := range ctrls {
		if c == ctrl {
			return true
		}
	}
	return false
}

// editorOnly returns ctrls for editors and nothing for everyone else.
func editorOnly(isEditor bool, ctrls ...Control) []Control {
	if !isEditor {
		return nil
	}
	return ctrls
}
