package inmemdb

import (
	"time"

	"github.com/trezcool/masomo-portal/core/lms"
)

var nowFunc = time.Now // mockable

// Courses

func (db *DB) CreateCourse(nc lms.NewCourse) lms.Course {
	return db.courses.insert(func(id int) lms.Course {
		return lms.Course{
			ID:          id,
			Title:       nc.Title,
			Description: nc.Description,
			Overview:    nc.Overview,
			Resources:   nc.Resources,
		}
	})
}

func (db *DB) ListCourses() []lms.Course {
	return db.courses.query(nil)
}

func (db *DB) GetCourse(id int) (lms.Course, error) {
	return db.courses.get(id)
}

func (db *DB) UpdateCourse(id int, uc lms.UpdateCourse) (lms.Course, error) {
	return db.courses.update(id, func(c lms.Course) lms.Course {
		c.Overview = uc.Overview
		c.Resources = uc.Resources
		return c
	})
}

// Assignments

// CreateAssignment stores na; its course must exist.
func (db *DB) CreateAssignment(na lms.NewAssignment) (lms.Assignment, error) {
	if _, err := db.courses.get(na.CourseID); err != nil {
		return lms.Assignment{}, err
	}
	return db.assignments.insert(func(id int) lms.Assignment {
		return lms.Assignment{
			ID:          id,
			Title:       na.Title,
			Due:         na.Due,
			CourseID:    na.CourseID,
			Description: na.Description,
		}
	}), nil
}

func (db *DB) ListAssignments() []lms.Assignment {
	return db.assignments.query(nil)
}

func (db *DB) GetAssignment(id int) (lms.Assignment, error) {
	return db.assignments.get(id)
}

// Submissions

// CreateSubmission records a student's work on an assignment, denormalizing the titles.
func (db *DB) CreateSubmission(assignmentID int, studentEmail string, sa lms.SubmitAssignment) (lms.Submission, error) {
	asgmt, err := db.assignments.get(assignmentID)
	if err != nil {
		return lms.Submission{}, err
	}
	var courseTitle string
	if course, err := db.courses.get(asgmt.CourseID); err == nil {
		courseTitle = course.Title
	}
	return db.submissions.insert(func(id int) lms.Submission {
		return lms.Submission{
			ID:              id,
			AssignmentID:    asgmt.ID,
			CourseID:        asgmt.CourseID,
			AssignmentTitle: asgmt.Title,
			CourseTitle:     courseTitle,
			StudentEmail:    studentEmail,
			SubmittedAt:     nowFunc().UTC(),
			File:            sa.File,
			Text:            sa.Text,
		}
	}), nil
}

// GetLatestSubmission returns the newest submission of studentEmail for an assignment.
func (db *DB) GetLatestSubmission(assignmentID int, studentEmail string) (lms.Submission, error) {
	subs := db.submissions.query(func(s lms.Submission) bool {
		return s.AssignmentID == assignmentID && s.StudentEmail == studentEmail
	})
	if len(subs) == 0 {
		return lms.Submission{}, ErrNotFound
	}
	return subs[0], nil
}

func (db *DB) ListSubmissions(filter lms.SubmissionFilter) []lms.Submission {
	return db.submissions.query(func(s lms.Submission) bool {
		if filter.CourseID != 0 && s.CourseID != filter.CourseID {
			return false
		}
		return filter.AssignmentID == 0 || s.AssignmentID == filter.AssignmentID
	})
}

// Gradebook

func (db *DB) CreateGradebookEntry(ne lms.NewGradebookEntry) lms.GradebookEntry {
	return db.gradebook.insert(func(id int) lms.GradebookEntry {
		return lms.GradebookEntry{
			ID:           id,
			Course:       ne.Course,
			Assignment:   ne.Assignment,
			StudentEmail: ne.StudentEmail,
			Grade:        ne.Grade,
			Feedback:     ne.Feedback,
		}
	})
}

// ListGradebook returns every entry, or only those of studentEmail when it is set.
func (db *DB) ListGradebook(studentEmail string) []lms.GradebookEntry {
	return db.gradebook.query(func(e lms.GradebookEntry) bool {
		return studentEmail == "" || e.StudentEmail == studentEmail
	})
}

func (db *DB) UpdateGradebookEntry(id int, ue lms.UpdateGradebookEntry) (lms.GradebookEntry, error) {
	return db.gradebook.update(id, func(e lms.GradebookEntry) lms.GradebookEntry {
		e.Grade = ue.Grade
		e.Feedback = ue.Feedback
		return e
	})
}

// Announcements

func (db *DB) CreateAnnouncement(na lms.NewAnnouncement) lms.Announcement {
	return db.announcements.insert(func(id int) lms.Announcement {
		return lms.Announcement{ID: id, Title: na.Title, Body: na.Body}
	})
}

func (db *DB) ListAnnouncements() []lms.Announcement {
	return db.announcements.query(nil)
}
