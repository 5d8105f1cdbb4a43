package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/lms"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
)

// demo accounts, email => role; the password is the role name
var demoAccounts = map[string]string{
	"admin@masomo.cd":   lms.RoleAdmin,
	"teacher@masomo.cd": lms.RoleTeacher,
	"student@masomo.cd": lms.RoleStudent,
}

func seedDB(db *inmemdb.DB) error {
	for email, role := range demoAccounts {
		if _, err := db.CreateAccount(email, role, role); err != nil {
			return errors.Wrapf(err, "creating %s", email)
		}
	}

	intro := db.CreateCourse(lms.NewCourse{
		Title:       "Introduction to Programming",
		Description: "Variables, control flow and functions.",
		Overview:    "Weekly lectures on Monday, labs on Thursday.",
		Resources:   "Lecture notes are published after each class.",
	})
	due := "2030-01-31"
	if _, err := db.CreateAssignment(lms.NewAssignment{
		Title:       "Hello, World",
		Due:         &due,
		CourseID:    intro.ID,
		Description: "Write a program printing a greeting and submit its source.",
	}); err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	db.CreateAnnouncement(lms.NewAnnouncement{Title: "Welcome", Body: "The semester starts next week."})
	return nil
}
