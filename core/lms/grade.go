package lms

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrGradeNotNumber  = errors.New("grade must be a number")
	ErrGradeOutOfRange = errors.New("grade must be between 0 and 100")
)

// ParseGrade coerces a grade input to a number or null. An empty input means null.
func ParseGrade(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	grade, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(grade) {
		return nil, ErrGradeNotNumber
	}
	if grade < 0 || grade > 100 {
		return nil, ErrGradeOutOfRange
	}
	return &grade, nil
}

// FilterAssignmentsByCourse keeps the assignments of courseID; 0 keeps them all.
func FilterAssignmentsByCourse(assignments []Assignment, courseID int) []Assignment {
	if courseID == 0 {
		return assignments
	}
	filtered := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.CourseID == courseID {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
