package course

import (
	"time"

	"github.com/trezcool/maoni/core"
)

type Course struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// external spreadsheet holding this course's weekly forms
	FileID       string `json:"file_id"`
	FileName     string `json:"file_name"`
	FileTimeZone string `json:"file_time_zone"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// IsCurrent reports whether the course should still be synchronized: its
// file is set, it has started, and it ended no more than maxDaysToEndDate ago.
func (c Course) IsCurrent(now time.Time, maxDaysToEndDate int) bool {
	if c.FileID == "" {
		return false
	}
	minEndDate := now.Add(-core.Days(maxDaysToEndDate))
	return c.EndDate.After(minEndDate) && !c.StartDate.After(now)
}

// Location resolves the course's cached file timezone, falling back to UTC
// when it is unset or unknown.
func (c Course) Location() *time.Location {
	if c.FileTimeZone != "" {
		if loc, err := time.LoadLocation(c.FileTimeZone); err == nil {
			return loc
		}
	}
	return time.UTC
}

type Student struct {
	ID        string    `json:"id"`
	LastName  string    `json:"last_name"`
	FirstName string    `json:"first_name"`
	Email     string    `json:"email"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Label     string    `json:"label" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	FileID    string    `json:"file_id" validate:"required"`
}

func (nc *NewCourse) Validate(svc *Service) error {
	nc.Label = core.CleanString(nc.Label)
	nc.FileID = core.CleanString(nc.FileID)

	if err := core.Validate.Struct(nc); err != nil {
		return core.TranslateValidationErrors(err)
	}
	if nc.StartDate.After(nc.EndDate) {
		return core.NewValidationError(
			errStartAfterEnd,
			core.FieldError{Field: "start_date", Error: errStartAfterEnd.Error()},
		)
	}
	return svc.CheckCourseUniqueness(nc.Label, nc.FileID)
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	LastName  string `json:"last_name" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	CourseID  string `json:"course_id" validate:"required"`
}

func (ns *NewStudent) Validate(svc *Service) error {
	ns.LastName = core.CleanString(ns.LastName)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.CourseID = core.CleanString(ns.CourseID)

	if err := core.Validate.Struct(ns); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return svc.CheckStudentEmailUniqueness(ns.Email)
}

// QueryFilter applies AND operation on available fields.
type QueryFilter struct {
	HasFileID        bool
	EndDateAfter     time.Time
	StartsOnOrBefore time.Time
}

func (qf *QueryFilter) IsEmpty() bool {
	return !qf.HasFileID && qf.EndDateAfter.IsZero() && qf.StartsOnOrBefore.IsZero()
}

// GetFilter selects a single Course by one of its unique fields.
type GetFilter struct {
	ID     string
	Label  string
	FileID string
}

// Attachments counts the records still owned by a Course.
type Attachments struct {
	Students  int
	Questions int
	Forms     int
}

func (a Attachments) IsEmpty() bool {
	return a.Students == 0 && a.Questions == 0 && a.Forms == 0
}
