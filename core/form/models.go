package form

import (
	"time"

	"github.com/trezcool/maoni/core"
)

// Form represents one external worksheet already ingested for a course.
// It collects the answers of one week's survey.
type Form struct {
	ID         string `json:"id"`
	SheetID    int64  `json:"sheet_id"`
	SheetLabel string `json:"sheet_label"`

	// freshness timestamps
	LastEntryAt time.Time `json:"last_entry_at"` // latest respondent timestamp seen
	LastReadAt  time.Time `json:"last_read_at"`  // time of last successful read

	CourseID string `json:"course_id"`
}

// IsStale reports whether the form has had no new entries for longer than
// the staleness window, relative to its last read. Stale forms are not
// re-read on a synchronization pass.
func (f Form) IsStale(maxDaysUnchanged int) bool {
	return f.LastEntryAt.Before(f.LastReadAt.Add(-core.Days(maxDaysUnchanged)))
}

// Question belongs to one course; its type is inferred once at discovery
// and never revised afterward.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	// IsInt is true when every observed answer parses as an integer (grades),
	// false for free-text.
	IsInt    bool   `json:"is_int"`
	CourseID string `json:"course_id"`
}

// Answer holds one respondent's answer to one question within one form.
// At most one Answer exists per (Student, Question) pair within a Form; a
// later response overwrites text and timestamp in place.
type Answer struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Text       string    `json:"text"`
	FormID     string    `json:"form_id"`
	StudentID  string    `json:"student_id"`
	QuestionID string    `json:"question_id"`
}

// SheetStatus summarizes one worksheet of a course's file for display:
// whether it is tracked yet, its freshness dates, and whether the next pass
// would skip it as stale.
type SheetStatus struct {
	Worksheet   core.Worksheet `json:"worksheet"`
	Tracked     bool           `json:"tracked"`
	LastEntryAt time.Time      `json:"last_entry_at,omitempty"`
	LastReadAt  time.Time      `json:"last_read_at,omitempty"`
	Stale       bool           `json:"stale"`
}
