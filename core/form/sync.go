package form

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
)

// Result aggregates the outcome of one synchronization pass. Messages list
// every recoverable incident (unreachable file, header mismatch, unknown
// respondent, commit failure); OK is false only on a fatal condition.
type Result struct {
	OK       bool     `json:"ok"`
	Courses  int      `json:"courses"`
	Sheets   int      `json:"sheets"`
	Messages []string `json:"messages"`
}

func (r Result) Report() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "Synchronized %d sheet(s) across %d course(s).\n", r.Sheets, r.Courses)
	if len(r.Messages) == 0 {
		fmt.Fprint(b, "No incidents.\n")
	} else {
		fmt.Fprintf(b, "%d incident(s):\n", len(r.Messages))
		for _, msg := range r.Messages {
			fmt.Fprintf(b, "- %s\n", msg)
		}
	}
	return b.String()
}

// SyncAll runs one synchronization pass: it selects the current courses
// (file id set, not yet started excluded, ended no longer ago than the
// threshold) and reconciles every worksheet of each course's file. The
// failure of one course or one sheet never prevents processing of the
// others; only an invalid configuration or an unreachable course store
// aborts the pass.
func (svc *Service) SyncAll(ctx context.Context, cfg core.SyncConfig) (Result, error) {
	res := Result{OK: true}

	if err := cfg.Validate(); err != nil {
		res.OK = false
		return res, errors.Wrap(err, "sync configuration")
	}

	now := svc.now()
	courses, err := svc.courseRepo.QueryCourses(ctx, &course.QueryFilter{
		HasFileID:        true,
		EndDateAfter:     now.Add(-core.Days(cfg.MaxDaysToEndDate)),
		StartsOnOrBefore: now,
	})
	if err != nil {
		res.OK = false
		return res, errors.Wrap(err, "querying current courses")
	}

	for _, crs := range courses {
		res.Courses++
		svc.syncCourse(ctx, crs, cfg, &res)
	}
	return res, nil
}

// syncCourse drives one course's sheets. Outcomes are accumulated on res.
func (svc *Service) syncCourse(ctx context.Context, crs course.Course, cfg core.SyncConfig, res *Result) {
	file, err := svc.sheetSvc.GetFile(ctx, crs.FileID)
	if err != nil {
		res.Messages = append(res.Messages, fmt.Sprintf("course %q: fetching file: %v", crs.Label, err))
		return
	}
	crs = svc.refreshFileMetadata(ctx, crs, file)

	// read-only lookup maps, built once per course iteration
	students, err := svc.courseRepo.QueryStudents(ctx, crs.ID)
	if err != nil {
		res.Messages = append(res.Messages, fmt.Sprintf("course %q: querying students: %v", crs.Label, err))
		return
	}
	roster := make(map[string]course.Student, len(students))
	for _, std := range students {
		roster[core.CleanString(std.Email, true /* lower */)] = std
	}

	qsts, err := svc.repo.QueryQuestions(ctx, crs.ID)
	if err != nil {
		res.Messages = append(res.Messages, fmt.Sprintf("course %q: querying questions: %v", crs.Label, err))
		return
	}
	questions := make(map[string]Question, len(qsts))
	for _, qst := range qsts {
		questions[qst.Text] = qst
	}

	forms, err := svc.repo.QueryForms(ctx, crs.ID)
	if err != nil {
		res.Messages = append(res.Messages, fmt.Sprintf("course %q: querying forms: %v", crs.Label, err))
		return
	}
	bySheet := make(map[int64]Form, len(forms))
	for _, frm := range forms {
		bySheet[frm.SheetID] = frm
	}

	for _, ws := range file.Worksheets() {
		svc.syncSheet(ctx, crs, file, ws, bySheet, roster, questions, cfg, res)
	}
}

// refreshFileMetadata updates the course's cached file display name and
// timezone when the fetched file differs. Best effort: a failure here does
// not prevent the course's sheets from synchronizing.
func (svc *Service) refreshFileMetadata(ctx context.Context, crs course.Course, file core.SheetFile) course.Course {
	if crs.FileName == file.Name() && crs.FileTimeZone == file.TimeZone() {
		return crs
	}
	crs.FileName = file.Name()
	crs.FileTimeZone = file.TimeZone()
	crs.UpdatedAt = svc.now()
	updated, err := svc.courseRepo.UpdateCourse(ctx, crs)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("course %q: caching file metadata: %v", crs.Label, err))
		return crs
	}
	return updated
}

// syncSheet runs the per-sheet state machine:
//   - Unknown sheet + empty data: stay untracked, no record created.
//   - Unknown sheet + data: create the tracked form, then reconcile.
//   - Tracked + stale: skip without re-reading.
//   - Tracked + fresh: re-read, reconcile, recompute freshness.
//
// All mutations for the sheet commit or roll back as one unit; on rollback
// the form's dates keep their pre-attempt values.
func (svc *Service) syncSheet(
	ctx context.Context,
	crs course.Course,
	file core.SheetFile,
	ws core.Worksheet,
	bySheet map[int64]Form,
	roster map[string]course.Student,
	questions map[string]Question,
	cfg core.SyncConfig,
	res *Result,
) {
	fail := func(format string, args ...interface{}) {
		msg := fmt.Sprintf("course %q, sheet %q: ", crs.Label, ws.Title) + fmt.Sprintf(format, args...)
		res.Messages = append(res.Messages, msg)
	}

	frm, tracked := bySheet[ws.ID]
	if tracked && frm.IsStale(cfg.MaxDaysSheetUnchanged) {
		staleDays := core.DeltaDays(frm.LastReadAt.Sub(frm.LastEntryAt))
		svc.logger.Debug(fmt.Sprintf("course %q, sheet %q: no new entries for %d day(s), skipping", crs.Label, ws.Title, staleDays))
		return
	}

	rows, err := file.Records(ctx, ws)
	if err != nil {
		fail("reading records: %v", err)
		return
	}
	if !tracked && len(rows) == 0 {
		return // empty forms are not tracked
	}

	now := svc.now()
	tx, err := svc.db.Begin(ctx)
	if err != nil {
		fail("beginning transaction: %v", err)
		return
	}

	if !tracked {
		frm, err = svc.repo.CreateForm(ctx, Form{
			SheetID:     ws.ID,
			SheetLabel:  ws.Title,
			LastEntryAt: now,
			LastReadAt:  now,
			CourseID:    crs.ID,
		}, tx)
		if err != nil {
			_ = tx.Rollback()
			fail("creating form: %v", err)
			return
		}
	}

	// question catalog first, so the reconciler resolves every header;
	// new questions only join the shared catalog once the sheet commits
	local := make(map[string]Question, len(questions))
	for text, qst := range questions {
		local[text] = qst
	}
	news := discoverQuestions(crs.ID, questions, rows)
	for i, qst := range news {
		qst, err = svc.repo.CreateQuestion(ctx, qst, tx)
		if err != nil {
			_ = tx.Rollback()
			fail("creating question %q: %v", qst.Text, err)
			return
		}
		news[i] = qst
		local[qst.Text] = qst
	}

	issues, err := svc.reconcileAnswers(ctx, tx, frm, rows, roster, local, crs.Location())
	for _, issue := range issues {
		fail("%s", issue)
	}
	if err != nil {
		_ = tx.Rollback()
		fail("%v", err)
		return
	}

	lastEntry, err := svc.repo.LatestAnswerTime(ctx, frm.ID, tx)
	if err != nil {
		_ = tx.Rollback()
		fail("recomputing last entry: %v", err)
		return
	}
	if !lastEntry.IsZero() {
		frm.LastEntryAt = lastEntry
	}
	frm.LastReadAt = now
	if frm, err = svc.repo.UpdateForm(ctx, frm, tx); err != nil {
		_ = tx.Rollback()
		fail("updating form: %v", err)
		return
	}

	if err = tx.Commit(); err != nil {
		_ = tx.Rollback()
		fail("commit: %v", err)
		return
	}

	res.Sheets++ // only committed sheets count as synchronized
	bySheet[ws.ID] = frm
	for _, qst := range news {
		questions[qst.Text] = qst
	}
}
