package form

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
)

var (
	// errors
	ErrNotFound = errors.New("form not found")
	// ErrHeaderMismatch is reported when a sheet is missing one of the two
	// reserved columns; no answers of that sheet are touched.
	ErrHeaderMismatch = errors.New("sheet headers do not match the expected form layout")
)

type (
	Repository interface {
		QueryForms(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Form, error)
		CreateForm(ctx context.Context, frm Form, exec ...core.DBExecutor) (Form, error)
		UpdateForm(ctx context.Context, frm Form, exec ...core.DBExecutor) (Form, error)

		QueryQuestions(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Question, error)
		CreateQuestion(ctx context.Context, qst Question, exec ...core.DBExecutor) (Question, error)

		QueryFormAnswers(ctx context.Context, formID string, exec ...core.DBExecutor) ([]Answer, error)
		CreateAnswer(ctx context.Context, ans Answer, exec ...core.DBExecutor) (Answer, error)
		UpdateAnswer(ctx context.Context, ans Answer, exec ...core.DBExecutor) (Answer, error)
		// LatestAnswerTime returns the maximum Answer timestamp across the
		// form, or the zero time when it has no answers.
		LatestAnswerTime(ctx context.Context, formID string, exec ...core.DBExecutor) (time.Time, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		courseRepo course.Repository
		sheetSvc   core.SheetService
		logger     core.Logger
		now        func() time.Time
	}
)

func NewService(db core.DB, repo Repository, courseRepo course.Repository, sheetSvc core.SheetService, logger core.Logger) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		courseRepo: courseRepo,
		sheetSvc:   sheetSvc,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) QueryByCourse(ctx context.Context, courseID string) ([]Form, error) {
	return svc.repo.QueryForms(ctx, courseID)
}

func (svc *Service) QueryQuestions(ctx context.Context, courseID string) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, courseID)
}

func (svc *Service) QueryAnswers(ctx context.Context, formID string) ([]Answer, error) {
	return svc.repo.QueryFormAnswers(ctx, formID)
}

// CourseSheets lists the worksheets of a course's external file along with
// their tracking state and freshness, as the next pass would see them.
func (svc *Service) CourseSheets(ctx context.Context, courseID string, cfg core.SyncConfig) ([]SheetStatus, error) {
	crs, err := svc.courseRepo.GetCourse(ctx, course.GetFilter{ID: courseID})
	if err != nil {
		return nil, err
	}
	file, err := svc.sheetSvc.GetFile(ctx, crs.FileID)
	if err != nil {
		return nil, err
	}
	forms, err := svc.repo.QueryForms(ctx, crs.ID)
	if err != nil {
		return nil, err
	}
	bySheet := make(map[int64]Form, len(forms))
	for _, frm := range forms {
		bySheet[frm.SheetID] = frm
	}

	statuses := make([]SheetStatus, 0, len(file.Worksheets()))
	for _, ws := range file.Worksheets() {
		status := SheetStatus{Worksheet: ws}
		if frm, ok := bySheet[ws.ID]; ok {
			status.Tracked = true
			status.LastEntryAt = frm.LastEntryAt
			status.LastReadAt = frm.LastReadAt
			status.Stale = frm.IsStale(cfg.MaxDaysSheetUnchanged)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
