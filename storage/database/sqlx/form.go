package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/form"
)

type dbForm struct {
	ID          string      `db:"id"`
	SheetID     int64       `db:"sheet_id"`
	SheetLabel  null.String `db:"sheet_label"`
	LastEntryAt time.Time   `db:"last_entry_at"`
	LastReadAt  time.Time   `db:"last_read_at"`
	CourseID    string      `db:"course_id"`
}

type dbQuestion struct {
	ID       string `db:"id"`
	Text     string `db:"text"`
	IsInt    bool   `db:"is_int"`
	CourseID string `db:"course_id"`
}

type dbAnswer struct {
	ID         string    `db:"id"`
	Timestamp  time.Time `db:"ts"`
	Text       string    `db:"text"`
	FormID     string    `db:"form_id"`
	StudentID  string    `db:"student_id"`
	QuestionID string    `db:"question_id"`
}

type formRepository struct {
	exec core.DBExecutor
}

var _ form.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(exec core.DBExecutor) *formRepository {
	return &formRepository{exec: exec}
}

func (repo formRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo formRepository) model(frm form.Form) dbForm {
	return dbForm{
		ID:          frm.ID,
		SheetID:     frm.SheetID,
		SheetLabel:  null.NewString(frm.SheetLabel, frm.SheetLabel != ""),
		LastEntryAt: frm.LastEntryAt.UTC(),
		LastReadAt:  frm.LastReadAt.UTC(),
		CourseID:    frm.CourseID,
	}
}

func (repo formRepository) unmodel(frm dbForm) form.Form {
	return form.Form{
		ID:          frm.ID,
		SheetID:     frm.SheetID,
		SheetLabel:  frm.SheetLabel.String,
		LastEntryAt: frm.LastEntryAt,
		LastReadAt:  frm.LastReadAt,
		CourseID:    frm.CourseID,
	}
}

func (repo formRepository) QueryForms(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]form.Form, error) {
	var ms []dbForm
	err := repo.getExec(exec).SelectContext(ctx, &ms,
		`SELECT id, sheet_id, sheet_label, last_entry_at, last_read_at, course_id
		 FROM form WHERE course_id = $1 ORDER BY sheet_id`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying forms")
	}
	forms := make([]form.Form, 0, len(ms))
	for _, m := range ms {
		forms = append(forms, repo.unmodel(m))
	}
	return forms, nil
}

func (repo formRepository) CreateForm(ctx context.Context, frm form.Form, exec ...core.DBExecutor) (form.Form, error) {
	frm.ID = uuid.New().String()
	m := repo.model(frm)
	_, err := repo.getExec(exec).NamedExecContext(ctx,
		`INSERT INTO form (id, sheet_id, sheet_label, last_entry_at, last_read_at, course_id)
		 VALUES (:id, :sheet_id, :sheet_label, :last_entry_at, :last_read_at, :course_id)`, m)
	if err != nil {
		return form.Form{}, errors.Wrap(err, "inserting form")
	}
	return repo.unmodel(m), nil
}

func (repo formRepository) UpdateForm(ctx context.Context, frm form.Form, exec ...core.DBExecutor) (form.Form, error) {
	m := repo.model(frm)
	_, err := repo.getExec(exec).NamedExecContext(ctx,
		`UPDATE form
		 SET sheet_label = :sheet_label, last_entry_at = :last_entry_at, last_read_at = :last_read_at
		 WHERE id = :id`, m)
	if err != nil {
		return form.Form{}, errors.Wrap(err, "updating form")
	}
	return repo.unmodel(m), nil
}

func (repo formRepository) QueryQuestions(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]form.Question, error) {
	var ms []dbQuestion
	err := repo.getExec(exec).SelectContext(ctx, &ms,
		`SELECT id, text, is_int, course_id FROM question WHERE course_id = $1 ORDER BY text`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]form.Question, 0, len(ms))
	for _, m := range ms {
		questions = append(questions, form.Question(m))
	}
	return questions, nil
}

func (repo formRepository) CreateQuestion(ctx context.Context, qst form.Question, exec ...core.DBExecutor) (form.Question, error) {
	qst.ID = uuid.New().String()
	m := dbQuestion(qst)
	_, err := repo.getExec(exec).NamedExecContext(ctx,
		`INSERT INTO question (id, text, is_int, course_id)
		 VALUES (:id, :text, :is_int, :course_id)`, m)
	if err != nil {
		return form.Question{}, errors.Wrap(err, "inserting question")
	}
	return form.Question(m), nil
}

func (repo formRepository) QueryFormAnswers(ctx context.Context, formID string, exec ...core.DBExecutor) ([]form.Answer, error) {
	var ms []dbAnswer
	err := repo.getExec(exec).SelectContext(ctx, &ms,
		`SELECT id, ts, text, form_id, student_id, question_id
		 FROM answer WHERE form_id = $1`, formID)
	if err != nil {
		return nil, errors.Wrap(err, "querying form answers")
	}
	answers := make([]form.Answer, 0, len(ms))
	for _, m := range ms {
		answers = append(answers, form.Answer(m))
	}
	return answers, nil
}

func (repo formRepository) CreateAnswer(ctx context.Context, ans form.Answer, exec ...core.DBExecutor) (form.Answer, error) {
	ans.ID = uuid.New().String()
	m := dbAnswer(ans)
	m.Timestamp = m.Timestamp.UTC()
	_, err := repo.getExec(exec).NamedExecContext(ctx,
		`INSERT INTO answer (id, ts, text, form_id, student_id, question_id)
		 VALUES (:id, :ts, :text, :form_id, :student_id, :question_id)`, m)
	if err != nil {
		return form.Answer{}, errors.Wrap(err, "inserting answer")
	}
	return form.Answer(m), nil
}

func (repo formRepository) UpdateAnswer(ctx context.Context, ans form.Answer, exec ...core.DBExecutor) (form.Answer, error) {
	m := dbAnswer(ans)
	m.Timestamp = m.Timestamp.UTC()
	_, err := repo.getExec(exec).NamedExecContext(ctx,
		`UPDATE answer SET ts = :ts, text = :text WHERE id = :id`, m)
	if err != nil {
		return form.Answer{}, errors.Wrap(err, "updating answer")
	}
	return form.Answer(m), nil
}

func (repo formRepository) LatestAnswerTime(ctx context.Context, formID string, exec ...core.DBExecutor) (time.Time, error) {
	var latest null.Time
	err := repo.getExec(exec).GetContext(ctx, &latest,
		`SELECT MAX(ts) FROM answer WHERE form_id = $1`, formID)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "querying latest answer time")
	}
	return latest.Time, nil
}
