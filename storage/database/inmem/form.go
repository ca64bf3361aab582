package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/form"
)

type formRepository struct {
	db *DB
}

var _ form.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(db *DB) *formRepository {
	return &formRepository{db: db}
}

func (repo *formRepository) QueryForms(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]form.Form, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	forms := make([]form.Form, 0)
	for _, frm := range repo.db.forms {
		if frm.CourseID == courseID {
			forms = append(forms, *frm)
		}
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].SheetID < forms[j].SheetID })
	return forms, nil
}

func (repo *formRepository) CreateForm(ctx context.Context, frm form.Form, exec ...core.DBExecutor) (form.Form, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	frm.ID = uuid.New().String()
	repo.db.forms[frm.ID] = &frm
	return frm, nil
}

func (repo *formRepository) UpdateForm(ctx context.Context, frm form.Form, exec ...core.DBExecutor) (form.Form, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.forms[frm.ID]; !ok {
		return form.Form{}, form.ErrNotFound
	}
	repo.db.forms[frm.ID] = &frm
	return frm, nil
}

func (repo *formRepository) QueryQuestions(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]form.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	questions := make([]form.Question, 0)
	for _, qst := range repo.db.questions {
		if qst.CourseID == courseID {
			questions = append(questions, *qst)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Text < questions[j].Text })
	return questions, nil
}

func (repo *formRepository) CreateQuestion(ctx context.Context, qst form.Question, exec ...core.DBExecutor) (form.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	qst.ID = uuid.New().String()
	repo.db.questions[qst.ID] = &qst
	return qst, nil
}

func (repo *formRepository) QueryFormAnswers(ctx context.Context, formID string, exec ...core.DBExecutor) ([]form.Answer, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	answers := make([]form.Answer, 0)
	for _, ans := range repo.db.answers {
		if ans.FormID == formID {
			answers = append(answers, *ans)
		}
	}
	return answers, nil
}

func (repo *formRepository) CreateAnswer(ctx context.Context, ans form.Answer, exec ...core.DBExecutor) (form.Answer, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ans.ID = uuid.New().String()
	repo.db.answers[ans.ID] = &ans
	return ans, nil
}

func (repo *formRepository) UpdateAnswer(ctx context.Context, ans form.Answer, exec ...core.DBExecutor) (form.Answer, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.answers[ans.ID]; !ok {
		return form.Answer{}, form.ErrNotFound
	}
	repo.db.answers[ans.ID] = &ans
	return ans, nil
}

func (repo *formRepository) LatestAnswerTime(ctx context.Context, formID string, exec ...core.DBExecutor) (time.Time, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var latest time.Time
	for _, ans := range repo.db.answers {
		if ans.FormID == formID && ans.Timestamp.After(latest) {
			latest = ans.Timestamp
		}
	}
	return latest, nil
}
