package form_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
	"github.com/trezcool/maoni/core/form"
	dummysheets "github.com/trezcool/maoni/services/sheets/dummy"
	inmemdb "github.com/trezcool/maoni/storage/database/inmem"
)

const tsLayout = "02/01/2006 15:04:05"

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) (*form.Service, *inmemdb.DB, *dummysheets.Service, course.Repository, form.Repository) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	courseRepo := inmemdb.NewCourseRepository(db)
	formRepo := inmemdb.NewFormRepository(db)
	sheets := dummysheets.NewService()
	svc := form.NewService(db, formRepo, courseRepo, sheets, testLogger{})
	return svc, db, sheets, courseRepo, formRepo
}

func syncConfig() core.SyncConfig {
	return core.SyncConfig{
		MaxDaysToEndDate:      core.DefaultMaxDaysToEndDate,
		MaxDaysSheetUnchanged: core.DefaultMaxDaysSheetUnchanged,
	}
}

func createCourse(t *testing.T, repo course.Repository, label, fileID string, dates ...time.Time) course.Course {
	now := time.Now().UTC()
	start, end := now.Add(-30*24*time.Hour), now.Add(30*24*time.Hour)
	if len(dates) > 0 {
		start = dates[0]
	}
	if len(dates) > 1 {
		end = dates[1]
	}
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Label:     label,
		StartDate: start,
		EndDate:   end,
		FileID:    fileID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func createStudent(t *testing.T, repo course.Repository, crs course.Course, lastName, firstName, email string) course.Student {
	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), course.Student{
		LastName:  lastName,
		FirstName: firstName,
		Email:     email,
		CourseID:  crs.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

// respRow builds one response row with the reserved columns set.
func respRow(ts time.Time, email string, extra core.Row) core.Row {
	row := core.Row{
		core.TimestampHeader: ts.UTC().Format(tsLayout),
		core.EmailHeader:     email,
	}
	for header, val := range extra {
		row[header] = val
	}
	return row
}

func TestService_SyncAll_invalidConfig(t *testing.T) {
	svc, _, _, _, _ := setup(t)

	res, err := svc.SyncAll(context.Background(), core.SyncConfig{})
	assert.Error(t, err)
	assert.False(t, res.OK)
}

func TestService_SyncAll_ingestsNewSheet(t *testing.T) {
	svc, _, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, courseRepo, "Data Engineering Mars 2020", "file1")
	std := createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	ts := time.Now().UTC().Truncate(time.Second)
	file := sheets.AddFile("file1", "Réponses sondage DE", "UTC")
	file.AddSheet(11, "Semaine 1",
		respRow(ts, "john@test.cd", core.Row{"Note": 4, "Métier visé": "Data Analyst"}),
	)

	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Courses)
	assert.Equal(t, 1, res.Sheets)
	assert.Empty(t, res.Messages)

	forms, _ := formRepo.QueryForms(ctx, crs.ID)
	if !assert.Len(t, forms, 1) {
		return
	}
	frm := forms[0]
	assert.Equal(t, int64(11), frm.SheetID)
	assert.Equal(t, "Semaine 1", frm.SheetLabel)
	assert.True(t, frm.LastEntryAt.Equal(ts))
	assert.WithinDuration(t, time.Now(), frm.LastReadAt, 5*time.Second)

	questions, _ := formRepo.QueryQuestions(ctx, crs.ID)
	if assert.Len(t, questions, 2) {
		byText := make(map[string]form.Question, len(questions))
		for _, qst := range questions {
			byText[qst.Text] = qst
		}
		assert.True(t, byText["Note"].IsInt)
		assert.False(t, byText["Métier visé"].IsInt)
	}

	answers, _ := formRepo.QueryFormAnswers(ctx, frm.ID)
	if assert.Len(t, answers, 2) {
		for _, ans := range answers {
			assert.Equal(t, std.ID, ans.StudentID)
			assert.True(t, ans.Timestamp.Equal(ts))
		}
	}

	// file metadata is cached on the course
	crs, _ = courseRepo.GetCourse(ctx, course.GetFilter{ID: crs.ID})
	assert.Equal(t, "Réponses sondage DE", crs.FileName)
	assert.Equal(t, "UTC", crs.FileTimeZone)
}

func TestService_SyncAll_isIdempotent(t *testing.T) {
	svc, _, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, courseRepo, "Data Engineering", "file1")
	createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	ts := time.Now().UTC().Truncate(time.Second)
	sheets.AddFile("file1", "Réponses", "UTC").AddSheet(11, "Semaine 1",
		respRow(ts, "john@test.cd", core.Row{"Note": 4}),
	)

	_, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)

	forms, _ := formRepo.QueryForms(ctx, crs.ID)
	if !assert.Len(t, forms, 1) {
		return
	}
	answersBefore, _ := formRepo.QueryFormAnswers(ctx, forms[0].ID)

	// a second pass over unchanged data writes nothing new
	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.Empty(t, res.Messages)

	forms, _ = formRepo.QueryForms(ctx, crs.ID)
	if !assert.Len(t, forms, 1) {
		return
	}
	answersAfter, _ := formRepo.QueryFormAnswers(ctx, forms[0].ID)
	assert.ElementsMatch(t, answersBefore, answersAfter)
}

func TestService_SyncAll_updatesAnswerInPlace(t *testing.T) {
	svc, _, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, courseRepo, "Data Engineering", "file1")
	createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	ts1 := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	file := sheets.AddFile("file1", "Réponses", "UTC")
	file.AddSheet(11, "Semaine 1",
		respRow(ts1, "john@test.cd", core.Row{"Note": "4"}),
	)

	_, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)

	forms, _ := formRepo.QueryForms(ctx, crs.ID)
	if !assert.Len(t, forms, 1) {
		return
	}
	answers, _ := formRepo.QueryFormAnswers(ctx, forms[0].ID)
	if !assert.Len(t, answers, 1) {
		return
	}
	original := answers[0]
	assert.Equal(t, "4", original.Text)

	// the respondent edits their answer in place
	ts2 := time.Now().UTC().Truncate(time.Second)
	file.SetRows(11, respRow(ts2, "john@test.cd", core.Row{"Note": "5"}))

	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.Empty(t, res.Messages)

	answers, _ = formRepo.QueryFormAnswers(ctx, forms[0].ID)
	if assert.Len(t, answers, 1) {
		assert.Equal(t, original.ID, answers[0].ID)
		assert.Equal(t, "5", answers[0].Text)
		assert.True(t, answers[0].Timestamp.Equal(ts2))
	}

	forms, _ = formRepo.QueryForms(ctx, crs.ID)
	assert.True(t, forms[0].LastEntryAt.Equal(ts2))
}

func TestService_SyncAll_skipsProblemRows(t *testing.T) {
	svc, _, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, courseRepo, "Data Engineering", "file1")
	std := createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	ts := time.Now().UTC().Truncate(time.Second)
	sheets.AddFile("file1", "Réponses", "UTC").AddSheet(11, "Semaine 1",
		core.Row{core.TimestampHeader: "pas une date", core.EmailHeader: "john@test.cd", "Note": 1},
		respRow(ts, "ghost@test.cd", core.Row{"Note": 2}),
		respRow(ts, " JOHN@Test.CD ", core.Row{"Note": 3}), // matching is case-insensitive
	)

	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.True(t, res.OK)
	if assert.Len(t, res.Messages, 2) {
		assert.Contains(t, res.Messages[0], `bad timestamp "pas une date"`)
		assert.Contains(t, res.Messages[1], `unknown respondent "ghost@test.cd"`)
	}

	forms, _ := formRepo.QueryForms(ctx, crs.ID)
	if !assert.Len(t, forms, 1) {
		return
	}
	answers, _ := formRepo.QueryFormAnswers(ctx, forms[0].ID)
	if assert.Len(t, answers, 1) {
		assert.Equal(t, std.ID, answers[0].StudentID)
		assert.Equal(t, "3", answers[0].Text)
	}
}

func TestService_SyncAll_emptySheetStaysUntracked(t *testing.T) {
	svc, _, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, courseRepo, "Data Engineering", "file1")
	createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	file := sheets.AddFile("file1", "Réponses", "UTC")
	file.AddSheet(11, "Semaine 1")

	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Sheets)
	assert.Empty(t, res.Messages)

	forms, _ := formRepo.QueryForms(ctx, crs.ID)
	assert.Empty(t, forms)

	// once data shows up, the sheet gets tracked
	ts := time.Now().UTC().Truncate(time.Second)
	file.SetRows(11, respRow(ts, "john@test.cd", core.Row{"Note": 4}))

	res, err = svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Sheets)

	forms, _ = formRepo.QueryForms(ctx, crs.ID)
	assert.Len(t, forms, 1)
}

func TestService_SyncAll_headerMismatchRollsBack(t *testing.T) {
	svc, _, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, courseRepo, "Data Engineering", "file1")
	createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	// the email column is missing
	sheets.AddFile("file1", "Réponses", "UTC").AddSheet(11, "Semaine 1",
		core.Row{core.TimestampHeader: "01/03/2020 10:00:00", "Note": 4},
	)

	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 0, res.Sheets)
	if assert.Len(t, res.Messages, 1) {
		assert.Contains(t, res.Messages[0], form.ErrHeaderMismatch.Error())
	}

	// nothing of the sheet survived the rollback
	forms, _ := formRepo.QueryForms(ctx, crs.ID)
	assert.Empty(t, forms)
	questions, _ := formRepo.QueryQuestions(ctx, crs.ID)
	assert.Empty(t, questions)
}

func TestService_SyncAll_staleFormIsSkipped(t *testing.T) {
	svc, _, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, courseRepo, "Data Engineering", "file1")
	createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	now := time.Now().UTC()
	frm, err := formRepo.CreateForm(ctx, form.Form{
		SheetID:     11,
		SheetLabel:  "Semaine 1",
		LastEntryAt: now.Add(-20 * 24 * time.Hour),
		LastReadAt:  now,
		CourseID:    crs.ID,
	})
	assert.NoError(t, err)
	assert.True(t, frm.IsStale(core.DefaultMaxDaysSheetUnchanged))

	sheets.AddFile("file1", "Réponses", "UTC").AddSheet(11, "Semaine 1",
		respRow(now, "john@test.cd", core.Row{"Note": 4}),
	)

	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Sheets)
	assert.Empty(t, res.Messages)

	answers, _ := formRepo.QueryFormAnswers(ctx, frm.ID)
	assert.Empty(t, answers)
}

func TestService_SyncAll_commitFailureRollsBack(t *testing.T) {
	svc, db, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, courseRepo, "Data Engineering", "file1")
	createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	ts := time.Now().UTC().Truncate(time.Second)
	sheets.AddFile("file1", "Réponses", "UTC").AddSheet(11, "Semaine 1",
		respRow(ts, "john@test.cd", core.Row{"Note": 4}),
	)

	db.FailCommits = true
	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.True(t, res.OK)
	// a sheet whose transaction never committed is not counted
	assert.Equal(t, 0, res.Sheets)
	if assert.Len(t, res.Messages, 1) {
		assert.Contains(t, res.Messages[0], "commit")
	}

	forms, _ := formRepo.QueryForms(ctx, crs.ID)
	assert.Empty(t, forms)
	questions, _ := formRepo.QueryQuestions(ctx, crs.ID)
	assert.Empty(t, questions)
}

func TestService_SyncAll_courseSelection(t *testing.T) {
	svc, _, sheets, courseRepo, _ := setup(t)
	now := time.Now().UTC()

	createCourse(t, courseRepo, "no file", "")
	createCourse(t, courseRepo, "ended long ago", "old", now.Add(-200*24*time.Hour), now.Add(-60*24*time.Hour))
	createCourse(t, courseRepo, "not started", "future", now.Add(5*24*time.Hour), now.Add(60*24*time.Hour))
	createCourse(t, courseRepo, "recently ended", "recent", now.Add(-60*24*time.Hour), now.Add(-20*24*time.Hour))
	createCourse(t, courseRepo, "running", "current")

	sheets.AddFile("recent", "Réponses A", "UTC")
	sheets.AddFile("current", "Réponses B", "UTC")

	res, err := svc.SyncAll(context.Background(), syncConfig())
	assert.NoError(t, err)
	assert.Equal(t, 2, res.Courses)
	assert.Empty(t, res.Messages)
}

func TestService_SyncAll_unreachableFileDoesNotAbortPass(t *testing.T) {
	svc, _, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	createCourse(t, courseRepo, "broken course", "gone")
	crs := createCourse(t, courseRepo, "healthy course", "file1")
	createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	ts := time.Now().UTC().Truncate(time.Second)
	sheets.AddFile("file1", "Réponses", "UTC").AddSheet(11, "Semaine 1",
		respRow(ts, "john@test.cd", core.Row{"Note": 4}),
	)

	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 2, res.Courses)
	assert.Equal(t, 1, res.Sheets)
	if assert.Len(t, res.Messages, 1) {
		assert.Contains(t, res.Messages[0], `course "broken course"`)
		assert.Contains(t, res.Messages[0], "fetching file")
	}

	forms, _ := formRepo.QueryForms(ctx, crs.ID)
	assert.Len(t, forms, 1)
}

func TestService_SyncAll_parsesTimestampsInFileTimezone(t *testing.T) {
	svc, _, sheets, courseRepo, formRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, courseRepo, "Data Engineering", "file1")
	createStudent(t, courseRepo, crs, "Doe", "John", "john@test.cd")

	// UTC+1, no DST
	loc, err := time.LoadLocation("Africa/Kinshasa")
	assert.NoError(t, err)
	ts := time.Now().In(loc).Truncate(time.Second)

	sheets.AddFile("file1", "Réponses", "Africa/Kinshasa").AddSheet(11, "Semaine 1",
		core.Row{
			core.TimestampHeader: ts.Format(tsLayout),
			core.EmailHeader:     "john@test.cd",
			"Note":               4,
		},
	)

	res, err := svc.SyncAll(ctx, syncConfig())
	assert.NoError(t, err)
	assert.Empty(t, res.Messages)

	forms, _ := formRepo.QueryForms(ctx, crs.ID)
	if !assert.Len(t, forms, 1) {
		return
	}
	answers, _ := formRepo.QueryFormAnswers(ctx, forms[0].ID)
	if assert.Len(t, answers, 1) {
		assert.True(t, answers[0].Timestamp.Equal(ts))
	}
}

func TestResult_Report(t *testing.T) {
	res := form.Result{OK: true, Courses: 2, Sheets: 3}
	report := res.Report()
	assert.Contains(t, report, "3 sheet(s)")
	assert.Contains(t, report, "2 course(s)")
	assert.Contains(t, report, "No incidents.")

	res.Messages = []string{"course \"x\": fetching file: gone"}
	report = res.Report()
	assert.Contains(t, report, "1 incident(s):")
	assert.Contains(t, report, "- course \"x\": fetching file: gone")
}
