package main

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
	"github.com/trezcool/maoni/core/param"
	emailsvc "github.com/trezcool/maoni/services/email"
	dummysheets "github.com/trezcool/maoni/services/sheets/dummy"
	inmemdb "github.com/trezcool/maoni/storage/database/inmem"
)

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) (*commandLine, *inmemdb.DB, *dummysheets.Service) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	conf := &core.Config{
		AppName:          "Maoni",
		DefaultFromEmail: mail.Address{Address: "noreply@test.cd"},
	}
	courseRepo := inmemdb.NewCourseRepository(db)
	formRepo := inmemdb.NewFormRepository(db)

	sheets := dummysheets.NewService()
	newSheetServiceFunc = func(ctx context.Context, conf *core.Config) (core.SheetService, error) {
		return sheets, nil
	}

	cli := &commandLine{
		conf:       conf,
		logger:     testLogger{},
		db:         db,
		emailSvc:   emailsvc.NewConsoleServiceMock(conf),
		courseRepo: courseRepo,
		formRepo:   formRepo,
		courseSvc:  course.NewService(courseRepo),
		paramSvc:   param.NewService(inmemdb.NewParamRepository(db)),
	}
	return cli, db, sheets
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	gooseRunFunc = func(command string, db *sqlx.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCliTests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	})
}

func Test_commandLine_addCourse(t *testing.T) {
	cli, _, _ := setup(t)

	runCliTests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addcourse"}, wantErr: errHelp},
		{name: "missing dates", args: []string{"addcourse", "-label", "DE", "-file", "f1"}, wantErr: errHelp},
		{name: "bad date", args: []string{"addcourse", "-label", "DE", "-start", "lol", "-end", "2020-04-30", "-file", "f1"}, wantErrStr: "cannot parse"},
		{name: "ok", args: []string{"addcourse", "-label", "DE", "-start", "2020-03-01", "-end", "2020-04-30", "-file", "f1"}},
		{name: "duplicate label", args: []string{"addcourse", "-label", "DE", "-start", "2020-03-01", "-end", "2020-04-30", "-file", "f2"}, wantErrStr: course.ErrLabelExists.Error()},
	})

	crs, err := cli.courseSvc.GetByLabel(context.Background(), "DE")
	assert.NoError(t, err)
	assert.Equal(t, "f1", crs.FileID)
	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), crs.StartDate)
}

func Test_commandLine_addStudent(t *testing.T) {
	cli, _, _ := setup(t)
	ctx := context.Background()

	err := cli.run([]string{"admin", "addcourse", "-label", "DE", "-start", "2020-03-01", "-end", "2020-04-30", "-file", "f1"})
	assert.NoError(t, err)

	runCliTests(t, cli, []cliTest{
		{name: "no args", args: []string{"addstudent"}, wantErr: errHelp},
		{name: "unknown course", args: []string{"addstudent", "-course", "lol", "-lastname", "Doe", "-firstname", "John", "-email", "john@test.cd"}, wantErr: course.ErrNotFound},
		{name: "ok", args: []string{"addstudent", "-course", "DE", "-lastname", "Doe", "-firstname", "John", "-email", "John@Test.CD"}},
	})

	crs, err := cli.courseSvc.GetByLabel(ctx, "DE")
	assert.NoError(t, err)
	students, err := cli.courseSvc.QueryStudents(ctx, crs.ID)
	assert.NoError(t, err)
	if assert.Len(t, students, 1) {
		assert.Equal(t, "john@test.cd", students[0].Email)
	}
}

func Test_commandLine_setParam(t *testing.T) {
	cli, _, _ := setup(t)

	runCliTests(t, cli, []cliTest{
		{name: "no args", args: []string{"setparam"}, wantErr: errHelp},
		{name: "non-positive value", args: []string{"setparam", "-name", param.MaxDaysToEndDate, "-value", "0"}, wantErr: errHelp},
		{name: "unknown name", args: []string{"setparam", "-name", "NOPE", "-value", "10"}, wantErr: param.ErrUnknown},
		{name: "ok", args: []string{"setparam", "-name", param.MaxDaysToEndDate, "-value", "70"}},
	})

	val, err := cli.paramSvc.GetInt(context.Background(), param.MaxDaysToEndDate)
	assert.NoError(t, err)
	assert.Equal(t, 70, val)
}

func Test_commandLine_sync(t *testing.T) {
	cli, _, sheets := setup(t)
	ctx := context.Background()

	now := time.Now().UTC()
	start := now.Add(-30 * 24 * time.Hour).Format(dateLayout)
	end := now.Add(30 * 24 * time.Hour).Format(dateLayout)
	err := cli.run([]string{"admin", "addcourse", "-label", "DE", "-start", start, "-end", end, "-file", "f1"})
	assert.NoError(t, err)
	err = cli.run([]string{"admin", "addstudent", "-course", "DE", "-lastname", "Doe", "-firstname", "John", "-email", "john@test.cd"})
	assert.NoError(t, err)

	sheets.AddFile("f1", "Réponses", "UTC").AddSheet(11, "Semaine 1", core.Row{
		core.TimestampHeader: now.Format("02/01/2006 15:04:05"),
		core.EmailHeader:     "john@test.cd",
		"Note":               4,
	})

	cli.conf.ReportRecipients = []string{"reports@test.cd"}
	sent := len(emailsvc.SentMessages)

	assert.NoError(t, cli.run([]string{"admin", "sync"}))

	crs, err := cli.courseSvc.GetByLabel(ctx, "DE")
	assert.NoError(t, err)
	forms, err := cli.formRepo.QueryForms(ctx, crs.ID)
	assert.NoError(t, err)
	assert.Len(t, forms, 1)

	// the report went out
	if assert.Len(t, emailsvc.SentMessages, sent+1) {
		msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
		assert.Equal(t, "Survey synchronization report", msg.Subject)
		assert.Contains(t, msg.TextContent, "1 sheet(s)")
	}
}
