package main

import (
	"log"
	"os"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
	"github.com/trezcool/maoni/core/param"
	emailsvc "github.com/trezcool/maoni/services/email"
	logsvc "github.com/trezcool/maoni/services/logger"
	"github.com/trezcool/maoni/storage/database"
	sqlxrepos "github.com/trezcool/maoni/storage/database/sqlx"
)

var stdLogger *log.Logger

func main() {
	defer os.Exit(0)

	stdLogger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(stdLogger)
	} else {
		rb := logsvc.NewRollbarLogger(stdLogger, conf)
		rb.Enable(true)
		logger = rb
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	var emailSvc core.EmailService
	if conf.SendgridApiKey != "" {
		emailSvc = emailsvc.NewSendgridService(conf, logger)
	} else {
		emailSvc = emailsvc.NewConsoleService(conf)
	}

	courseRepo := sqlxrepos.NewCourseRepository(db)
	formRepo := sqlxrepos.NewFormRepository(db)

	// start CLI
	cli := commandLine{
		conf:       conf,
		logger:     logger,
		db:         database.NewDB(db),
		sqlDB:      db,
		emailSvc:   emailSvc,
		courseRepo: courseRepo,
		formRepo:   formRepo,
		courseSvc:  course.NewService(courseRepo),
		paramSvc:   param.NewService(sqlxrepos.NewParamRepository(db)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		stdLogger.Fatal(err)
	}
}
