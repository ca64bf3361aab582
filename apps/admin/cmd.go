package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
	"github.com/trezcool/maoni/core/form"
	"github.com/trezcool/maoni/core/param"
	"github.com/trezcool/maoni/storage/database"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	db     core.DB
	sqlDB  *sqlx.DB

	emailSvc   core.EmailService
	courseRepo course.Repository
	formRepo   form.Repository
	courseSvc  *course.Service
	paramSvc   *param.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the database and application user if they do not exist")
	fmt.Println("  migrate COMMAND [ARGS] - run a migration command (up, down, status, ...)")
	fmt.Println("  addcourse -label LABEL -start YYYY-MM-DD -end YYYY-MM-DD -file FILE_ID - create a course")
	fmt.Println("  addstudent -course LABEL -lastname NAME -firstname NAME -email EMAIL - enroll a student")
	fmt.Println("  setparam -name NAME -value VALUE - override a synchronization parameter")
	fmt.Println("  sync - synchronize survey responses for all current courses")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addCourseCmd := flag.NewFlagSet("addcourse", flag.ExitOnError)
	addCourseLabel := addCourseCmd.String("label", "", "The course label. Must be unique.")
	addCourseStart := addCourseCmd.String("start", "", "The course start date (YYYY-MM-DD).")
	addCourseEnd := addCourseCmd.String("end", "", "The course end date (YYYY-MM-DD).")
	addCourseFile := addCourseCmd.String("file", "", "The spreadsheet file ID holding the course's survey responses.")

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ExitOnError)
	addStudentCourse := addStudentCmd.String("course", "", "The label of the course to enroll into.")
	addStudentLast := addStudentCmd.String("lastname", "", "The student's last name.")
	addStudentFirst := addStudentCmd.String("firstname", "", "The student's first name.")
	addStudentEmail := addStudentCmd.String("email", "", "The student's email. Must match the one used in the survey responses.")

	setParamCmd := flag.NewFlagSet("setparam", flag.ExitOnError)
	setParamName := setParamCmd.String("name", "", "The parameter name.")
	setParamValue := setParamCmd.Int("value", 0, "The parameter value (positive integer).")

	switch args[1] {
	case "createdb":
		return database.CreateIfNotExist(cli.conf)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addcourse":
		if err := addCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addCourseLabel == "" || *addCourseStart == "" || *addCourseEnd == "" || *addCourseFile == "" {
			addCourseCmd.Usage()
			return errHelp
		}
		return cli.addCourse(*addCourseLabel, *addCourseStart, *addCourseEnd, *addCourseFile)
	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStudentCourse == "" || *addStudentLast == "" || *addStudentFirst == "" || *addStudentEmail == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(*addStudentCourse, *addStudentLast, *addStudentFirst, *addStudentEmail)
	case "setparam":
		if err := setParamCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setParamName == "" || *setParamValue <= 0 {
			setParamCmd.Usage()
			return errHelp
		}
		return cli.setParam(*setParamName, *setParamValue)
	case "sync":
		return cli.sync()
	default:
		cli.printUsage()
		return errHelp
	}
}
