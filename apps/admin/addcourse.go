package main

import (
	"context"
	"time"

	"github.com/trezcool/maoni/core/course"
)

const dateLayout = "2006-01-02"

// addCourse registers a course and the spreadsheet file its survey responses live in.
func (cli *commandLine) addCourse(label, start, end, fileID string) error {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return err
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return err
	}

	_, err = cli.courseSvc.Create(context.Background(), course.NewCourse{
		Label:     label,
		StartDate: startDate,
		EndDate:   endDate,
		FileID:    fileID,
	})
	return err
}
