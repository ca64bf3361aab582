package main

import (
	"context"

	"github.com/trezcool/maoni/core/course"
)

// addStudent enrolls a student into the course with the given label.
func (cli *commandLine) addStudent(courseLabel, lastName, firstName, email string) error {
	ctx := context.Background()

	crs, err := cli.courseSvc.GetByLabel(ctx, courseLabel)
	if err != nil {
		return err
	}
	_, err = cli.courseSvc.Enroll(ctx, course.NewStudent{
		LastName:  lastName,
		FirstName: firstName,
		Email:     email,
		CourseID:  crs.ID,
	})
	return err
}
