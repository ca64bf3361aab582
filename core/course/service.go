package course

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/maoni/core"
)

var (
	// errors
	ErrNotFound          = errors.New("course not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrLabelExists       = errors.New("a course with this label already exists")
	ErrFileIDExists      = errors.New("a course with this file already exists")
	ErrEmailExists       = errors.New("a student with this email already exists")
	ErrCourseNotEmpty    = errors.New("students, questions or forms are still attached to this course")
	ErrStudentHasAnswers = errors.New("answers are still attached to this student")

	errStartAfterEnd = errors.New("the start date is after the end date")
)

type (
	Repository interface {
		CheckCourseUniqueness(ctx context.Context, label, fileID string, exec ...core.DBExecutor) error
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		QueryCourses(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error
		CountCourseAttachments(ctx context.Context, courseID string, exec ...core.DBExecutor) (Attachments, error)

		CheckStudentEmailUniqueness(ctx context.Context, email string, exec ...core.DBExecutor) error
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error
		CountStudentAnswers(ctx context.Context, studentID string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckCourseUniqueness(label, fileID string) error {
	if err := svc.repo.CheckCourseUniqueness(context.Background(), label, fileID); err != nil {
		var field string
		switch err {
		case ErrLabelExists:
			field = "label"
		case ErrFileIDExists:
			field = "file_id"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) CheckStudentEmailUniqueness(email string) error {
	if err := svc.repo.CheckStudentEmailUniqueness(context.Background(), email); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if err := nc.Validate(svc); err != nil {
		return Course{}, err
	}
	now := time.Now().UTC()
	crs := Course{
		Label:     nc.Label,
		StartDate: nc.StartDate,
		EndDate:   nc.EndDate,
		FileID:    nc.FileID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, nil)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByLabel(ctx context.Context, label string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{Label: core.CleanString(label)})
}

// Delete removes a course; refused while students, questions or forms are
// still attached to it.
func (svc *Service) Delete(ctx context.Context, id string) error {
	crs, err := svc.repo.GetCourse(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	att, err := svc.repo.CountCourseAttachments(ctx, crs.ID)
	if err != nil {
		return err
	}
	if !att.IsEmpty() {
		return ErrCourseNotEmpty
	}
	return svc.repo.DeleteCourse(ctx, crs.ID)
}

func (svc *Service) Enroll(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(svc); err != nil {
		return Student{}, err
	}
	if _, err := svc.repo.GetCourse(ctx, GetFilter{ID: ns.CourseID}); err != nil {
		return Student{}, err
	}
	now := time.Now().UTC()
	std := Student{
		LastName:  ns.LastName,
		FirstName: ns.FirstName,
		Email:     ns.Email,
		CourseID:  ns.CourseID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) QueryStudents(ctx context.Context, courseID string) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, courseID)
}

// RemoveStudent removes a student; refused while answers are still attached.
func (svc *Service) RemoveStudent(ctx context.Context, id string) error {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return err
	}
	cnt, err := svc.repo.CountStudentAnswers(ctx, std.ID)
	if err != nil {
		return err
	}
	if cnt > 0 {
		return ErrStudentHasAnswers
	}
	return svc.repo.DeleteStudent(ctx, std.ID)
}
