package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
)

type dbCourse struct {
	ID        string      `db:"id"`
	Label     string      `db:"label"`
	StartDate time.Time   `db:"start_date"`
	EndDate   time.Time   `db:"end_date"`
	FileID    string      `db:"file_id"`
	FileName  null.String `db:"file_name"`
	FileTZ    null.String `db:"file_tz"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

type dbStudent struct {
	ID        string    `db:"id"`
	LastName  string    `db:"last_name"`
	FirstName string    `db:"first_name"`
	Email     string    `db:"email"`
	CourseID  string    `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{exec: exec}
}

func (repo courseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo courseRepository) model(crs course.Course) dbCourse {
	return dbCourse{
		ID:        crs.ID,
		Label:     crs.Label,
		StartDate: crs.StartDate.UTC(),
		EndDate:   crs.EndDate.UTC(),
		FileID:    crs.FileID,
		FileName:  null.NewString(crs.FileName, crs.FileName != ""),
		FileTZ:    null.NewString(crs.FileTimeZone, crs.FileTimeZone != ""),
		CreatedAt: crs.CreatedAt.UTC(),
		UpdatedAt: crs.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) unmodel(crs dbCourse) course.Course {
	return course.Course{
		ID:           crs.ID,
		Label:        crs.Label,
		StartDate:    crs.StartDate,
		EndDate:      crs.EndDate,
		FileID:       crs.FileID,
		FileName:     crs.FileName.String,
		FileTimeZone: crs.FileTZ.String,
		CreatedAt:    crs.CreatedAt,
		UpdatedAt:    crs.UpdatedAt,
	}
}

func (repo courseRepository) unmodelStudent(std dbStudent) course.Student {
	return course.Student(std)
}

// trapNoRowsErr maps psql "no rows" err to the domain not-found error
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CheckCourseUniqueness(ctx context.Context, label, fileID string, exec ...core.DBExecutor) error {
	var matches []dbCourse
	err := repo.getExec(exec).SelectContext(ctx, &matches,
		`SELECT id, label, start_date, end_date, file_id, file_name, file_tz, created_at, updated_at
		 FROM course WHERE label = $1 OR file_id = $2`, label, fileID)
	if err != nil {
		return errors.Wrap(err, "checking course uniqueness")
	}
	for _, m := range matches {
		if m.Label == label {
			return course.ErrLabelExists
		}
	}
	if len(matches) > 0 {
		return course.ErrFileIDExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	crs.ID = uuid.New().String()
	m := repo.model(crs)
	_, err := repo.getExec(exec).NamedExecContext(ctx,
		`INSERT INTO course (id, label, start_date, end_date, file_id, file_name, file_tz, created_at, updated_at)
		 VALUES (:id, :label, :start_date, :end_date, :file_id, :file_name, :file_tz, :created_at, :updated_at)`, m)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.unmodel(m), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	query := `SELECT id, label, start_date, end_date, file_id, file_name, file_tz, created_at, updated_at FROM course`
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.HasFileID {
			conds = append(conds, "file_id <> ''")
		}
		if !filter.EndDateAfter.IsZero() {
			args = append(args, filter.EndDateAfter.UTC())
			conds = append(conds, "end_date > $"+strconv.Itoa(len(args)))
		}
		if !filter.StartsOnOrBefore.IsZero() {
			args = append(args, filter.StartsOnOrBefore.UTC())
			conds = append(conds, "start_date <= $"+strconv.Itoa(len(args)))
		}
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY " + core.DBOrdering{Field: "label", Ascending: true}.String()

	var ms []dbCourse
	if err := repo.getExec(exec).SelectContext(ctx, &ms, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(ms))
	for _, m := range ms {
		courses = append(courses, repo.unmodel(m))
	}
	return courses, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, filter course.GetFilter, exec ...core.DBExecutor) (course.Course, error) {
	query := `SELECT id, label, start_date, end_date, file_id, file_name, file_tz, created_at, updated_at FROM course WHERE `
	var arg interface{}
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return course.Course{}, course.ErrNotFound
		}
		query += "id = $1"
		arg = filter.ID
	case filter.Label != "":
		query += "label = $1"
		arg = filter.Label
	case filter.FileID != "":
		query += "file_id = $1"
		arg = filter.FileID
	default:
		return course.Course{}, course.ErrNotFound
	}

	var m dbCourse
	if err := repo.getExec(exec).GetContext(ctx, &m, query, arg); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return repo.unmodel(m), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	m := repo.model(crs)
	_, err := repo.getExec(exec).NamedExecContext(ctx,
		`UPDATE course
		 SET label = :label, start_date = :start_date, end_date = :end_date,
		     file_id = :file_id, file_name = :file_name, file_tz = :file_tz, updated_at = :updated_at
		 WHERE id = :id`, m)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return repo.unmodel(m), nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

func (repo courseRepository) CountCourseAttachments(ctx context.Context, courseID string, exec ...core.DBExecutor) (course.Attachments, error) {
	var att struct {
		Students  int `db:"students"`
		Questions int `db:"questions"`
		Forms     int `db:"forms"`
	}
	err := repo.getExec(exec).GetContext(ctx, &att,
		`SELECT (SELECT COUNT(*) FROM student WHERE course_id = $1)  AS students,
		        (SELECT COUNT(*) FROM question WHERE course_id = $1) AS questions,
		        (SELECT COUNT(*) FROM form WHERE course_id = $1)     AS forms`, courseID)
	if err != nil {
		return course.Attachments{}, errors.Wrap(err, "counting course attachments")
	}
	return course.Attachments(att), nil
}

func (repo courseRepository) CheckStudentEmailUniqueness(ctx context.Context, email string, exec ...core.DBExecutor) error {
	var exists bool
	err := repo.getExec(exec).GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM student WHERE email = $1)`, email)
	if err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	if exists {
		return course.ErrEmailExists
	}
	return nil
}

func (repo courseRepository) CreateStudent(ctx context.Context, std course.Student, exec ...core.DBExecutor) (course.Student, error) {
	std.ID = uuid.New().String()
	m := dbStudent(std)
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	_, err := repo.getExec(exec).NamedExecContext(ctx,
		`INSERT INTO student (id, last_name, first_name, email, course_id, created_at, updated_at)
		 VALUES (:id, :last_name, :first_name, :email, :course_id, :created_at, :updated_at)`, m)
	if err != nil {
		return course.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.unmodelStudent(m), nil
}

func (repo courseRepository) QueryStudents(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.Student, error) {
	var ms []dbStudent
	err := repo.getExec(exec).SelectContext(ctx, &ms,
		`SELECT id, last_name, first_name, email, course_id, created_at, updated_at
		 FROM student WHERE course_id = $1 ORDER BY email`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]course.Student, 0, len(ms))
	for _, m := range ms {
		students = append(students, repo.unmodelStudent(m))
	}
	return students, nil
}

func (repo courseRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (course.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Student{}, course.ErrStudentNotFound
	}
	var m dbStudent
	err := repo.getExec(exec).GetContext(ctx, &m,
		`SELECT id, last_name, first_name, email, course_id, created_at, updated_at
		 FROM student WHERE id = $1`, id)
	if err != nil {
		return course.Student{}, trapNoRowsErr(err, course.ErrStudentNotFound, "finding student")
	}
	return repo.unmodelStudent(m), nil
}

func (repo courseRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return nil
}

func (repo courseRepository) CountStudentAnswers(ctx context.Context, studentID string, exec ...core.DBExecutor) (int, error) {
	var cnt int
	err := repo.getExec(exec).GetContext(ctx, &cnt,
		`SELECT COUNT(*) FROM answer WHERE student_id = $1`, studentID)
	if err != nil {
		return 0, errors.Wrap(err, "counting student answers")
	}
	return cnt, nil
}
