package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CheckCourseUniqueness(ctx context.Context, label, fileID string, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, crs := range repo.db.courses {
		if crs.Label == label {
			return course.ErrLabelExists
		}
	}
	for _, crs := range repo.db.courses {
		if crs.FileID == fileID {
			return course.ErrFileIDExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if filter != nil {
			if filter.HasFileID && crs.FileID == "" {
				continue
			}
			if !filter.EndDateAfter.IsZero() && !crs.EndDate.After(filter.EndDateAfter) {
				continue
			}
			if !filter.StartsOnOrBefore.IsZero() && crs.StartDate.After(filter.StartsOnOrBefore) {
				continue
			}
		}
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Label < courses[j].Label })
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if crs, ok := repo.db.courses[filter.ID]; ok {
			return *crs, nil
		}
		return course.Course{}, course.ErrNotFound
	}
	for _, crs := range repo.db.courses {
		if (filter.Label != "" && crs.Label == filter.Label) ||
			(filter.FileID != "" && crs.FileID == filter.FileID) {
			return *crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.courses, id)
	return nil
}

func (repo *courseRepository) CountCourseAttachments(ctx context.Context, courseID string, exec ...core.DBExecutor) (course.Attachments, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var att course.Attachments
	for _, std := range repo.db.students {
		if std.CourseID == courseID {
			att.Students++
		}
	}
	for _, qst := range repo.db.questions {
		if qst.CourseID == courseID {
			att.Questions++
		}
	}
	for _, frm := range repo.db.forms {
		if frm.CourseID == courseID {
			att.Forms++
		}
	}
	return att, nil
}

func (repo *courseRepository) CheckStudentEmailUniqueness(ctx context.Context, email string, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.db.students {
		if std.Email == email {
			return course.ErrEmailExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateStudent(ctx context.Context, std course.Student, exec ...core.DBExecutor) (course.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	std.ID = uuid.New().String()
	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *courseRepository) QueryStudents(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]course.Student, 0)
	for _, std := range repo.db.students {
		if std.CourseID == courseID {
			students = append(students, *std)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Email < students[j].Email })
	return students, nil
}

func (repo *courseRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (course.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return *std, nil
	}
	return course.Student{}, course.ErrStudentNotFound
}

func (repo *courseRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.students, id)
	return nil
}

func (repo *courseRepository) CountStudentAnswers(ctx context.Context, studentID string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var cnt int
	for _, ans := range repo.db.answers {
		if ans.StudentID == studentID {
			cnt++
		}
	}
	return cnt, nil
}
