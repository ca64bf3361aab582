package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
	"github.com/trezcool/maoni/core/form"
	"github.com/trezcool/maoni/core/param"
)

type courseApi struct {
	svc      *course.Service
	formSvc  *form.Service
	paramSvc *param.Service
}

func registerCourseAPI(g *echo.Group, svc *course.Service, formSvc *form.Service, paramSvc *param.Service) {
	api := courseApi{
		svc:      svc,
		formSvc:  formSvc,
		paramSvc: paramSvc,
	}

	cg := g.Group("/courses")
	cg.POST("", api.create)
	cg.GET("", api.query)

	// detail endpoints
	dg := cg.Group("/:id", api.ctxCourseMiddleware())
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.GET("/students", api.queryStudents)
	dg.POST("/students", api.enroll)
	dg.GET("/forms", api.queryForms)
	dg.GET("/questions", api.queryQuestions)
	dg.GET("/sheets", api.querySheets)

	g.DELETE("/students/:id", api.removeStudent)
	g.GET("/forms/:id/answers", api.queryAnswers)
}

// ctxCourseMiddleware loads the course from the `id` param into the context.
func (api *courseApi) ctxCourseMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == course.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding course by ID")
			}
			ctx.Set("object", crs)
			return next(ctx)
		}
	}
}

func contextCourse(ctx echo.Context) (course.Course, error) {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return course.Course{}, errors.New("course object not found in echo.Context")
	}
	return crs, nil
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok {
			return err
		}
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		if errors.Cause(err) == course.ErrCourseNotEmpty {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryStudents(ctx echo.Context) error {
	crs, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.QueryStudents(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []course.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	crs, err := contextCourse(ctx)
	if err != nil {
		return err
	}

	var data course.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	data.CourseID = crs.ID

	std, err := api.svc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok {
			return err
		}
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *courseApi) removeStudent(ctx echo.Context) error {
	err := api.svc.RemoveStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		switch errors.Cause(err) {
		case course.ErrStudentNotFound:
			return errHttpNotFound
		case course.ErrStudentHasAnswers:
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return errors.Wrap(err, "removing student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryForms(ctx echo.Context) error {
	crs, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	forms, err := api.formSvc.QueryByCourse(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying forms")
	}
	if forms == nil {
		forms = []form.Form{}
	}
	return ctx.JSON(http.StatusOK, forms)
}

func (api *courseApi) queryQuestions(ctx echo.Context) error {
	crs, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	questions, err := api.formSvc.QueryQuestions(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []form.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

// querySheets reports the tracking status of each worksheet in the course's file.
func (api *courseApi) querySheets(ctx echo.Context) error {
	crs, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	cfg, err := api.paramSvc.SyncConfig(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading sync parameters")
	}
	sheets, err := api.formSvc.CourseSheets(ctx.Request().Context(), crs.ID, cfg)
	if err != nil {
		return errors.Wrap(err, "querying sheets")
	}
	if sheets == nil {
		sheets = []form.SheetStatus{}
	}
	return ctx.JSON(http.StatusOK, sheets)
}

func (api *courseApi) queryAnswers(ctx echo.Context) error {
	answers, err := api.formSvc.QueryAnswers(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying answers")
	}
	if answers == nil {
		answers = []form.Answer{}
	}
	return ctx.JSON(http.StatusOK, answers)
}
