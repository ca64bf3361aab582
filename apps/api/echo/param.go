package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/param"
)

type paramApi struct {
	svc *param.Service
}

func registerParamAPI(g *echo.Group, svc *param.Service) {
	api := paramApi{svc: svc}

	pg := g.Group("/params")
	pg.GET("/:name", api.retrieve)
	pg.PUT("/:name", api.update)
}

type ParamResponse struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type UpdateParamRequest struct {
	Value int `json:"value" validate:"required,gt=0"`
}

func (pr *UpdateParamRequest) Validate() error {
	if err := core.Validate.Struct(pr); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return nil
}

func (api *paramApi) retrieve(ctx echo.Context) error {
	name := ctx.Param("name")
	val, err := api.svc.GetInt(ctx.Request().Context(), name)
	if err != nil {
		if errors.Cause(err) == param.ErrUnknown {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting parameter")
	}
	return ctx.JSON(http.StatusOK, ParamResponse{Name: name, Value: val})
}

func (api *paramApi) update(ctx echo.Context) error {
	name := ctx.Param("name")

	var data UpdateParamRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParamRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.SetInt(ctx.Request().Context(), name, data.Value); err != nil {
		if errors.Cause(err) == param.ErrUnknown {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting parameter")
	}
	return ctx.JSON(http.StatusOK, ParamResponse{Name: name, Value: data.Value})
}
