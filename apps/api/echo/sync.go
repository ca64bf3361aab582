package echoapi

import (
	"database/sql/driver"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/form"
	"github.com/trezcool/maoni/core/param"
)

type syncApi struct {
	formSvc  *form.Service
	paramSvc *param.Service
}

func registerSyncAPI(g *echo.Group, formSvc *form.Service, paramSvc *param.Service) {
	api := syncApi{
		formSvc:  formSvc,
		paramSvc: paramSvc,
	}
	g.POST("/sync", api.run)
}

// run triggers a synchronization pass and returns its outcome.
func (api *syncApi) run(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	cfg, err := api.paramSvc.SyncConfig(reqCtx)
	if err != nil {
		return trapConnErr(err, "loading sync parameters")
	}
	res, err := api.formSvc.SyncAll(reqCtx, cfg)
	if err != nil {
		return trapConnErr(err, "synchronizing")
	}
	return ctx.JSON(http.StatusOK, res)
}

// trapConnErr converts a lost database connection into a shutdown error so
// the server stops instead of keeping a dead connection pool alive.
func trapConnErr(err error, msg string) error {
	if errors.Cause(err) == driver.ErrBadConn {
		return core.NewShutdownError(err.Error())
	}
	return errors.Wrap(err, msg)
}
