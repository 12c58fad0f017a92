package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/reference"
)

type referenceApi struct {
	svc *reference.Service
}

func registerReferenceAPI(g *echo.Group, deps *Deps) {
	api := referenceApi{svc: deps.Reference}
	g.GET("/reference", api.load)
}

func (api *referenceApi) load(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	force, _ := strconv.ParseBool(ctx.QueryParam("force"))
	yearID := core.CleanString(ctx.QueryParam("academic_year_id"))

	bundle, err := api.svc.Load(ctx.Request().Context(), scope, yearID, force)
	if err != nil {
		return errors.Wrap(err, "loading reference bundle")
	}
	return ctx.JSON(http.StatusOK, bundle)
}
