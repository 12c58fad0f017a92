package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/records"
	"github.com/trezcool/campusdesk/core/reference"
	"github.com/trezcool/campusdesk/core/store"
)

type recordsApi struct {
	records   *records.Service
	reference *reference.Service
}

func registerRecordsAPI(g *echo.Group, deps *Deps) {
	api := recordsApi{records: deps.Records, reference: deps.Reference}

	rg := g.Group("/records")
	rg.GET("", api.names)
	rg.GET("/:resource", api.query)
	rg.POST("/:resource", api.create)
	rg.PUT("/:resource/:id", api.update)
	rg.DELETE("/:resource/:id", api.destroy)
}

// resource resolves a record collection or a reference collection of the caller's scope.
func (api *recordsApi) resource(ctx echo.Context) (store.Resource, core.Scope, error) {
	scope, err := getContextScope(ctx)
	if err != nil {
		return nil, scope, err
	}
	name := ctx.Param("resource")
	res, err := api.records.Resource(scope, name)
	if err == nil {
		return res, scope, nil
	}
	for _, ref := range api.reference.Cache(scope).Resources() {
		if ref.Name() == name {
			return ref, scope, nil
		}
	}
	return nil, scope, err
}

// listQuery forwards the caller's filters with the scope's branch.
func listQuery(ctx echo.Context, scope core.Scope) url.Values {
	q := url.Values{}
	for k, v := range ctx.QueryParams() {
		if k != "branch_id" {
			q[k] = v
		}
	}
	if scope.BranchID != "" {
		q.Set("branchId", scope.BranchID)
	}
	return q
}

// bindRecord decodes the JSON body only; path params are not part of the record.
func bindRecord(ctx echo.Context) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	if err := json.NewDecoder(ctx.Request().Body).Decode(&data); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid record body").SetInternal(err)
	}
	return data, nil
}

// Handlers

func (api *recordsApi) names(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	names := api.records.Workspace(scope).Names()
	for _, ref := range api.reference.Cache(scope).Resources() {
		names = append(names, ref.Name())
	}
	sort.Strings(names)
	return ctx.JSON(http.StatusOK, names)
}

func (api *recordsApi) query(ctx echo.Context) error {
	res, scope, err := api.resource(ctx)
	if err != nil {
		return err
	}
	items, err := res.FetchItems(ctx.Request().Context(), listQuery(ctx, scope))
	if err != nil {
		return errors.Wrapf(err, "fetching %s", res.Name())
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *recordsApi) create(ctx echo.Context) error {
	res, _, err := api.resource(ctx)
	if err != nil {
		return err
	}
	data, err := bindRecord(ctx)
	if err != nil {
		return err
	}
	item, err := res.AddItem(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrapf(err, "creating %s", res.Name())
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (api *recordsApi) update(ctx echo.Context) error {
	res, _, err := api.resource(ctx)
	if err != nil {
		return err
	}
	data, err := bindRecord(ctx)
	if err != nil {
		return err
	}
	item, err := res.UpdateItem(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrapf(err, "updating %s", res.Name())
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *recordsApi) destroy(ctx echo.Context) error {
	res, _, err := api.resource(ctx)
	if err != nil {
		return err
	}
	if err := res.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrapf(err, "deleting %s", res.Name())
	}
	return ctx.NoContent(http.StatusNoContent)
}
