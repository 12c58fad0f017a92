package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/core/reference"
)

type financeApi struct {
	reference *reference.Service
	formatter *finance.Formatter
}

func registerFinanceAPI(g *echo.Group, deps *Deps) {
	api := financeApi{reference: deps.Reference, formatter: deps.Formatter}

	fg := g.Group("/finance")
	fg.POST("/quotes", api.quote)
	fg.GET("/fee-structures", api.feeStructures)
}

// Handlers

func (api *financeApi) quote(ctx echo.Context) error {
	var data QuoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuoteRequest")
	}
	contexts, err := data.Validate()
	if err != nil {
		return err
	}
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}

	taxes, err := api.reference.Taxes(ctx.Request().Context(), scope)
	if err != nil {
		return err
	}
	quote := finance.ComputeTotal(data.BaseAmount.Decimal(), finance.Applicable(taxes, contexts...))
	return ctx.JSON(http.StatusOK, QuoteResponse{Quote: quote, Lines: api.formatter.Lines(quote)})
}

// feeStructures lists the fee structures of the loaded year that apply to a class or course.
func (api *financeApi) feeStructures(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	cache := api.reference.Cache(scope)
	if !cache.FeeStructures.Loaded() {
		if _, err := cache.Load(ctx.Request().Context(), core.CleanString(ctx.QueryParam("academic_year_id")), false); err != nil {
			return errors.Wrap(err, "loading reference bundle")
		}
	}
	structures := finance.FeeStructuresFor(
		cache.FeeStructures.Items(),
		core.CleanString(ctx.QueryParam("class_id")),
		core.CleanString(ctx.QueryParam("course_id")),
	)
	return ctx.JSON(http.StatusOK, structures)
}
