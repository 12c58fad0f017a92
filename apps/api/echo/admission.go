package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
)

type admissionApi struct {
	svc       *admission.Service
	policies  *admission.PolicyService
	guardians *admission.GuardianSearcher
	validate  *validator.Validate
}

func registerAdmissionAPI(g *echo.Group, deps *Deps) {
	api := admissionApi{
		svc:       deps.Admissions,
		policies:  deps.Policies,
		guardians: deps.Guardians,
		validate:  deps.Validate,
	}

	ag := g.Group("/admissions")
	ag.GET("/policy", api.policy)
	ag.GET("/guardians", api.searchGuardians)

	wg := ag.Group("/wizards")
	wg.POST("", api.start)
	wg.GET("/:id", api.retrieve)
	wg.PUT("/:id/step", api.apply)
	wg.POST("/:id/next", api.next)
	wg.POST("/:id/back", api.back)
	wg.POST("/:id/submit", api.submit)
	wg.DELETE("/:id", api.discard)
}

func owner(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Handlers

func (api *admissionApi) policy(ctx echo.Context) error {
	yearID := core.CleanString(ctx.QueryParam("academic_year_id"))
	verdict, policy, err := api.policies.Check(ctx.Request().Context(), yearID)
	if err != nil {
		return errors.Wrap(err, "checking admission policy")
	}
	return ctx.JSON(http.StatusOK, PolicyResponse{Verdict: verdict, Policy: policy})
}

func (api *admissionApi) searchGuardians(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	parents, err := api.guardians.Search(ctx.Request().Context(), scope, ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "searching guardians")
	}
	return ctx.JSON(http.StatusOK, parents)
}

func (api *admissionApi) start(ctx echo.Context) error {
	var data StartWizardRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartWizardRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	usr, err := owner(ctx)
	if err != nil {
		return err
	}

	w, err := api.svc.Start(ctx.Request().Context(), scope, usr, data.AcademicYearID)
	if err != nil {
		return errors.Wrap(err, "starting admission")
	}
	return ctx.JSON(http.StatusCreated, newWizardResponse(w))
}

func (api *admissionApi) retrieve(ctx echo.Context) error {
	usr, err := owner(ctx)
	if err != nil {
		return err
	}
	w, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), usr)
	if err != nil {
		return errors.Wrap(err, "getting admission")
	}
	return ctx.JSON(http.StatusOK, newWizardResponse(w))
}

func (api *admissionApi) apply(ctx echo.Context) error {
	var data admission.StepInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StepInput")
	}
	usr, err := owner(ctx)
	if err != nil {
		return err
	}
	w, err := api.svc.Apply(ctx.Request().Context(), ctx.Param("id"), usr, data)
	if err != nil {
		return errors.Wrap(err, "editing admission")
	}
	return ctx.JSON(http.StatusOK, newWizardResponse(w))
}

func (api *admissionApi) next(ctx echo.Context) error {
	usr, err := owner(ctx)
	if err != nil {
		return err
	}
	w, err := api.svc.Next(ctx.Request().Context(), ctx.Param("id"), usr)
	if err != nil {
		return errors.Wrap(err, "moving admission forward")
	}
	return ctx.JSON(http.StatusOK, newWizardResponse(w))
}

func (api *admissionApi) back(ctx echo.Context) error {
	usr, err := owner(ctx)
	if err != nil {
		return err
	}
	w, err := api.svc.Back(ctx.Request().Context(), ctx.Param("id"), usr)
	if err != nil {
		return errors.Wrap(err, "moving admission back")
	}
	return ctx.JSON(http.StatusOK, newWizardResponse(w))
}

func (api *admissionApi) discard(ctx echo.Context) error {
	usr, err := owner(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Discard(ctx.Request().Context(), ctx.Param("id"), usr); err != nil {
		return errors.Wrap(err, "discarding admission")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// submit answers 201 when the student and the fee were recorded,
// 207 when the student was admitted but the fee payment failed.
func (api *admissionApi) submit(ctx echo.Context) error {
	usr, err := owner(ctx)
	if err != nil {
		return err
	}
	outcome, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), usr)
	if err != nil {
		return errors.Wrap(err, "submitting admission")
	}
	if outcome.Partial() {
		return ctx.JSON(http.StatusMultiStatus, SubmitResponse{
			Outcome:      outcome,
			PaymentError: outcome.PaymentErr.Error(),
		})
	}
	return ctx.JSON(http.StatusCreated, SubmitResponse{Outcome: outcome})
}
