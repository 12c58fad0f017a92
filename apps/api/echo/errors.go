package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
	"github.com/trezcool/campusdesk/core/records"
)

// StatusClientClosedRequest is answered when the caller went away before the backend replied.
const StatusClientClosedRequest = 499

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// apiErrorStatus maps a backend failure to the status answered to the portal.
func apiErrorStatus(kind core.Kind) int {
	switch kind {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindUnauthorized:
		return http.StatusUnauthorized
	case core.KindRejected, core.KindValidation:
		return http.StatusUnprocessableEntity
	case core.KindCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusBadGateway
	}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.APIError:
			code = apiErrorStatus(origErr.Kind)
			message = echo.Map{"error": origErr.Message, "kind": origErr.Kind}
			if origErr.Kind == core.KindNetwork {
				logger.Warn(err.Error(), err, personOf(ctx))
			}
		case *admission.BlockedError:
			code = http.StatusBadRequest
			message = echo.Map{"error": origErr.Verdict.Reason, "blocked": true}
		default:
			switch {
			case errors.Is(err, admission.ErrDraftNotFound), errors.Is(err, records.ErrUnknownResource):
				code = http.StatusNotFound
				message = errors.Cause(err).Error()
			case errors.Is(err, admission.ErrDraftSubmitting):
				code = http.StatusConflict
				message = errors.Cause(err).Error()
			case errors.Is(err, admission.ErrNotLastStep):
				code = http.StatusBadRequest
				message = errors.Cause(err).Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg), personOf(ctx))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func personOf(ctx echo.Context) core.Person {
	if claims, err := getContextClaims(ctx); err == nil {
		return claims.Person()
	}
	return core.Person{}
}
