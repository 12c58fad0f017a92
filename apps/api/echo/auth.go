package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/storage/api"
)

const (
	tokenContextKey = "userToken"
	scopeContextKey = "scope"
)

// Claims represents the authorization claims transmitted via a JWT.
// The portals obtain the token from the backend; the gateway only verifies it.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Portal   string `json:"portal"`
	BranchID string `json:"branch_id,omitempty"`
}

func (c Claims) Person() core.Person {
	return core.Person{ID: c.Subject, Username: c.Username, Email: c.Email}
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// NewClaims returns the claims of a portal user, valid for ttl.
func NewClaims(conf *core.Config, subject string, portal core.Portal, branchID string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Portal:   string(portal),
		BranchID: branchID,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextToken(ctx echo.Context) (*jwt.Token, *Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return token, claims, nil
		}
	}
	return nil, nil, errUnauthorized
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	_, claims, err := getContextToken(ctx)
	if err != nil {
		return Claims{}, err
	}
	return *claims, nil
}

func getContextScope(ctx echo.Context) (core.Scope, error) {
	if scope, ok := ctx.Get(scopeContextKey).(core.Scope); ok {
		return scope, nil
	}
	return core.Scope{}, errUnauthorized
}

// scopeMiddleware resolves the portal scope of the caller and forwards their token to the backend.
// Admins may work on another branch with ?branch_id=; staff are bound to the branch of their token.
func scopeMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, claims, err := getContextToken(ctx)
		if err != nil {
			return err
		}
		portal, err := core.ParsePortal(claims.Portal)
		if err != nil {
			return errHttpForbidden
		}
		scope := core.Scope{Portal: portal, BranchID: claims.BranchID}
		if branch := core.CleanString(ctx.QueryParam("branch_id")); branch != "" && branch != scope.BranchID {
			if portal != core.PortalAdmin {
				return errHttpForbidden
			}
			scope.BranchID = branch
		}
		ctx.Set(scopeContextKey, scope)

		req := ctx.Request()
		ctx.SetRequest(req.WithContext(api.WithToken(req.Context(), token.Raw)))
		return next(ctx)
	}
}
