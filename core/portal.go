package core

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Portal is the front-end a caller comes from.
type Portal string

const (
	PortalAdmin Portal = "admin"
	PortalStaff Portal = "staff"
)

var ErrUnknownPortal = errors.New("unknown portal")

func ParsePortal(s string) (Portal, error) {
	switch p := Portal(strings.ToLower(strings.TrimSpace(s))); p {
	case PortalAdmin, PortalStaff:
		return p, nil
	}
	return "", errors.Wrapf(ErrUnknownPortal, "%q", s)
}

// StorageKey is the persisted state key of the portal.
func (p Portal) StorageKey() string {
	return string(p) + "-storage"
}

// Scope identifies one cached view of the backend: a portal working on a branch.
type Scope struct {
	Portal   Portal
	BranchID string
}

// SnapshotKey is the persisted snapshot key of the scope, optionally narrowed with extra parts.
func (s Scope) SnapshotKey(parts ...string) string {
	key := s.Portal.StorageKey()
	if s.BranchID != "" {
		key += ":" + s.BranchID
	}
	for _, p := range parts {
		if p != "" {
			key += ":" + p
		}
	}
	return key
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the token attached with WithToken.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
