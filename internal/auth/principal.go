// Package auth resolves the requesting principal and decides what it may do.
package auth

import (
	"context"
	"strconv"

	"storefront/internal/model"
)

// Principal is an authenticated caller.
type Principal struct {
	UserID   int64
	Username string
	IsStaff  bool
}

// NewPrincipal builds a principal from a stored user.
func NewPrincipal(u *model.User) *Principal {
	return &Principal{UserID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}

// Key identifies the principal for rate limiting.
func (p *Principal) Key() string {
	return "user:" + strconv.FormatInt(p.UserID, 10)
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx, or nil for anonymous requests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}
