package auth

import (
	"net/http"

	"storefront/internal/model"
)

// Resource is a protected resource family.
type Resource int

const (
	ResourceProduct Resource = iota
	ResourceOrder
)

// Action is the kind of access requested.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
)

// ActionForMethod maps safe methods to reads and everything else to writes.
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	}
	return ActionWrite
}

// Authorize decides whether p may perform act on res. Products are readable
// by anyone and writable by staff. Orders require authentication; when owner
// is given, a non-staff caller must be that owner.
func Authorize(p *Principal, res Resource, act Action, owner *int64) error {
	switch res {
	case ResourceProduct:
		if act == ActionRead {
			return nil
		}
		if p == nil {
			return model.ErrNotAuthenticated
		}
		if !p.IsStaff {
			return model.ErrPermissionDenied
		}
		return nil

	case ResourceOrder:
		if p == nil {
			return model.ErrNotAuthenticated
		}
		if owner != nil && !p.IsStaff && *owner != p.UserID {
			return model.ErrPermissionDenied
		}
		return nil
	}

	return model.ErrPermissionDenied
}
