// Package session carries the authenticated operator through a request.
package session

import "context"

const (
	RoleAdmin  = "admin"
	RoleSeller = "vendedor"
)

type Session struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// SellerScope is the seller a query must be restricted to: sellers only see
// their own sales, admins see everything (0).
func (s Session) SellerScope() uint {
	if s.IsAdmin() {
		return 0
	}
	return s.UserID
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSeller
}
