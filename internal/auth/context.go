package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

type userIDKey struct{}

type roleKey struct{}

func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}

// ContextWithClaims attaches the caller's id and role.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	ctx = ContextWithUserID(ctx, c.UserID)
	return context.WithValue(ctx, roleKey{}, c.Role)
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(roleKey{}).(domain.Role)
	return role, ok
}
