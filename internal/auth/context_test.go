package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

func TestContextWithClaims(t *testing.T) {
	id := uuid.New()
	ctx := ContextWithClaims(context.Background(), &Claims{UserID: id, Role: domain.RoleAdmin})

	gotID, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, gotID)

	role, ok := RoleFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestRoleFromContext_Missing(t *testing.T) {
	_, ok := RoleFromContext(context.Background())
	assert.False(t, ok)
}
