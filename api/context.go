package api

import (
	"context"

	"github.com/rpupo63/blog-api/models"
)

type keyType string

const principalKey keyType = "principal"

// ctxWithPrincipal adds the signed-in user to the context
func ctxWithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey, user)
}

// principalFromCtx retrieves the signed-in user, reporting false for anonymous requests
func principalFromCtx(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(principalKey).(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
