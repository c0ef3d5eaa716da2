package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/blog-api/errs"
	"github.com/rpupo63/blog-api/models"
)

// Identity is what the identity provider asserts about the person signing in
type Identity struct {
	ExternalID    string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// IdentityProvider performs the OAuth2 authorization code exchange
type IdentityProvider interface {
	// AuthCodeURL returns the consent page URL carrying state
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the caller's identity
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// UserStore is the slice of the user repository the gate needs
type UserStore interface {
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Add(ctx context.Context, user *models.User) error
}

// IdentityGate admits exactly one allow-listed account
type IdentityGate struct {
	allowedEmail string
	users        UserStore
	logger       zerolog.Logger
}

func NewIdentityGate(allowedEmail string, users UserStore) *IdentityGate {
	return &IdentityGate{
		allowedEmail: allowedEmail,
		users:        users,
		logger:       log.With().Str("service", "identityGate").Logger(),
	}
}

// Admit returns the local user for identity, creating it on first login.
// Anything other than a verified, exact match of the allowed email is rejected
// with errs.ErrUnauthorized and leaves the user table untouched.
func (g *IdentityGate) Admit(ctx context.Context, identity *Identity) (*models.User, error) {
	if identity == nil || identity.Email == "" || !identity.EmailVerified || identity.Email != g.allowedEmail {
		g.logger.Warn().Msg("sign-in rejected by allow-list")
		return nil, errs.Unauthorized()
	}
	if identity.ExternalID == "" {
		return nil, errs.Unauthorized()
	}

	user, err := g.users.FindByGoogleID(ctx, identity.ExternalID)
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to look up user", err)
	}
	if user != nil {
		g.logger.Info().Str("userId", user.ID.String()).Msg("existing user signed in")
		return user, nil
	}

	user = &models.User{
		GoogleID: identity.ExternalID,
		Email:    identity.Email,
		Name:     identity.Name,
	}
	if identity.AvatarURL != "" {
		avatar := identity.AvatarURL
		user.Avatar = &avatar
	}
	if err := g.users.Add(ctx, user); err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to create user", fmt.Errorf("add user: %w", err))
	}

	g.logger.Info().Str("userId", user.ID.String()).Msg("new user created")
	return user, nil
}
