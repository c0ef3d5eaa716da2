package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/blog-api/errs"
	"github.com/rpupo63/blog-api/services"
)

type authHandler struct {
	responder  Responder
	logger     zerolog.Logger
	provider   services.IdentityProvider
	gate       *services.IdentityGate
	states     *services.StateSigner
	sessions   *sessionManager
	metrics    *metrics
	successURL string
	failureURL string
}

func newAuthHandler(
	provider services.IdentityProvider,
	gate *services.IdentityGate,
	states *services.StateSigner,
	sessions *sessionManager,
	metrics *metrics,
	successURL, failureURL string,
	verbose bool,
) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder:  NewResponder(logger, verbose),
		logger:     logger,
		provider:   provider,
		gate:       gate,
		states:     states,
		sessions:   sessions,
		metrics:    metrics,
		successURL: successURL,
		failureURL: failureURL,
	}
}

// login redirects the browser to Google's consent page
// @Summary Start Google sign-in
// @Tags Auth
// @Success 302 "Redirect to Google"
// @Router /auth/google [get]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nonce, err := services.NewNonce()
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to start sign-in", err))
			return
		}

		state, err := h.states.Issue(nonce)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to start sign-in", err))
			return
		}

		if err := h.sessions.setNonce(w, r, nonce); err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to start sign-in", err))
			return
		}

		http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
	}
}

// callback completes the Google sign-in and starts a session for the allowed account
// @Summary Google sign-in callback
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "Signed state"
// @Success 302 "Redirect to the dashboard, or to the login page with error=auth_failed"
// @Router /auth/google/callback [get]
func (h authHandler) callback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fail := func(outcome string, err error) {
			h.logger.Warn().Err(err).Str("outcome", outcome).Msg("sign-in failed")
			h.metrics.recordLogin(outcome)
			if err := h.sessions.clearNonce(w, r); err != nil {
				h.logger.Error().Err(err).Msg("failed to clear sign-in nonce")
			}
			http.Redirect(w, r, h.failureURL, http.StatusFound)
		}

		query := r.URL.Query()
		if providerErr := query.Get("error"); providerErr != "" {
			fail("provider_error", errs.NewApiErr(http.StatusUnauthorized, providerErr))
			return
		}

		if err := h.states.Verify(query.Get("state"), h.sessions.nonce(r)); err != nil {
			fail("bad_state", err)
			return
		}

		code := query.Get("code")
		if code == "" {
			fail("missing_code", errs.BadRequest("missing authorization code"))
			return
		}

		identity, err := h.provider.Exchange(r.Context(), code)
		if err != nil {
			fail("exchange_failed", err)
			return
		}

		user, err := h.gate.Admit(r.Context(), identity)
		if errs.IsUnauthorized(err) {
			fail("rejected", err)
			return
		}
		if err != nil {
			fail("error", err)
			return
		}

		if err := h.sessions.login(w, r, user.ID); err != nil {
			fail("error", err)
			return
		}

		h.metrics.recordLogin("admitted")
		h.logger.Info().Str("userId", user.ID.String()).Msg("signed in")
		http.Redirect(w, r, h.successURL, http.StatusFound)
	}
}

// logout ends the session
// @Summary Log out
// @Tags Auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 500 {object} ErrorResponse "Logout failed"
// @Router /auth/logout [get]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.sessions.logout(w, r); err != nil {
			h.logger.Error().Err(err).Msg("failed to clear session")
			h.responder.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{Error: "Logout failed"})
			return
		}
		h.responder.WriteJSON(w, MessageResponse{Message: "Logged out successfully"})
	}
}

// currentUser returns the signed-in user
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse "Not authenticated"
// @Router /auth/user [get]
func (h authHandler) currentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := principalFromCtx(r.Context())
		if !ok {
			h.responder.WriteError(w, errs.Unauthenticated())
			return
		}

		h.responder.WriteJSON(w, UserResponse{User: UserView{
			ID:     user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Avatar: user.Avatar,
		}})
	}
}
