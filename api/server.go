package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/blog-api/config"
	"github.com/rpupo63/blog-api/database"
	"github.com/rpupo63/blog-api/services"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(database database.Database, settings config.Settings) (Server, error) {
	address := fmt.Sprintf("0.0.0.0:%s", settings.Port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	startupTime := time.Now()

	router := newRouter(database, withSettings(settings), withStartupTime(startupTime))

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  settings.ReadTimeout,  // Timeout for reading the entire request
		WriteTimeout: settings.WriteTimeout, // Timeout for writing the response
		IdleTimeout:  settings.IdleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime}, nil
}

type router struct {
	settings     config.Settings
	startupTime  time.Time
	provider     services.IdentityProvider
	sessionStore sessions.Store
}

func withSettings(settings config.Settings) func(*router) {
	return func(r *router) {
		r.settings = settings
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

// withIdentityProvider replaces the Google provider built from settings
func withIdentityProvider(provider services.IdentityProvider) func(*router) {
	return func(r *router) {
		r.provider = provider
	}
}

// withSessionStore replaces the database session store
func withSessionStore(store sessions.Store) func(*router) {
	return func(r *router) {
		r.sessionStore = store
	}
}

func newRouter(database database.Database, opts ...func(*router)) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	settings := router.settings
	verbose := !settings.IsProduction()

	if router.provider == nil {
		router.provider = services.NewGoogleProvider(services.GoogleConfig{
			ClientID:     settings.GoogleClientID,
			ClientSecret: settings.GoogleClientSecret,
			RedirectURL:  settings.CallbackURL,
		})
	}
	if router.sessionStore == nil {
		router.sessionStore = database.SessionStore(sessionOptions(settings), []byte(settings.SessionSecret))
	}

	sessionManager := newSessionManager(router.sessionStore)
	metrics := newMetrics()
	responder := NewResponder(log.With().Str("handlerName", "router").Logger(), verbose)

	listing := services.NewListingService(database.PostRepo())
	handlers := &routeHandlers{
		authHandler: newAuthHandler(
			router.provider,
			services.NewIdentityGate(settings.AllowedEmail, database.UserRepo()),
			services.NewStateSigner(settings.SessionSecret),
			sessionManager,
			metrics,
			settings.LoginSuccessURL(),
			settings.LoginFailureURL(),
			verbose,
		),
		blogHandler:      newBlogHandler(listing, verbose),
		dashboardHandler: newDashboardHandler(listing, services.NewPostService(database.PostRepo()), verbose),
	}

	authMiddleware := newAuthMiddleware(sessionManager, database.UserRepo(), verbose)

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors(verbose))
	chiRouter.Use(metrics.middleware)
	chiRouter.Use(ColoredHTTPLoggingMiddleware(verbose))
	chiRouter.Use(corsMiddleware(settings.AcceptedOrigins))
	chiRouter.Use(authMiddleware.loadPrincipal)

	chiRouter.NotFound(notFound(responder))
	chiRouter.MethodNotAllowed(notFound(responder))

	chiRouter.Get("/", func(w http.ResponseWriter, r *http.Request) {
		responder.WriteJSON(w, HealthResponse{
			Message:   "Blog API is running",
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(router.startupTime).Round(time.Second).String(),
		})
	})
	chiRouter.Method(http.MethodGet, "/metrics", metrics.handler())

	setupRoutes(chiRouter, handlers, authMiddleware)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
