// Package server is the composition root: it opens the database, builds the
// services and handlers on top of it, mounts them on a chi router and runs
// the HTTP server until it is told to stop.
//
// Dependencies flow one way:
//
//	sqlite.DB → repository interfaces → services → handlers → routes
//
// Handlers never see the database and services never see HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/handler"
	"github.com/sakif/foodgram/internal/metrics"
	"github.com/sakif/foodgram/internal/middleware"
	"github.com/sakif/foodgram/internal/model"
	sqliteRepo "github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

// Server owns the router and the database connection. The connection is
// closed when Start returns or Close is called.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database at cfg.Database.Path and wires every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on the way out.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes mounts everything under /api plus the operational endpoints.
//
// Middleware order matters: the request ID must exist before the logger
// reads it, and Recoverer sits inside the logger so a panic is still logged
// as a 500.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if gh := s.config.Auth.GitHub; gh.Enabled() {
		github = auth.NewGitHubProvider(gh.ClientID, gh.ClientSecret, gh.CallbackURL)
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	userService := service.NewUserService(s.db, s.db, s.db, s.logger)
	relationService := service.NewRelationService(s.db, s.db, s.db, s.logger)
	recipeService := service.NewRecipeService(s.db, s.db, s.db, s.logger)
	catalogService := service.NewCatalogService(s.db, s.db, s.logger)
	shoppingService := service.NewShoppingService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	userHandler := handler.NewUserHandler(userService, relationService, s.logger)
	recipeHandler := handler.NewRecipeHandler(recipeService, relationService, shoppingService, s.logger)
	catalogHandler := handler.NewCatalogHandler(catalogService)

	requireAuth := auth.RequireAuth(tokens)
	limited := middleware.RateLimit(s.config.HTTP.RateLimit, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.CORS(s.config.HTTP.CORSOrigins))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))

		r.Route("/auth", func(r chi.Router) {
			r.With(limited).Post("/token/login", authHandler.HandleLogin)
			r.With(requireAuth).Post("/token/logout", authHandler.HandleLogout)

			if github != nil {
				r.Get("/github/login", authHandler.HandleGitHubLogin)
				r.Get("/github/callback", authHandler.HandleGitHubCallback)
			}
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.HandleList)
			r.With(limited).Post("/", authHandler.HandleRegister)

			// Static segments before /{id}, although chi prefers them anyway.
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", userHandler.HandleMe)
				r.Get("/subscriptions", userHandler.HandleSubscriptions)
				r.With(limited).Post("/set_password", authHandler.HandleSetPassword)
				r.Post("/{id}/subscribe", userHandler.HandleSubscribe)
				r.Delete("/{id}/subscribe", userHandler.HandleUnsubscribe)
			})

			r.Get("/{id}", userHandler.HandleGet)
		})

		r.Get("/tags", catalogHandler.HandleListTags)
		r.Get("/tags/{id}", catalogHandler.HandleGetTag)
		r.Get("/ingredients", catalogHandler.HandleListIngredients)
		r.Get("/ingredients/{id}", catalogHandler.HandleGetIngredient)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.HandleList)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/download_shopping_cart", recipeHandler.HandleDownloadShoppingCart)

				r.With(limited).Post("/", recipeHandler.HandleCreate)
				r.With(limited).Patch("/{id}", recipeHandler.HandleUpdate)
				r.Delete("/{id}", recipeHandler.HandleDelete)

				r.Post("/{id}/favorite", recipeHandler.HandleAdd(model.Favourite))
				r.Delete("/{id}/favorite", recipeHandler.HandleRemove(model.Favourite))
				r.Post("/{id}/shopping_cart", recipeHandler.HandleAdd(model.Purchase))
				r.Delete("/{id}/shopping_cart", recipeHandler.HandleRemove(model.Purchase))
			})

			r.Get("/{id}", recipeHandler.HandleGet)
		})
	})

	s.logger.Debug("routes configured",
		slog.Bool("github_login", github != nil),
		slog.Int("rate_limit", s.config.HTTP.RateLimit),
	)
	return nil
}

// handleHealth reports 503 when the database stops answering.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}` + "\n"))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to http.shutdown_timeout and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.HTTP.Port),
			slog.String("database", s.config.Database.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
