// Package web is the HTTP transport: routing, input validation, the request
// authentication guard, and response encoding. Handlers stay thin; all
// domain behavior lives in the services.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ChutneyCheeseball/blabber/internal/logging"
	"github.com/ChutneyCheeseball/blabber/internal/server/metrics"
	"github.com/ChutneyCheeseball/blabber/internal/server/models"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/users"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// UserService is the slice of the user service the handlers need.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, email, password string) (string, error)
}

// BlabService is the slice of the blab service the handlers need.
type BlabService interface {
	CreateBlab(ctx context.Context, author *models.User, content string) (*models.Blab, error)
	GlobalFeed(ctx context.Context) ([]models.FeedItem, error)
	MentionedFeed(ctx context.Context, userID string) ([]models.FeedItem, error)
	Timeline(ctx context.Context, userID string) ([]models.FeedItem, error)
}

type Server struct {
	address       string
	logger        logging.Logger
	users         UserService
	blabs         BlabService
	identities    users.Repository
	jwtSecret     []byte
	lookupTimeout time.Duration
	metrics       *metrics.Metrics
}

// NewServer wires the HTTP surface. identities is the repository the guard
// re-resolves token subjects against; lookupTimeout bounds that lookup.
func NewServer(address string, l logging.Logger, us UserService, bs BlabService, identities users.Repository, secretKey string, lookupTimeout time.Duration, m *metrics.Metrics) *Server {
	return &Server{
		address:       address,
		logger:        l.With("module", "web"),
		users:         us,
		blabs:         bs,
		identities:    identities,
		jwtSecret:     []byte(secretKey),
		lookupTimeout: lookupTimeout,
		metrics:       m,
	}
}

// Router builds the chi routing tree. Protected routes sit behind the guard.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.requestLogger)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Post("/user", s.handleCreateUser)
	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.guard)
		r.Post("/blabs", s.handleCreateBlab)
		r.Get("/feed", s.handleFeed)
		r.Get("/mentioned", s.handleMentioned)
		r.Get("/timeline", s.handleTimeline)
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "listening", "addr", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
