package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pothyeswaran/blogserver/config"
	"github.com/pothyeswaran/blogserver/internal/auth"
	"github.com/pothyeswaran/blogserver/internal/db"
	"github.com/pothyeswaran/blogserver/internal/handlers"
	"github.com/pothyeswaran/blogserver/internal/logger"
	"github.com/pothyeswaran/blogserver/internal/media"
	"github.com/pothyeswaran/blogserver/internal/mq"
	"github.com/pothyeswaran/blogserver/internal/services"
	"github.com/pothyeswaran/blogserver/internal/storage"
	"github.com/pothyeswaran/blogserver/internal/store"
)

// Server wraps the HTTP server and its collaborators.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.PostEvents
}

// New constructs a fully wired Server from config.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logger.New()

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend, err := newMediaBackend(ctx, cfg.Media)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	ingestor := media.NewIngestor(backend)

	events, err := newPostEvents(ctx, cfg.MQ, log)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)

	userService := services.NewUserService(userRepo)
	postService := services.NewPostService(postRepo, events)

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(jwtSecret, cfg.TokenTTL)
	guard := auth.NewGuard(tokens)

	authHandler := handlers.NewAuthHandler(userService, hasher, tokens, guard, log)
	postHandler := handlers.NewPostHandler(postService, ingestor, log, cfg.Media.MaxUploadBytes)
	mediaHandler := handlers.NewMediaHandler(ingestor, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logger.RequestLogger(log),
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Group(func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/post", func(r chi.Router) {
		handlers.PostRouter(r, postHandler, guard.RequireAuth)
	})
	router.Route("/"+media.RefPrefix, func(r chi.Router) {
		handlers.MediaRouter(r, mediaHandler)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 4000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newMediaBackend(ctx context.Context, cfg config.MediaConfig) (storage.ObjectStorage, error) {
	switch cfg.Backend {
	case "", "local":
		return storage.NewLocalDir(cfg.Dir)
	case "minio":
		return storage.NewMinioClient(cfg.Minio)
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}

func newPostEvents(ctx context.Context, cfg config.MQConfig, log *slog.Logger) (*mq.PostEvents, error) {
	backend, err := mq.NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, nil
	}
	return mq.NewPostEvents(backend, cfg.Channel, log), nil
}
