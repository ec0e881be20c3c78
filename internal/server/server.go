package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/swiftcourier/trackingserver/config"
	"github.com/swiftcourier/trackingserver/internal/db"
	"github.com/swiftcourier/trackingserver/internal/handlers"
	"github.com/swiftcourier/trackingserver/internal/logging"
	"github.com/swiftcourier/trackingserver/internal/mq"
	"github.com/swiftcourier/trackingserver/internal/services"
	"github.com/swiftcourier/trackingserver/internal/session"
	"github.com/swiftcourier/trackingserver/internal/storage"
	"github.com/swiftcourier/trackingserver/internal/store"
)

// Deps are the collaborators the HTTP routes are built from.
type Deps struct {
	Users         *services.UserService
	Packages      *services.PackageService
	Contacts      *services.ContactService
	Sessions      *session.Manager
	Photos        *storage.Storage
	MaxPhotoBytes int64
	CORSOrigins   []string
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
	redis      *redis.Client
}

// New constructs a Server from cfg: record store, photo storage, event
// broker and session store are all selected by configuration.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	srv := &Server{}
	ok := false
	defer func() {
		if !ok {
			srv.closeResources()
		}
	}()

	backend, conn, err := OpenRecordBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv.db = conn

	seed, err := services.DefaultUsers()
	if err != nil {
		return nil, err
	}
	userRepo := store.NewUserRepository(backend, seed)
	packageRepo := store.NewPackageRepository(backend)
	contactRepo := store.NewContactRepository(backend)
	for _, repo := range []interface{ Init(context.Context) error }{userRepo, packageRepo, contactRepo} {
		if err := repo.Init(ctx); err != nil {
			return nil, fmt.Errorf("initialize collections: %w", err)
		}
	}

	photos, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open uploads storage: %w", err)
	}
	if err := photos.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure uploads bucket: %w", err)
	}

	srv.mq, err = mq.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	events := services.NewEventPublisher(srv.mq)

	sessionStore, err := srv.openSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	router := NewRouter(Deps{
		Users:         services.NewUserService(userRepo),
		Packages:      services.NewPackageService(packageRepo, photos, events, cfg.Uploads.MaxBytes),
		Contacts:      services.NewContactService(contactRepo, events),
		Sessions:      session.NewManager(sessionStore, cfg.Session),
		Photos:        photos,
		MaxPhotoBytes: cfg.Uploads.MaxBytes,
		CORSOrigins:   cfg.Server.CORSOrigins,
	})

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	srv.router = router
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	ok = true
	return srv, nil
}

// NewRouter builds the chi router with middleware and every route mounted.
func NewRouter(d Deps) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	if len(d.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	router.Use(d.Sessions.Load)

	router.Get("/healthz", handlers.Healthz)
	router.Route("/uploads", func(r chi.Router) {
		handlers.UploadsRouter(r, d.Photos)
	})
	router.Route("/api", func(r chi.Router) {
		r.Route("/track", func(r chi.Router) {
			handlers.TrackingRouter(r, d.Packages)
		})
		r.Route("/contact", func(r chi.Router) {
			handlers.ContactRouter(r, d.Contacts)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AuthRouter(r, d.Users, d.Sessions)
			r.Group(func(r chi.Router) {
				r.Use(handlers.RequireAdmin)
				r.Route("/packages", func(r chi.Router) {
					handlers.PackageRouter(r, d.Packages, d.MaxPhotoBytes)
				})
				r.Route("/contacts", func(r chi.Router) {
					handlers.ContactAdminRouter(r, d.Contacts)
				})
			})
		})
	})
	return router
}

// OpenRecordBackend opens the record store selected by cfg.Storage.Backend.
// The returned *sql.DB is non-nil only for the postgres backend and is owned
// by the caller.
func OpenRecordBackend(ctx context.Context, cfg config.Config) (store.Backend, *sql.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "", "file":
		backend, err := store.NewFileBackend(cfg.Storage.DataDir)
		return backend, nil, err
	case "postgres":
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return store.NewPostgresBackend(conn), conn, nil
	case "memory":
		return store.NewMemoryBackend(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (s *Server) openSessionStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Session.Backend)) {
	case "", "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		client, err := session.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		s.redis = client
		return session.NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx is
// done and releases backend connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeResources()
	return err
}

func (s *Server) closeResources() {
	if s.mq != nil {
		if err := s.mq.Close(); err != nil {
			log.WithError(err).Warn("failed to close message broker")
		}
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
