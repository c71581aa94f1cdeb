// Package server assembles the HTTP API: storage, routing collaborators,
// handlers and middleware.
package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kml-eagle/config"
	"kml-eagle/internal/database"
	"kml-eagle/internal/errors"
	"kml-eagle/internal/handlers"
	"kml-eagle/internal/logs"
	"kml-eagle/internal/metrics"
	"kml-eagle/internal/osrm"
	"kml-eagle/internal/routing"
	"kml-eagle/internal/simplify"
	"kml-eagle/internal/sqlite"
	"kml-eagle/internal/tsp"
	"kml-eagle/web"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	db         database.DataStore
	listener   net.Listener
	addr       string
	logger     *slog.Logger
}

// New creates and initializes a new server (does not start it). Use
// "127.0.0.1:0" as cfg.Server.Addr for a random port.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	logger = logs.OrDiscard(logger)

	dbPath, err := database.ResolveDBPath(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store, err := sqlite.New(dbPath, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize data store")
	}

	client := osrm.NewClient(cfg.OSRM, logger)
	simplifier := simplify.New(cfg.Simplify, logger)
	service := routing.NewService(client, simplifier, cfg.OSRM, logger)
	solver := tsp.NewSolver(cfg.TSP, logger)

	h := handlers.New(store, solver, service, logger)
	return newServer(cfg.Server, h, store, logger), nil
}

func newServer(cfg config.Server, h *handlers.Handler, db database.DataStore, logger *slog.Logger) *Server {
	logger = logs.OrDiscard(logger).With("component", "server")
	mux := setupRoutes(h, logger)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      loggingMiddleware(logger, corsMiddleware(mux)),
			ReadTimeout:  orDuration(cfg.ReadTimeout, 15*time.Second),
			WriteTimeout: orDuration(cfg.WriteTimeout, 2*time.Minute),
			IdleTimeout:  orDuration(cfg.IdleTimeout, 120*time.Second),
		},
		handler: h,
		db:      db,
		addr:    cfg.Addr,
		logger:  logger,
	}
}

func orDuration(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", errors.Wrap(err, "failed to listen")
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	s.logger.Info("starting server", "addr", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// setupRoutes configures all HTTP routes
func setupRoutes(handler *handlers.Handler, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	staticSubFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Error("failed to create static sub-filesystem", "error", err)
	} else {
		mux.Handle("/", http.FileServer(http.FS(staticSubFS)))
	}

	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/api/v1/health", handler.HandleHealthCheck)

	mux.HandleFunc("/api/v1/kml/parse", post(handler.HandleParseKML))
	mux.HandleFunc("/api/v1/tsp/validate", post(handler.HandleValidateTSP))
	mux.HandleFunc("/api/v1/tsp/solve", post(handler.HandleSolveTSP))
	mux.HandleFunc("/api/v1/routes/process", post(handler.HandleProcessRoute))

	mux.HandleFunc("/api/v1/saved-routes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.HandleListSavedRoutes(w, r)
		case http.MethodPost:
			handler.HandleCreateSavedRoute(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/saved-routes/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.HandleGetSavedRoute(w, r)
		case http.MethodPut:
			handler.HandleUpdateSavedRoute(w, r)
		case http.MethodDelete:
			handler.HandleDeleteSavedRoute(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}

func post(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		// the mux records the matched pattern on r; raw paths would explode label cardinality
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(lrw.statusCode)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(duration.Seconds())

		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"duration", duration,
		)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (Wails webview and local development)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") ||
			strings.HasPrefix(origin, "wails://") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
