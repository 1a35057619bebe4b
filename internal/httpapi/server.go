// Package httpapi exposes the todo service over HTTP/JSON.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"todoManagement/internal/auth"
	"todoManagement/internal/config"
	"todoManagement/internal/mail"
	"todoManagement/repository"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Config *config.Config
	Logger *slog.Logger
	Users  repository.UserRepositoryI
	Todos  repository.TodoRepositoryI
	Hasher *auth.Hasher
	Codec  *auth.Codec
	Guard  *auth.Guard
	Mail   mail.Sender
}

type Server struct {
	httpServer *http.Server
}

// New wraps handler in an http.Server configured from cfg.
func New(cfg config.HTTPConfig, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *Server) Addr() string { return s.httpServer.Addr }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type handler struct {
	Deps
	todoChain []auth.Check
}

// NewRouter builds the full route tree.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Mail == nil {
		d.Mail = mail.NewLogSender(d.Logger)
	}
	h := &handler{Deps: d, todoChain: auth.ActiveChain}
	if d.Config.Auth.RequireVerified {
		h.todoChain = auth.VerifiedChain
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(h.recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Process-Time"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
	})

	r.With(h.optionalUser).Get("/", h.root)
	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)
		r.Post("/verify-email/{token}", h.verifyEmail)
		r.Group(func(r chi.Router) {
			r.Use(h.requireUser(auth.ActiveChain...))
			r.Get("/me", h.me)
			r.Put("/me", h.updateMe)
			r.Post("/resend-verification", h.resendVerification)
		})
	})

	r.Route("/todos", func(r chi.Router) {
		r.Use(h.requireUser(h.todoChain...))
		r.Post("/", h.createTodo)
		r.Get("/", h.listTodos)
		r.Get("/stats/summary", h.todoStats)
		r.Get("/{id}", h.getTodo)
		r.Put("/{id}", h.updateTodo)
		r.Patch("/{id}/complete", h.toggleTodo)
		r.Delete("/{id}", h.deleteTodo)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireUser(auth.AdminChain...))
		r.Get("/users", h.adminListUsers)
		r.Get("/users/{id}", h.adminGetUser)
		r.Put("/users/{id}/role", h.adminUpdateRole)
		r.Patch("/users/{id}/activate", h.adminToggleActive)
		r.Delete("/users/{id}", h.adminDeleteUser)
		r.Get("/todos", h.adminListTodos)
		r.Get("/stats/overview", h.adminStats)
	})

	return r
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"message": "Welcome to " + h.Config.App.Name,
		"version": h.Config.App.Version,
		"endpoints": map[string]string{
			"authentication": "/auth",
			"todos":          "/todos",
			"admin":          "/admin",
		},
	}
	if u, ok := auth.UserFromContext(r.Context()); ok {
		body["user"] = u
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": h.Config.App.Version})
}
