package server

import (
	"log"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	orbyqmiddleware "github.com/KshitijThareja/Orbyq/internal/middleware"
	"github.com/KshitijThareja/Orbyq/internal/services/dataport"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/resources"
	"github.com/KshitijThareja/Orbyq/internal/services/validation"
	"github.com/KshitijThareja/Orbyq/internal/telemetry"
)

// RouterOptions controls the construction of the API router.
// IAM, Authenticator and Enforcer are required; the other services are
// mounted only when set.
type RouterOptions struct {
	IAM           iamService
	Authenticator iam.Authenticator
	Enforcer      casbin.IEnforcer
	Resources     *resources.Services
	Dataport      *dataport.Service
	Validator     *validation.RequestValidator
	Metrics       *telemetry.ServerMetrics
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
	ExtraRoutes   func(chi.Router)
}

// DefaultCORSOptions returns the CORS policy for the browser client.
func DefaultCORSOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:3000",
		}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy, and
// the API handlers mounted.
//
// /auth/* and /health are public. Everything under /api and /admin requires
// a valid access token and is then checked against the role policy.
func NewRouter(opts RouterOptions) (chi.Router, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(orbyqmiddleware.HTTPMetrics(opts.Metrics))

	corsCfg := DefaultCORSOptions(nil)
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", HandleRegister(opts.IAM, opts.Validator))
		r.Post("/login", HandleLogin(opts.IAM, opts.Validator))
		r.Post("/refresh", HandleRefresh(opts.IAM, opts.Validator))
	})

	authz, err := orbyqmiddleware.NewAuthzMiddleware(opts.Enforcer)
	if err != nil {
		return nil, err
	}

	r.Group(func(r chi.Router) {
		r.Use(orbyqmiddleware.RequireAuthentication(opts.Authenticator))
		r.Use(authz)

		r.Route("/api", func(r chi.Router) {
			r.Get("/user/me", HandleMe(opts.IAM))
			r.Put("/user/profile", HandleUpdateProfile(opts.IAM, opts.Validator))
			r.Delete("/user", HandleDeleteAccount(opts.IAM))

			if opts.Resources != nil {
				mountResources(r, opts.Resources, opts.Validator)
			} else {
				log.Println("WARNING: resource services not configured; /api resource routes disabled")
			}
			if opts.Dataport != nil {
				r.Get("/export", HandleExport(opts.Dataport))
				r.Post("/import", HandleImport(opts.Dataport, opts.Validator))
			}
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", HandleListUsers(opts.IAM))
			r.Put("/users/{id}/roles", HandleSetRoles(opts.IAM, opts.Validator))
		})
	})

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	return r, nil
}

func mountResources(r chi.Router, res *resources.Services, v *validation.RequestValidator) {
	mountResource(r, "/documents", &resourceHandlers[*models.Document]{
		svc: res.Documents, newFn: func() *models.Document { return new(models.Document) }, validator: v,
	}, nil)
	mountResource(r, "/ideas", &resourceHandlers[*models.Idea]{
		svc: res.Ideas, newFn: func() *models.Idea { return new(models.Idea) }, validator: v,
	}, nil)
	mountResource(r, "/moodboard", &resourceHandlers[*models.MoodBoardItem]{
		svc: res.MoodBoard, newFn: func() *models.MoodBoardItem { return new(models.MoodBoardItem) }, validator: v,
	}, nil)
	mountResource(r, "/projects", &resourceHandlers[*models.Project]{
		svc: res.Projects, newFn: func() *models.Project { return new(models.Project) }, validator: v,
	}, nil)
	mountResource(r, "/activity", &resourceHandlers[*models.ActivityLog]{
		svc: res.Activity, newFn: func() *models.ActivityLog { return new(models.ActivityLog) }, validator: v,
	}, nil)

	mountResource(r, "/todos", &resourceHandlers[*models.Todo]{
		svc: res.Todos, newFn: func() *models.Todo { return new(models.Todo) }, validator: v,
	}, func(r chi.Router) {
		r.Patch("/{id}/toggle", HandleToggleTodo(res.Todos))
	})

	mountResource(r, "/tasks", &resourceHandlers[*models.Task]{
		svc: res.Tasks, newFn: func() *models.Task { return new(models.Task) }, validator: v,
		where: func(r *http.Request) []repository.Condition {
			if projectID := r.URL.Query().Get("projectId"); projectID != "" {
				return []repository.Condition{{Column: "project_id", Value: projectID}}
			}
			return nil
		},
	}, func(r chi.Router) {
		r.Get("/board", HandleTaskBoard(res.Tasks))
		r.Patch("/{id}/status", HandleTaskStatus(res.Tasks, v))
	})

	items := &canvasItemHandlers{svc: res.CanvasItems, validator: v}
	mountResource(r, "/canvases", &resourceHandlers[*models.Canvas]{
		svc: res.Canvases, newFn: func() *models.Canvas { return new(models.Canvas) }, validator: v,
	}, func(r chi.Router) {
		r.Route("/{id}/items", items.mount)
	})
}

// NewH2CHandler wraps the router with an h2c server to provide HTTP/2 over
// cleartext.
func NewH2CHandler(opts RouterOptions) (http.Handler, error) {
	router, err := NewRouter(opts)
	if err != nil {
		return nil, err
	}
	return h2c.NewHandler(router, &http2.Server{}), nil
}
