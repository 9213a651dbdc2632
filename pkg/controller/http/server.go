package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/service/discourse"
	"github.com/neuro86/neuro86/pkg/usecase"
	"github.com/neuro86/neuro86/pkg/utils/logging"
)

type Server struct {
	router       *chi.Mux
	uc           *usecase.UseCases
	verifier     TokenVerifier
	resources    *model.ResourceSet
	discourseSvc *discourse.Service
}

type Options func(*Server)

// WithResources enables the research and facility listing endpoints
func WithResources(resources *model.ResourceSet) Options {
	return func(s *Server) {
		s.resources = resources
	}
}

// WithDiscourse enables the forum SSO endpoint
func WithDiscourse(svc *discourse.Service) Options {
	return func(s *Server) {
		s.discourseSvc = svc
	}
}

func New(uc *usecase.UseCases, verifier TokenVerifier, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		uc:       uc,
		verifier: verifier,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		// Forum SSO rides on the session cookie, not a bearer token: the
		// browser is redirected here by the forum itself
		if s.discourseSvc != nil {
			r.Get("/discourse/sso", s.discourseSSOHandler())
		}

		if s.resources != nil {
			r.Get("/research", s.researchHandler())
			r.Get("/facilities/{state}", s.facilitiesHandler())
		}

		r.Group(func(r chi.Router) {
			r.Use(s.identityMiddleware())

			r.Post("/story", s.submitStoryHandler())
			r.Get("/stories", s.listStoriesHandler())
			r.Put("/story/{id}", s.editStoryHandler())
			r.Delete("/story/{id}", s.deleteStoryHandler())
			r.Delete("/stories", s.deleteAllStoriesHandler())
			r.Get("/similar-stories", s.similarStoriesHandler())
			r.Get("/timeline", s.timelineHandler())
			r.Get("/check-story", s.checkStoryHandler())
			r.Post("/auth/link", s.authLinkHandler())
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
