// Package server provides the gitrelay HTTP API servers. One Server instance
// serves exactly one provider flavor; the two flavors share the auth gate,
// the JSON helpers and the error mapping, and differ only in routes and
// payload shapes.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/rhinohq/gitrelay/internal/config"
	"github.com/rhinohq/gitrelay/internal/relay"
	ghrelay "github.com/rhinohq/gitrelay/internal/relay/github"
	glrelay "github.com/rhinohq/gitrelay/internal/relay/gitlab"
)

// Server is a single relay service instance.
type Server struct {
	cfg      *config.Config
	log      *logrus.Logger
	provider relay.Provider
	router   chi.Router
}

// NewGitHub creates the GitHub-flavor relay server.
func NewGitHub(cfg *config.Config, log *logrus.Logger) (*Server, error) {
	p, err := ghrelay.NewProvider(ghrelay.Config{Token: cfg.GitHubToken})
	if err != nil {
		return nil, err
	}
	return newServer(cfg, log, p, (*Server).githubRoutes), nil
}

// NewGitLab creates the GitLab-flavor relay server.
func NewGitLab(cfg *config.Config, log *logrus.Logger) (*Server, error) {
	p, err := glrelay.NewProvider(glrelay.Config{
		Token:   cfg.GitLabToken,
		BaseURL: cfg.GitLabBaseURL(),
	})
	if err != nil {
		return nil, err
	}
	return newServer(cfg, log, p, (*Server).gitlabRoutes), nil
}

func newServer(cfg *config.Config, log *logrus.Logger, p relay.Provider, mount func(*Server, chi.Router)) *Server {
	s := &Server{cfg: cfg, log: log, provider: p}
	s.router = s.buildRouter(mount)
	return s
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.WithField("addr", s.cfg.Addr).Info("gitrelay listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) buildRouter(mount func(*Server, chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	// Health check stays outside the auth gate.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAPIKey(s.cfg.APIKey))
		mount(s, r)
	})

	return r
}

func (s *Server) githubRoutes(r chi.Router) {
	r.Get("/pr_content", s.handlePRContent)
	r.Get("/file_content", s.handleGitHubFileContent)
	r.Get("/issue_info", s.handleGitHubIssueInfo)
	r.Post("/submit_pr_comment", s.handleSubmitPRComment)
	r.Get("/repo_structure", s.handleGitHubRepoStructure)
}

func (s *Server) gitlabRoutes(r chi.Router) {
	r.Get("/mr_content", s.handleMRContent)
	r.Get("/file_content", s.handleGitLabFileContent)
	r.Get("/issue_info", s.handleGitLabIssueInfo)
	r.Post("/submit_mr_comment", s.handleSubmitMRComment)
	r.Get("/repo_structure", s.handleGitLabRepoStructure)
}

// requireAPIKey rejects any request whose X-Api-Key header is not an exact
// match for the shared secret. An empty configured secret rejects everything.
func requireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Api-Key")
			if got == "" || got != key {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request with the chi request ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

// relayError converts a provider failure into the outward JSON error body.
// Binary-file rejections keep the original {"error": ...} shape of the
// GitHub service's file endpoint.
func (s *Server) relayError(w http.ResponseWriter, r *http.Request, err error) {
	var binErr *relay.BinaryFileError
	if errors.As(err, &binErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": binErr.Error()})
		return
	}

	var relErr *relay.Error
	if errors.As(err, &relErr) {
		writeError(w, relErr.Code, relErr.Message)
		return
	}

	s.log.WithFields(logrus.Fields{
		"path":  r.URL.Path,
		"error": err,
	}).Error("unhandled relay error")
	writeError(w, http.StatusInternalServerError, "Unexpected error occurred")
}

// --- Response types ---

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type issueInfoResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type fileContentResponse struct {
	Content string `json:"content"`
}

type repoStructureResponse struct {
	Directories []string `json:"directories"`
	Files       []string `json:"files"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Code: code, Message: msg})
}
