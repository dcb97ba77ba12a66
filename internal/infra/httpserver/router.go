package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	appfeed "github.com/bryanwahyu/threatdesk/internal/application/feed"
	appscans "github.com/bryanwahyu/threatdesk/internal/application/scans"
	"github.com/bryanwahyu/threatdesk/internal/domain/profile"
	domain "github.com/bryanwahyu/threatdesk/internal/domain/scans"
	"github.com/bryanwahyu/threatdesk/internal/metrics"
	"github.com/bryanwahyu/threatdesk/internal/middleware"
	"github.com/bryanwahyu/threatdesk/internal/report"
)

type Options struct {
	Console  *appscans.Console
	Feed     *appfeed.Feed
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Checkers map[string]middleware.HealthChecker

	APIKey      string
	CORSOrigins []string
	RateLimit   int // requests per second per client, 0 disables
}

type Router struct {
	console  *appscans.Console
	feed     *appfeed.Feed
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewRouter serves the dashboard data contract.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	r := &Router{
		console:  opts.Console,
		feed:     opts.Feed,
		logger:   opts.Logger,
		upgrader: newUpgrader(opts.CORSOrigins),
	}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(opts.Logger))
	mux.Use(middleware.Metrics(opts.Metrics))
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler(opts.Checkers))

	mux.Group(func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKey))
		rt.Get("/metrics", middleware.MetricsHandler(opts.Metrics))

		rt.Route("/v1", func(rt chi.Router) {
			rt.Use(middleware.RateLimit(opts.RateLimit*2, opts.RateLimit))

			rt.Get("/dashboard", r.wrap(r.handleDashboard))
			rt.Post("/scans", r.wrap(r.handleSubmit))
			rt.Get("/scans", r.wrap(r.handleResults))
			rt.Delete("/scans", r.wrap(r.handleClear))
			rt.Get("/stats", r.wrap(r.handleStats))
			rt.Get("/analysis/last", r.wrap(r.handleLastAnalysis))
			rt.Get("/profile", r.wrap(r.handleProfile))
			rt.Put("/profile", r.wrap(r.handleSaveProfile))
			rt.Get("/feed", r.wrap(r.handleFeed))
			rt.Get("/feed/stream", r.handleFeedStream)
			rt.Get("/report", r.wrap(r.handleReport))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks decode failures so wrap can answer 400.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.As(err, &br),
			errors.Is(err, domain.ErrEmptyTarget),
			errors.Is(err, middleware.ErrTargetTooLong),
			errors.Is(err, middleware.ErrFieldTooLong),
			errors.Is(err, profile.ErrInvalidProfile):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrScanInProgress):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// client went away; nobody reads the body
			http.Error(w, "request cancelled", http.StatusServiceUnavailable)
		case errors.Is(err, domain.ErrCritical):
			r.logger.Error("critical scan failure", "error", err)
			http.Error(w, "critical error, please try again", http.StatusInternalServerError)
		default:
			r.logger.Error("request failed", "path", req.URL.Path, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, middleware.MaxAvatarLength+4096))
	if err := dec.Decode(v); err != nil {
		return badRequest{err}
	}
	return nil
}

// GET /v1/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.console.View())
}

// POST /v1/scans
// Body: {"target": "<url or snippet>"}
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Target string `json:"target"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	target, err := middleware.ValidateTarget(body.Target)
	if err != nil {
		return err
	}
	rep, err := r.console.Submit(req.Context(), target)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// GET /v1/scans?limit=20
func (r *Router) handleResults(w http.ResponseWriter, req *http.Request) error {
	list := r.console.Results()
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	return writeJSON(w, http.StatusOK, list[:middleware.ValidateLimit(limit, len(list))])
}

// DELETE /v1/scans
func (r *Router) handleClear(w http.ResponseWriter, req *http.Request) error {
	if err := r.console.ClearHistory(req.Context()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.console.Stats())
}

// GET /v1/analysis/last
func (r *Router) handleLastAnalysis(w http.ResponseWriter, req *http.Request) error {
	last, ok := r.console.LastAnalysis()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	return writeJSON(w, http.StatusOK, last)
}

// GET /v1/profile
func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.console.Profile())
}

// PUT /v1/profile
// Body: {"name": "...", "role": "...", "avatar": "data:image/png;base64,..." | null}
func (r *Router) handleSaveProfile(w http.ResponseWriter, req *http.Request) error {
	var body profile.Profile
	if err := decode(w, req, &body); err != nil {
		return err
	}
	body.Name = middleware.SanitizeString(body.Name)
	body.Role = middleware.SanitizeString(body.Role)
	if err := middleware.ValidateProfileFields(body.Name, body.Role, body.Avatar); err != nil {
		return err
	}
	if err := r.console.SaveProfile(req.Context(), body); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.console.Profile())
}

// GET /v1/feed
func (r *Router) handleFeed(w http.ResponseWriter, req *http.Request) error {
	entries := []appfeed.Entry{}
	if r.feed != nil {
		entries = r.feed.Entries()
	}
	return writeJSON(w, http.StatusOK, entries)
}

// GET /v1/report
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	v := r.console.View()
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	return report.WriteMarkdown(w, report.Data{
		Profile:   v.Profile,
		Stats:     v.Stats,
		Results:   v.Results,
		Generated: time.Now(),
	})
}
