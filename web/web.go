// Package web provides the server-rendered demo pages.
// All templates and static files are embedded in the binary.
// Pages read and write only through the hooks in package app.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/newsdemo/adapters/metrics"
	"github.com/artpar/newsdemo/app"
	"github.com/artpar/newsdemo/app/query"
	"github.com/artpar/newsdemo/pkg/httpmw"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

//go:embed templates/* static/*
var assets embed.FS

// Handler provides the demo pages.
type Handler struct {
	templates map[string]*template.Template // One template per page
	news      *app.NewsQueries
	auth      *app.AuthQueries
	logger    zerolog.Logger
	metrics   *metrics.Collector
	appName   string
	wait      time.Duration
	timeout   time.Duration
}

// Deps contains dependencies for the web handler.
type Deps struct {
	News    *app.NewsQueries
	Auth    *app.AuthQueries
	Logger  zerolog.Logger
	Metrics *metrics.Collector // optional; enables /metrics
	AppName string

	// RenderWait bounds how long a page waits on a read before it renders
	// the loading state instead. Zero waits for the read to finish.
	RenderWait     time.Duration
	RequestTimeout time.Duration
}

// NewHandler creates a new web handler.
func NewHandler(deps Deps) (*Handler, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	appName := deps.AppName
	if appName == "" {
		appName = "News Demo"
	}

	return &Handler{
		templates: tmpl,
		news:      deps.News,
		auth:      deps.Auth,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		appName:   appName,
		wait:      deps.RenderWait,
		timeout:   deps.RequestTimeout,
	}, nil
}

// Router returns the web router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	httpmw.Install(r, h.logger, h.metrics, h.timeout)

	staticFS, _ := fs.Sub(assets, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/health", h.Health)
	if h.metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/", h.Index)

	r.Get("/news-hooks", h.NewsPage)
	r.Post("/news-hooks/refresh", h.NewsRefresh)
	r.Get("/news-hooks/{id}", h.NewsItemPage)

	r.Get("/auth-demo", h.AuthPage)
	r.Post("/auth-demo", h.AuthSubmit)
	r.Post("/auth-demo/logout", h.LogoutSubmit)

	return r
}

// use resolves q, giving up after the render wait. A read still in flight
// when the wait ends is reported as loading rather than as an error; the
// fetch itself keeps running and fills the cache for the next render.
func use[T any](ctx context.Context, q *query.Query[T], wait time.Duration) query.Result[T] {
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	res := q.Use(ctx)
	if res.Err != nil && ctx.Err() != nil {
		return q.Peek()
	}
	return res
}

// Helper to parse all templates with the layout
func parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 3:04:05 PM")
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}

	templates := make(map[string]*template.Template)

	layoutContent, err := fs.ReadFile(assets, "templates/layouts/base.html")
	if err != nil {
		return nil, err
	}

	pages, err := fs.Glob(assets, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := strings.TrimPrefix(page, "templates/pages/")
		name = strings.TrimSuffix(name, ".html")

		pageContent, err := fs.ReadFile(assets, page)
		if err != nil {
			return nil, err
		}

		tmpl := template.New(name).Funcs(funcs)
		if _, err := tmpl.Parse(string(layoutContent)); err != nil {
			return nil, fmt.Errorf("parse layout for %s: %w", name, err)
		}
		if _, err := tmpl.Parse(string(pageContent)); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}

		templates[name] = tmpl
	}

	return templates, nil
}
