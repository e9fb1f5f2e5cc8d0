// Package webui is a small read-only status page: loaded models, recent
// activity and per-tool latency. Operational management happens through the
// admin API, not here.
package webui

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/fluxgate/fluxgate/internal/activity"
	"github.com/fluxgate/fluxgate/internal/metrics"
	"github.com/fluxgate/fluxgate/internal/registry"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Handler struct {
	Registry *registry.Registry
	Activity *activity.Log
	Latency  *metrics.LatencyTracker
	Version  string

	templates *template.Template
}

func NewHandler(reg *registry.Registry, act *activity.Log, lat *metrics.LatencyTracker, version string) (*Handler, error) {
	tpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		Registry:  reg,
		Activity:  act,
		Latency:   lat,
		Version:   version,
		templates: tpl,
	}, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ui/", h.dashboard)
	mux.HandleFunc("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})
}

type viewModel struct {
	Now     time.Time
	Version string
	Models  []registry.Info
	Events  []activity.Event
	Latency map[string]metrics.ToolLatency
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/ui/" {
		http.NotFound(w, r)
		return
	}

	vm := viewModel{
		Now:     time.Now(),
		Version: h.Version,
		Models:  h.Registry.List(),
	}
	if h.Activity != nil {
		events := h.Activity.List()
		if len(events) > 25 {
			events = events[:25]
		}
		vm.Events = events
	}
	if h.Latency != nil {
		vm.Latency = h.Latency.Snapshot()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = h.templates.ExecuteTemplate(w, "dashboard.html", vm)
}
