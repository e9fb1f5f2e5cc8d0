// Package httpapi is the HTTP rendition of the tool surface. It is thin
// glue: request decoding, auth wrapping and status mapping; all semantics
// live in the dispatcher.
package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fluxgate/fluxgate/internal/activity"
	"github.com/fluxgate/fluxgate/internal/auth"
	"github.com/fluxgate/fluxgate/internal/catalog"
	"github.com/fluxgate/fluxgate/internal/metrics"
	"github.com/fluxgate/fluxgate/internal/registry"
	"github.com/fluxgate/fluxgate/internal/tools"
)

type Server struct {
	Dispatcher *tools.Dispatcher
	Registry   *registry.Registry
	Catalog    *catalog.Store
	Auth       *auth.Authenticator
	Activity   *activity.Log
	Latency    *metrics.LatencyTracker
	Collectors *metrics.Collectors

	// RequireAuth gates the tool and model routes behind API keys. Admin
	// routes are always basic-auth guarded.
	RequireAuth bool

	Version string
}

// Register wires all routes into mux.
func (s *Server) Register(mux *http.ServeMux) {
	api := http.NewServeMux()
	api.HandleFunc("/tools", s.handleListTools)
	api.HandleFunc("/tools/", s.handleToolCall)
	api.HandleFunc("/models", s.handleListModels)
	api.HandleFunc("/models/", s.handleDeleteModel)

	var apiHandler http.Handler = api
	if s.RequireAuth {
		apiHandler = s.Auth.Middleware(api)
	}
	mux.Handle("/tools", apiHandler)
	mux.Handle("/tools/", apiHandler)
	mux.Handle("/models", apiHandler)
	mux.Handle("/models/", apiHandler)

	mux.HandleFunc("/health", s.handleHealth)
	if s.Collectors != nil {
		mux.Handle("/metrics", s.Collectors.Handler())
	}

	admin := http.NewServeMux()
	admin.HandleFunc("/admin/keys", s.handleKeys)
	admin.HandleFunc("/admin/keys/", s.handleDeleteKey)
	admin.HandleFunc("/admin/catalog", s.handleCatalog)
	admin.HandleFunc("/admin/catalog/", s.handleDeleteSource)
	admin.HandleFunc("/admin/activity", s.handleActivity)
	admin.HandleFunc("/admin/latency", s.handleLatency)
	mux.Handle("/admin/", s.Auth.BasicMiddleware(admin))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"service":       "fluxgate",
		"version":       s.Version,
		"cached_models": s.Registry.Len(),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools.Specs()})
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/tools/")
	if name == "" || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}

	params := tools.Params{}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			writeError(w, http.StatusBadRequest, "request body must be a JSON object: "+err.Error())
			return
		}
	}

	res := s.Dispatcher.Dispatch(r.Context(), name, params)
	writeJSON(w, res.Kind.HTTPStatus(), res)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	infos := s.Registry.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"cached_models": len(infos),
		"models":        infos,
	})
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/models/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	if !s.Registry.Remove(id) {
		writeError(w, http.StatusNotFound, "model '"+id+"' not in registry")
		return
	}
	if s.Activity != nil {
		s.Activity.Add(activity.Event{At: time.Now(), Type: activity.EventModelRemove, Model: id})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "model '" + id + "' removed from registry",
	})
}

type createKeyRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		keys, err := s.Catalog.ListAPIKeys(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"keys": keys})

	case http.MethodPost:
		var req createKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			writeError(w, http.StatusBadRequest, "name required")
			return
		}
		key, record, err := s.Auth.GenerateKey(r.Context(), req.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"key":    key, // shown once
			"record": record,
		})

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/admin/keys/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if err := s.Catalog.DeleteAPIKey(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sources, err := s.Catalog.ListSources(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sources": sources})

	case http.MethodPost:
		var src catalog.ModelSource
		if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if src.ModelID == "" {
			writeError(w, http.StatusBadRequest, "model_id required")
			return
		}
		if err := s.Catalog.UpsertSource(r.Context(), src); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/admin/catalog/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if err := s.Catalog.DeleteSource(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	var events []activity.Event
	if s.Activity != nil {
		events = s.Activity.List()
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleLatency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	var snapshot map[string]metrics.ToolLatency
	if s.Latency != nil {
		snapshot = s.Latency.Snapshot()
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": snapshot})
}
