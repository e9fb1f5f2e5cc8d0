// engined is the engine sidecar: it serves the stateless engine HTTP
// protocol backed by the built-in evaluator, so a fluxgate server configured
// with engine=remote has something to talk to without a Python deployment.
// A COBRApy-based sidecar replaces it by implementing the same three routes.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fluxgate/fluxgate/internal/engine"
	"github.com/fluxgate/fluxgate/internal/model"
)

func main() {
	addr := envOr("ENGINED_ADDR", ":9090")
	meminfoPath := envOr("ENGINED_MEMINFO_PATH", "/proc/meminfo")

	eng := engine.NewLocal()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/load", handleLoad(eng))
	mux.HandleFunc("/v1/optimize", handleOptimize(eng))
	mux.HandleFunc("/v1/fva", handleFVA(eng))
	mux.HandleFunc("/healthz", handleHealthz(meminfoPath))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("engined listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("engined serve", "err", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type loadRequest struct {
	ModelID string `json:"model_id"`
	Path    string `json:"model_path"`
}

func handleLoad(eng *engine.Local) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req loadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		m, err := eng.Load(r.Context(), engine.Source{ModelID: req.ModelID, Path: req.Path})
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

type optimizeRequest struct {
	Model *model.Model `json:"model"`
}

func handleOptimize(eng *engine.Local) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req optimizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model == nil {
			writeError(w, http.StatusBadRequest, "model required")
			return
		}
		sol, err := eng.Optimize(r.Context(), req.Model)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sol)
	}
}

type fvaRequest struct {
	Model       *model.Model `json:"model"`
	ReactionIDs []string     `json:"reaction_ids"`
}

func handleFVA(eng *engine.Local) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req fvaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model == nil {
			writeError(w, http.StatusBadRequest, "model required")
			return
		}
		ranges, err := eng.FluxVariability(r.Context(), req.Model, req.ReactionIDs)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ranges)
	}
}

func handleHealthz(meminfoPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, avail, err := readMeminfo(meminfoPath)
		body := map[string]any{
			"status": "healthy",
		}
		if err == nil {
			body["ram_total_bytes"] = total
			body["ram_available_bytes"] = avail
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func readMeminfo(path string) (totalBytes uint64, availBytes uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	var totalKB, availKB uint64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "MemTotal:") {
			totalKB = parseMeminfoKB(line)
		} else if strings.HasPrefix(line, "MemAvailable:") {
			availKB = parseMeminfoKB(line)
		} else if strings.HasPrefix(line, "MemFree:") && availKB == 0 {
			// Fallback for kernels without MemAvailable.
			availKB = parseMeminfoKB(line)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, 0, err
	}
	return totalKB * 1024, availKB * 1024, nil
}

func parseMeminfoKB(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, _ := strconv.ParseUint(fields[1], 10, 64)
	return v
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
