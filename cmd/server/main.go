package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluxgate/fluxgate/internal/activity"
	"github.com/fluxgate/fluxgate/internal/auth"
	"github.com/fluxgate/fluxgate/internal/catalog"
	"github.com/fluxgate/fluxgate/internal/config"
	"github.com/fluxgate/fluxgate/internal/engine"
	"github.com/fluxgate/fluxgate/internal/httpapi"
	"github.com/fluxgate/fluxgate/internal/httpx"
	"github.com/fluxgate/fluxgate/internal/mcpserver"
	"github.com/fluxgate/fluxgate/internal/metrics"
	"github.com/fluxgate/fluxgate/internal/preload"
	"github.com/fluxgate/fluxgate/internal/registry"
	"github.com/fluxgate/fluxgate/internal/tools"
	"github.com/fluxgate/fluxgate/internal/webui"
)

const version = "0.1.0"

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "fluxgate - metabolic model tool service",
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./fluxgate.yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	serveCmd.Flags().String("http-addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("database", "fluxgate.db", "catalog database path")
	serveCmd.Flags().String("engine", "local", "compute engine: local or remote")
	serveCmd.Flags().String("engine-url", "http://localhost:9090", "remote engine base URL")
	serveCmd.Flags().Bool("auth", false, "require API keys on tool routes")
	_ = viper.BindPFlag("http_addr", serveCmd.Flags().Lookup("http-addr"))
	_ = viper.BindPFlag("database_path", serveCmd.Flags().Lookup("database"))
	_ = viper.BindPFlag("engine", serveCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("engine_url", serveCmd.Flags().Lookup("engine-url"))
	_ = viper.BindPFlag("require_auth", serveCmd.Flags().Lookup("auth"))

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP()
		},
	}

	rootCmd.AddCommand(serveCmd, mcpCmd)

	config.SetDefaults()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles everything both transports share.
type runtime struct {
	cfg        *config.Config
	catalog    *catalog.Store
	auth       *auth.Authenticator
	registry   *registry.Registry
	dispatcher *tools.Dispatcher
	activity   *activity.Log
	latency    *metrics.LatencyTracker
	collectors *metrics.Collectors
	preloader  *preload.Preloader
}

func buildRuntime() (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	store, err := catalog.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	var eng engine.Engine
	switch cfg.Engine {
	case "remote":
		eng = engine.NewRemote(cfg.EngineURL)
	default:
		eng = engine.NewLocal()
	}

	reg := registry.New()
	act := activity.New(cfg.ActivitySize)
	lat := metrics.NewLatencyTracker(0.2)
	col := metrics.NewCollectors()

	d := &tools.Dispatcher{
		Registry:            reg,
		Engine:              eng,
		Activity:            act,
		Latency:             lat,
		Collectors:          col,
		FVADefaultReactions: cfg.FVADefaultReactions,
		EssentialThreshold:  cfg.EssentialThreshold,
	}

	return &runtime{
		cfg:        cfg,
		catalog:    store,
		auth:       auth.NewAuthenticator(store),
		registry:   reg,
		dispatcher: d,
		activity:   act,
		latency:    lat,
		collectors: col,
		preloader: &preload.Preloader{
			Registry: reg,
			Catalog:  store,
			Engine:   eng,
			Activity: act,
			Interval: time.Duration(cfg.PreloadIntervalSeconds) * time.Second,
		},
	}, nil
}

func runServe() error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.catalog.Close()

	ctx := context.Background()

	if rt.cfg.AdminPassword != "" {
		if err := rt.auth.EnsureUser(ctx, rt.cfg.AdminUser, rt.cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin user: %w", err)
		}
	}

	go rt.preloader.Run(ctx)

	mux := http.NewServeMux()

	api := &httpapi.Server{
		Dispatcher:  rt.dispatcher,
		Registry:    rt.registry,
		Catalog:     rt.catalog,
		Auth:        rt.auth,
		Activity:    rt.activity,
		Latency:     rt.latency,
		Collectors:  rt.collectors,
		RequireAuth: rt.cfg.RequireAuth,
		Version:     version,
	}
	api.Register(mux)

	ui, err := webui.NewHandler(rt.registry, rt.activity, rt.latency, version)
	if err != nil {
		return fmt.Errorf("ui init: %w", err)
	}
	ui.Register(mux)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	handler := httpx.CORS{AllowOrigin: rt.cfg.CORSAllowOrigin}.Wrap(mux)

	srv := &http.Server{
		Addr:              rt.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Long solves stream no intermediate data; leave WriteTimeout unset
		// so big optimizations are not cut off.
		IdleTimeout: 120 * time.Second,
	}

	slog.Info("HTTP listening", "addr", rt.cfg.HTTPAddr, "engine", rt.cfg.Engine)
	return srv.ListenAndServe()
}

func runMCP() error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.catalog.Close()

	go rt.preloader.Run(context.Background())

	// stdout belongs to the MCP transport; slog's default stderr output is
	// safe.
	slog.Info("MCP stdio serving", "engine", rt.cfg.Engine)
	return mcpserver.ServeStdio(mcpserver.New(rt.dispatcher, version))
}
