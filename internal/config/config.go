package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr     string
	DatabasePath string

	// Engine selects the compute backend: "local" for the in-process
	// reference evaluator, "remote" for an engined/COBRApy sidecar.
	Engine    string
	EngineURL string

	FVADefaultReactions int
	EssentialThreshold  float64

	RequireAuth   bool
	AdminUser     string
	AdminPassword string

	PreloadIntervalSeconds int
	ActivitySize           int
	CORSAllowOrigin        string
}

// SetDefaults registers every known key so env vars and config files can
// override them. Call once before Load.
func SetDefaults() {
	viper.SetDefault("http_addr", ":8080")
	viper.SetDefault("database_path", "fluxgate.db")
	viper.SetDefault("engine", "local")
	viper.SetDefault("engine_url", "http://localhost:9090")
	viper.SetDefault("fva_default_reactions", 10)
	viper.SetDefault("essential_threshold", 0.01)
	viper.SetDefault("require_auth", false)
	viper.SetDefault("admin_user", "admin")
	viper.SetDefault("admin_password", "")
	viper.SetDefault("preload_interval_seconds", 0)
	viper.SetDefault("activity_size", 300)
	viper.SetDefault("cors_allow_origin", "*")

	viper.SetEnvPrefix("FLUXGATE")
	viper.AutomaticEnv()
}

// Load reads an optional config file and materializes the settings.
func Load(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		viper.SetConfigName("fluxgate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		// Missing default config file is fine; env and defaults apply.
		_ = viper.ReadInConfig()
	}

	cfg := &Config{
		HTTPAddr:               viper.GetString("http_addr"),
		DatabasePath:           viper.GetString("database_path"),
		Engine:                 viper.GetString("engine"),
		EngineURL:              viper.GetString("engine_url"),
		FVADefaultReactions:    viper.GetInt("fva_default_reactions"),
		EssentialThreshold:     viper.GetFloat64("essential_threshold"),
		RequireAuth:            viper.GetBool("require_auth"),
		AdminUser:              viper.GetString("admin_user"),
		AdminPassword:          viper.GetString("admin_password"),
		PreloadIntervalSeconds: viper.GetInt("preload_interval_seconds"),
		ActivitySize:           viper.GetInt("activity_size"),
		CORSAllowOrigin:        viper.GetString("cors_allow_origin"),
	}

	switch cfg.Engine {
	case "local", "remote":
	default:
		return nil, fmt.Errorf("engine must be 'local' or 'remote', got %q", cfg.Engine)
	}
	if cfg.RequireAuth && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("require_auth needs admin_password for key management")
	}
	return cfg, nil
}
