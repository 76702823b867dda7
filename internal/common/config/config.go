package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `toml:"port" yaml:"port"`
	Environment  string `toml:"env" yaml:"env"`
	ReadTimeout  int    `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `toml:"write_timeout" yaml:"write_timeout"`

	Editor Editor `toml:"editor" yaml:"editor"`
}

// Editor holds the session defaults and editor service settings.
type Editor struct {
	HandlerRadius    float64  `toml:"handler_radius" yaml:"handler_radius"`
	AreaTolerance    float64  `toml:"area_tolerance" yaml:"area_tolerance"`
	HitThickness     float64  `toml:"hit_thickness" yaml:"hit_thickness"`
	CanvasWidth      float64  `toml:"canvas_width" yaml:"canvas_width"`
	CanvasHeight     float64  `toml:"canvas_height" yaml:"canvas_height"`
	RulerCm          float64  `toml:"ruler_cm" yaml:"ruler_cm"`
	MaxCanvas        float64  `toml:"max_canvas" yaml:"max_canvas"`
	RollbackOnCancel bool     `toml:"rollback_on_cancel" yaml:"rollback_on_cancel"`
	DiagnosticsDB    string   `toml:"diagnostics_db" yaml:"diagnostics_db"`
	AllowOrigins     []string `toml:"allow_origins" yaml:"allow_origins"`
	LogLevel         string   `toml:"log_level" yaml:"log_level"`
	MaxUploadBytes   int      `toml:"max_upload_bytes" yaml:"max_upload_bytes"`
}

func Default() *Config {
	return &Config{
		Port:         "3000",
		Environment:  "development",
		ReadTimeout:  10,
		WriteTimeout: 10,
		Editor: Editor{
			HandlerRadius:  6,
			AreaTolerance:  0.01,
			HitThickness:   8,
			CanvasWidth:    800,
			CanvasHeight:   600,
			RulerCm:        5,
			MaxCanvas:      8192,
			AllowOrigins:   []string{"*"},
			LogLevel:       "info",
			MaxUploadBytes: 4 << 20,
		},
	}
}

// Load starts from the defaults, applies the file named by EDITOR_CONFIG if
// set, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("EDITOR_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFile merges a .toml, .yaml or .yml file into cfg. Keys missing from
// the file keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("config %s: unsupported format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENV", c.Environment)
	c.ReadTimeout = getEnvAsInt("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", c.WriteTimeout)

	e := &c.Editor
	e.HandlerRadius = getEnvAsFloat("EDITOR_HANDLER_RADIUS", e.HandlerRadius)
	e.AreaTolerance = getEnvAsFloat("EDITOR_AREA_TOLERANCE", e.AreaTolerance)
	e.HitThickness = getEnvAsFloat("EDITOR_HIT_THICKNESS", e.HitThickness)
	e.CanvasWidth = getEnvAsFloat("EDITOR_CANVAS_WIDTH", e.CanvasWidth)
	e.CanvasHeight = getEnvAsFloat("EDITOR_CANVAS_HEIGHT", e.CanvasHeight)
	e.RulerCm = getEnvAsFloat("EDITOR_RULER_CM", e.RulerCm)
	e.MaxCanvas = getEnvAsFloat("EDITOR_MAX_CANVAS", e.MaxCanvas)
	e.RollbackOnCancel = getEnvAsBool("EDITOR_ROLLBACK_ON_CANCEL", e.RollbackOnCancel)
	e.DiagnosticsDB = getEnv("EDITOR_DIAGNOSTICS_DB", e.DiagnosticsDB)
	e.LogLevel = getEnv("EDITOR_LOG_LEVEL", e.LogLevel)
	e.MaxUploadBytes = getEnvAsInt("EDITOR_MAX_UPLOAD_BYTES", e.MaxUploadBytes)

	if v := os.Getenv("EDITOR_ALLOW_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		e.AllowOrigins = origins
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
