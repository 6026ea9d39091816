package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the gateway reads from the environment.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	EnableDB    bool
	DatabaseURL string

	PredictorURL     string
	PredictPath      string
	ReportPath       string
	ReportFilename   string
	PredictorTimeout time.Duration

	BMIBounds      string
	DiabeticMinAge int
	NotifyDuration time.Duration
	SessionIdle    time.Duration
	ThemeFile      string
	CORSOrigins    []string
}

var defaults = map[string]any{
	"port":              "8080",
	"gin_mode":          "release",
	"log_level":         "info",
	"enable_db":         false,
	"database_url":      "",
	"predictor_url":     "http://localhost:5000",
	"predict_path":      "/api/predict",
	"report_path":       "/report",
	"report_filename":   "Rapport_Analyse_Sante.pdf",
	"predictor_timeout": "0s",
	"bmi_bounds":        "strict",
	"diabetic_min_age":  50,
	"notify_duration":   "5s",
	"session_idle_ttl":  "30m",
	"theme_file":        "",
	"cors_origins":      "*",
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	cfg := &Config{
		Port:             v.GetString("port"),
		GinMode:          v.GetString("gin_mode"),
		LogLevel:         v.GetString("log_level"),
		EnableDB:         v.GetBool("enable_db"),
		DatabaseURL:      v.GetString("database_url"),
		PredictorURL:     strings.TrimRight(v.GetString("predictor_url"), "/"),
		PredictPath:      v.GetString("predict_path"),
		ReportPath:       v.GetString("report_path"),
		ReportFilename:   v.GetString("report_filename"),
		PredictorTimeout: v.GetDuration("predictor_timeout"),
		BMIBounds:        strings.ToLower(strings.TrimSpace(v.GetString("bmi_bounds"))),
		DiabeticMinAge:   v.GetInt("diabetic_min_age"),
		NotifyDuration:   v.GetDuration("notify_duration"),
		SessionIdle:      v.GetDuration("session_idle_ttl"),
		ThemeFile:        v.GetString("theme_file"),
		CORSOrigins:      splitList(v.GetString("cors_origins")),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}
	if cfg.PredictorURL == "" {
		return fmt.Errorf("PREDICTOR_URL must not be empty")
	}
	switch cfg.BMIBounds {
	case "strict", "wide":
	default:
		return fmt.Errorf("BMI_BOUNDS must be strict or wide, got %q", cfg.BMIBounds)
	}
	if cfg.DiabeticMinAge < 0 {
		return fmt.Errorf("DIABETIC_MIN_AGE must be >= 0, got %d", cfg.DiabeticMinAge)
	}
	if cfg.SessionIdle <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be > 0")
	}
	if cfg.PredictorTimeout < 0 {
		return fmt.Errorf("PREDICTOR_TIMEOUT must be >= 0")
	}
	if strings.TrimSpace(cfg.ReportFilename) == "" {
		cfg.ReportFilename = "Rapport_Analyse_Sante.pdf"
	}
	return nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		out = append(out, "*")
	}
	return out
}
