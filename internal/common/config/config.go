package config

import (
	"os"
	"regexp"
	"time"

	"github.com/perchlabs/boothboard/pkg/helper"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PlaceholderSecret is the session secret shipped in the example
// configuration. Deployments must replace it; the server refuses to start
// in release mode while it is still set.
const PlaceholderSecret = "change-me-boothboard-secret"

type (
	// BoothboardConfig is the top-level service configuration.
	BoothboardConfig struct {
		Server  ServerConfig  `yaml:"server"`
		JWT     JWTConfig     `yaml:"jwt"`
		Tables  TablesConfig  `yaml:"tables"`
		Sheets  SheetsConfig  `yaml:"sheets"`
		Logger  LoggerConfig  `yaml:"logger"`
		Metrics MetricsConfig `yaml:"metrics"`
	}

	// ServerConfig holds the HTTP listener settings.
	ServerConfig struct {
		Port            int           `yaml:"port"`
		RefreshInterval time.Duration `yaml:"refresh_interval"` // dashboard auto-refresh period
	}

	// JWTConfig holds the session token settings.
	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	// TablesConfig points at the operator-editable CSV tables and controls
	// how often they are re-read from disk.
	TablesConfig struct {
		LoginCSV       string        `yaml:"login_csv"`
		ClientsCSV     string        `yaml:"clients_csv"`
		ReloadInterval time.Duration `yaml:"reload_interval"`
	}

	// SheetsConfig selects and tunes the worksheet data source.
	SheetsConfig struct {
		Type          string        `yaml:"type"`     // xlsx, http
		Workbook      string        `yaml:"workbook"` // path to the xlsx workbook
		BaseURL       string        `yaml:"base_url"` // base URL for the http source
		Timeout       time.Duration `yaml:"timeout"`
		RetryAttempts int           `yaml:"retry_attempts"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress backup files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
		TimeZone   string `yaml:"time_zone"`   // time zone for log timestamps, e.g., "UTC", default is local
		TimeFormat string `yaml:"time_format"` // time format for log timestamps, default is "2006-01-02 15:04:05"
	}

	// MetricsConfig represents the Prometheus metrics configuration.
	MetricsConfig struct {
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}
)

type Type interface {
	BoothboardConfig
}

// LoadConfig loads configuration from a YAML file with environment variable support
func LoadConfig[T Type](filename string) (*T, string, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfgPath := helper.GetCfgPath(filename)
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, cfgPath, err
	}

	// Resolve environment variables
	data = resolveEnv(data)
	var cfg T
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cfgPath, err
	}

	if bbCfg, ok := any(&cfg).(*BoothboardConfig); ok {
		bbCfg.setDefaults()
	}

	return &cfg, cfgPath, nil
}

// setDefaults fills in defaults for values the YAML file left unset.
func (c *BoothboardConfig) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5080
	}
	if c.Server.RefreshInterval <= 0 {
		c.Server.RefreshInterval = 60 * time.Second
	}
	if c.JWT.Duration <= 0 {
		c.JWT.Duration = 24 * time.Hour
	}
	if c.Tables.LoginCSV == "" {
		c.Tables.LoginCSV = "login.csv"
	}
	if c.Tables.ClientsCSV == "" {
		c.Tables.ClientsCSV = "clients.csv"
	}
	if c.Tables.ReloadInterval <= 0 {
		c.Tables.ReloadInterval = 5 * time.Minute
	}
	if c.Sheets.Type == "" {
		c.Sheets.Type = "xlsx"
	}
	if c.Sheets.Timeout <= 0 {
		c.Sheets.Timeout = 10 * time.Second
	}
	if c.Sheets.RetryAttempts <= 0 {
		c.Sheets.RetryAttempts = 3
	}
	if c.Sheets.CacheTTL <= 0 {
		c.Sheets.CacheTTL = 120 * time.Second
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "boothboard"
	}
}

// HasPlaceholderSecret reports whether the session secret was left at the
// documented example value.
func (c *BoothboardConfig) HasPlaceholderSecret() bool {
	return c.JWT.SecretKey == "" || c.JWT.SecretKey == PlaceholderSecret
}

// resolveEnv replaces environment variable placeholders in YAML content
func resolveEnv(content []byte) []byte {
	regex := regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

	return regex.ReplaceAllFunc(content, func(match []byte) []byte {
		matches := regex.FindSubmatch(match)
		envKey := string(matches[1])
		var defaultValue string

		if len(matches) > 2 {
			defaultValue = string(matches[2])
		}

		if value, exists := os.LookupEnv(envKey); exists {
			return []byte(value)
		}
		return []byte(defaultValue)
	})
}
