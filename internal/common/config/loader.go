// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like ADMIN_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when not present
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries a handful of locations so the server and tests can both
// find the .env regardless of working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig falls back to well-known environment variables for
// secrets that are usually not committed to the yaml files.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Admin.Email == "" {
		if val := os.Getenv("ADMIN_EMAIL"); val != "" {
			cfg.Admin.Email = val
		}
	}
	if cfg.Admin.Password == "" {
		if val := os.Getenv("ADMIN_PASSWORD"); val != "" {
			cfg.Admin.Password = val
		}
	}
	if cfg.Admin.JWTSecret == "" {
		if val := os.Getenv("JWT_SECRET"); val != "" {
			cfg.Admin.JWTSecret = val
		}
	}

	if cfg.Sheets.SpreadsheetID == "" {
		if val := os.Getenv("GOOGLE_SPREADSHEET_ID"); val != "" {
			cfg.Sheets.SpreadsheetID = val
		}
	}
	if cfg.Sheets.CredentialsFile == "" {
		if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); val != "" {
			cfg.Sheets.CredentialsFile = val
		}
	}

	if cfg.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Redis.Address = val
		}
	}
	if cfg.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Redis.Password = val
		}
	}

	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = 10 * 1024 * 1024
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.Storage.UploadsDir == "" {
		cfg.Storage.UploadsDir = "./uploads"
	}
	if cfg.Storage.Timezone == "" {
		cfg.Storage.Timezone = "Europe/Istanbul"
	}

	if cfg.Guard.Backend == "" {
		cfg.Guard.Backend = "memory"
	}
	if cfg.Guard.Cooldown == 0 {
		cfg.Guard.Cooldown = 120000
	}
	if cfg.Guard.Retention == 0 {
		cfg.Guard.Retention = 300000
	}
	if cfg.Guard.SweepInterval == 0 {
		cfg.Guard.SweepInterval = 60000
	}

	if cfg.Admin.TokenExpiry == 0 {
		cfg.Admin.TokenExpiry = 168 // 7 days
	}

	if cfg.Sheets.SheetName == "" {
		cfg.Sheets.SheetName = "Başvurular"
	}

	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = 900000 // 15 minutes
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 100
	}

	if cfg.Uploads.MaxFileSize == 0 {
		cfg.Uploads.MaxFileSize = 5 * 1024 * 1024
	}
	if cfg.Uploads.MaxFiles == 0 {
		cfg.Uploads.MaxFiles = 5
	}
	if len(cfg.Uploads.AllowedTypes) == 0 {
		cfg.Uploads.AllowedTypes = []string{"jpg", "jpeg", "png", "pdf", "doc", "docx"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Admin.Password == "" {
		return fmt.Errorf("admin.password is required, set the ADMIN_PASSWORD environment variable")
	}
	if cfg.Admin.JWTSecret == "" || cfg.Admin.JWTSecret == "default_secret" {
		return fmt.Errorf("admin.jwt_secret is missing or insecure, set the JWT_SECRET environment variable")
	}

	if cfg.Guard.Backend != "memory" && cfg.Guard.Backend != "redis" {
		return fmt.Errorf("guard.backend must be memory or redis, got %q", cfg.Guard.Backend)
	}
	if cfg.Guard.Backend == "redis" && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when guard.backend is redis")
	}

	if cfg.Sheets.Enabled && cfg.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets.spreadsheet_id is required when sheets sync is enabled")
	}

	if cfg.Notifications.Email.Enabled {
		if cfg.Notifications.Email.FromEmail == "" || cfg.Notifications.Email.ToEmail == "" {
			return fmt.Errorf("notifications.email.from_email and to_email are required when email is enabled")
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
