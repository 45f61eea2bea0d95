// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Guard         GuardConfig        `mapstructure:"guard"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Admin         AdminConfig        `mapstructure:"admin"`
	Sheets        SheetsConfig       `mapstructure:"sheets"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	RateLimit     RateLimitConfig    `mapstructure:"rate_limit"`
	Uploads       UploadsConfig      `mapstructure:"uploads"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	BodyLimit       int `mapstructure:"body_limit"`       // bytes
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// StorageConfig locates the JSON file store and the uploads area.
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	UploadsDir string `mapstructure:"uploads_dir"`
	Timezone   string `mapstructure:"timezone"` // reporting timezone for statistics
}

// GuardConfig tunes the duplicate-submission guard.
type GuardConfig struct {
	Backend       string `mapstructure:"backend"`        // memory | redis
	Cooldown      int    `mapstructure:"cooldown"`       // milliseconds
	Retention     int    `mapstructure:"retention"`      // milliseconds
	SweepInterval int    `mapstructure:"sweep_interval"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AdminConfig holds the single admin account and JWT settings.
type AdminConfig struct {
	Email       string `mapstructure:"email"`
	Password    string `mapstructure:"password"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenExpiry int    `mapstructure:"token_expiry"` // hours
}

// SheetsConfig holds settings for the Google Sheets mirror.
type SheetsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	SheetName       string `mapstructure:"sheet_name"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// NotificationConfig holds settings for the admin email notification.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// RateLimitConfig tunes the coarse per-IP limit on /api.
type RateLimitConfig struct {
	Window      int `mapstructure:"window"` // milliseconds
	MaxRequests int `mapstructure:"max_requests"`
}

// UploadsConfig tunes the multipart upload endpoint.
type UploadsConfig struct {
	MaxFileSize  int64    `mapstructure:"max_file_size"` // bytes
	MaxFiles     int      `mapstructure:"max_files"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
