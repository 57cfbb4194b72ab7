package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"http_server"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Security  SecurityConfig  `mapstructure:"security"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// SheetsConfig holds the service-account credential and the two spreadsheet
// IDs. Every durable entity in the system lives in one of these spreadsheets.
type SheetsConfig struct {
	ServiceAccountEmail string `mapstructure:"service_account_email"`
	PrivateKey          string `mapstructure:"private_key"`
	TimeTrackingID      string `mapstructure:"time_tracking_id"`
	InventoryID         string `mapstructure:"inventory_id"`
}

type SecurityConfig struct {
	// SessionIdleTimeout defaults to 2 minutes, matching the deployed system.
	// That value is aggressive for an internal tool; it is configurable here
	// rather than hard-coded so operators can lengthen it.
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
	BCryptCost         int           `mapstructure:"bcrypt_cost"`
	// DedupeWindow bounds the duplicate-submission guard. Best-effort and
	// process-local only.
	DedupeWindow time.Duration `mapstructure:"dedupe_window"`
}

// DirectoryConfig is the static employee directory and permission tables.
// Injected so tests can swap in alternate role tables.
type DirectoryConfig struct {
	Employees []EmployeeConfig `mapstructure:"employees"`
	// Permissions maps resource -> action -> allowed roles.
	Permissions map[string]map[string][]string `mapstructure:"permissions"`
}

type EmployeeConfig struct {
	ID           string   `mapstructure:"id"`
	Name         string   `mapstructure:"name"`
	PasswordHash string   `mapstructure:"password_hash"`
	Roles        []string `mapstructure:"roles"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DefaultSessionIdleTimeout = 2 * time.Minute
	DefaultDedupeWindow       = 5 * time.Second
)

// DefaultDirectory reproduces the deployed directory: five employees and the
// timeTracking/inventory permission tables.
func DefaultDirectory() DirectoryConfig {
	return DirectoryConfig{
		Employees: []EmployeeConfig{
			{ID: "MA001", Name: "Max Mustermann", PasswordHash: "$2a$10$kOn8HDcmTk3iV58IBicqmu.4D6koAnZsIWanCmvVCa.g5L50WJqyS", Roles: []string{"user", "inventory_manager"}},
			{ID: "MA002", Name: "Anna Schmidt", PasswordHash: "$2a$10$l3KAfnTZkrL./m8xCLjeQ.GYb02EhIDXsDrVbUeCaqXCqv1aMJAUS", Roles: []string{"user"}},
			{ID: "MA003", Name: "Lisa Meyer", PasswordHash: "$2a$10$Mmfo/ciaqQF6xnx2BABCjuBeFnZXEDYgzZBnB6G8T3BBPUse93s1a", Roles: []string{"admin"}},
			{ID: "MA004", Name: "Josef Toledo", PasswordHash: "$2a$10$0wF6cXbQGlbeqzA101HEC.JmAb1vPlW2KmTOwE.mgTFD0uKx2.hwq", Roles: []string{"admin"}},
			{ID: "MA005", Name: "Doktor Cheerio", PasswordHash: "$2a$10$ZAQ9OGdMeUElGlBpwjOmy./HUZUsYpAqeXJMlvF6feICGthSHJYD2", Roles: []string{"admin"}},
		},
		Permissions: map[string]map[string][]string{
			"timeTracking": {
				"view": {"admin", "user"},
				"edit": {"admin", "user"},
			},
			"inventory": {
				"view":   {"admin", "inventory-viewer", "inventory_manager"},
				"edit":   {"admin", "inventory_manager"},
				"delete": {"admin"},
			},
		},
	}
}

// ApplyDefaults fills unset values so a minimal config file still yields a
// runnable service.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Security.SessionIdleTimeout == 0 {
		c.Security.SessionIdleTimeout = DefaultSessionIdleTimeout
	}
	if c.Security.DedupeWindow == 0 {
		c.Security.DedupeWindow = DefaultDedupeWindow
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 10
	}
	if len(c.Directory.Employees) == 0 && len(c.Directory.Permissions) == 0 {
		c.Directory = DefaultDirectory()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// LoadConfigFromEnv builds the config purely from environment variables
// (container deployments). The credential variable names match the original
// deployment environment.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 3000),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Sheets: SheetsConfig{
			ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
			PrivateKey:          os.Getenv("GOOGLE_PRIVATE_KEY"),
			TimeTrackingID:      os.Getenv("TIME_TRACKING_SHEET_ID"),
			InventoryID:         os.Getenv("INVENTORY_SHEET_ID"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
	cfg.ApplyDefaults()
	return cfg
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

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Sheets.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("sheets config: %v", err))
	}

	if err := c.Directory.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("directory config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Validate enforces the startup-fatal contract: no sheet credentials, no
// service.
func (c *SheetsConfig) Validate() error {
	if c.ServiceAccountEmail == "" {
		return errors.New("service_account_email is required")
	}
	if c.PrivateKey == "" {
		return errors.New("private_key is required")
	}
	if c.TimeTrackingID == "" {
		return errors.New("time_tracking_id is required")
	}
	if c.InventoryID == "" {
		return errors.New("inventory_id is required")
	}
	return nil
}

// NormalizedPrivateKey unescapes the "\n" sequences that env-var transport
// leaves in the PEM material.
func (c *SheetsConfig) NormalizedPrivateKey() []byte {
	return []byte(strings.ReplaceAll(c.PrivateKey, `\n`, "\n"))
}

func (c *DirectoryConfig) Validate() error {
	seen := make(map[string]bool, len(c.Employees))
	for _, e := range c.Employees {
		if e.ID == "" {
			return errors.New("employee with empty id")
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate employee id %s", e.ID)
		}
		seen[e.ID] = true
		if e.PasswordHash == "" {
			return fmt.Errorf("employee %s has no password hash", e.ID)
		}
	}
	return nil
}
