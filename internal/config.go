package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

const maxLatency = 30 * time.Second

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Seed    SeedConfig        `yaml:"seed"`
	Mock    MockConfig        `yaml:"mock"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Seed.Validate(); err != nil {
		return err
	}
	if err := c.Mock.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" env:"FOLIO_LOG_LEVEL"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration. CORSOrigins lists the
// browser origins allowed to call the API; empty disables CORS headers.
type HTTPConfig struct {
	Port        int      `yaml:"port" env:"FOLIO_HTTP_PORT"`
	CORSOrigins []string `yaml:"cors_origins" env:"FOLIO_CORS_ORIGINS"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.CORSOrigins, validation.Each(validation.Required)),
	)
}

// StorageConfig selects where content lives. The memory driver keeps
// nothing across restarts; sqlite writes every change through.
type StorageConfig struct {
	Driver      string `yaml:"driver" env:"FOLIO_STORAGE_DRIVER"`
	SQLitePath  string `yaml:"sqlite_path" env:"FOLIO_SQLITE_PATH"`
	UploadsPath string `yaml:"uploads_path" env:"FOLIO_UPLOADS_PATH"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverMemory, DriverSQLite)),
		validation.Field(&c.SQLitePath, validation.When(c.Driver == DriverSQLite, validation.Required)),
		validation.Field(&c.UploadsPath, validation.Required),
	)
}

// SeedConfig points at the YAML data set loaded into an empty store. An
// empty path means the built-in mock data.
type SeedConfig struct {
	Path  string `yaml:"path" env:"FOLIO_SEED_PATH"`
	Watch bool   `yaml:"watch" env:"FOLIO_SEED_WATCH"`
}

// Validate validates the seed configuration.
func (c *SeedConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Watch, validation.Required.Error("is required when watch is enabled"))),
	)
}

// MockConfig holds the simulated backend behaviour.
type MockConfig struct {
	Latency time.Duration `yaml:"latency" env:"FOLIO_MOCK_LATENCY"`
}

// Validate validates the mock configuration.
func (c *MockConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Latency, validation.Min(time.Duration(0)), validation.Max(maxLatency)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" env:"FOLIO_AUTH_MODE"`
	Token string `yaml:"token" env:"FOLIO_AUTH_TOKEN"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver:      DriverMemory,
			SQLitePath:  "./folio.db",
			UploadsPath: "./uploads",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
