package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	auth "github.com/goliatone/go-account-auth"
)

// EnvPrefix is prepended to every environment override, e.g. AUTHD_SIGNING_KEY
const EnvPrefix = "AUTHD"

// Config holds the application configuration
type Config struct {
	SigningKey       string        `mapstructure:"signing_key"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	Issuer           string        `mapstructure:"issuer"`
	Audience         []string      `mapstructure:"audience"`
	ContextKey       string        `mapstructure:"context_key"`
	TokenLookup      string        `mapstructure:"token_lookup"`
	AuthScheme       string        `mapstructure:"auth_scheme"`
	RejectedRouteKey string        `mapstructure:"rejected_route_key"`
	LoginPath        string        `mapstructure:"login_path"`
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
	CookieSecure     bool          `mapstructure:"cookie_secure"`
	Debug            bool          `mapstructure:"debug"`

	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// ServerConfig holds HTTP listener options
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the DSN and pool size
type DatabaseConfig struct {
	DSN            string `mapstructure:"dsn"`
	MaxConnections int    `mapstructure:"max_connections"`
	MigrateOnServe bool   `mapstructure:"migrate_on_serve"`
}

// SeedConfig describes the first administrator account
type SeedConfig struct {
	AdminName     string `mapstructure:"admin_name"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

var _ auth.Config = (*Config)(nil)

func setDefaults(v *viper.Viper) {
	// every key needs a default so AutomaticEnv applies on Unmarshal
	v.SetDefault("signing_key", "")
	v.SetDefault("token_ttl", auth.DefaultTokenTTL)
	v.SetDefault("issuer", "authd")
	v.SetDefault("audience", []string{"authd"})
	v.SetDefault("context_key", "session")
	v.SetDefault("token_lookup", "header:Authorization,cookie:session")
	v.SetDefault("auth_scheme", "Bearer")
	v.SetDefault("rejected_route_key", "rejected_route")
	v.SetDefault("login_path", "/login")
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("cookie_secure", true)
	v.SetDefault("debug", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.dsn", "file:authd.db?cache=shared")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.migrate_on_serve", false)

	v.SetDefault("seed.admin_name", "Administrator")
	v.SetDefault("seed.admin_email", "")
	v.SetDefault("seed.admin_password", "")
}

// New returns a viper instance with defaults and AUTHD_ environment
// overrides bound.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file at path, applies environment
// overrides and decodes the result.
func Load(path string) (*Config, error) {
	v := New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes an already prepared viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot run without
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SigningKey) == "" {
		return fmt.Errorf("signing_key is required (env: %s_SIGNING_KEY)", EnvPrefix)
	}
	if len(c.SigningKey) < 32 {
		return fmt.Errorf("signing_key must be at least 32 bytes")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}
	return nil
}

func (c *Config) GetSigningKey() string       { return c.SigningKey }
func (c *Config) GetContextKey() string       { return c.ContextKey }
func (c *Config) GetTokenTTL() time.Duration  { return c.TokenTTL }
func (c *Config) GetTokenLookup() string      { return c.TokenLookup }
func (c *Config) GetAuthScheme() string       { return c.AuthScheme }
func (c *Config) GetIssuer() string           { return c.Issuer }
func (c *Config) GetAudience() []string       { return c.Audience }
func (c *Config) GetRejectedRouteKey() string { return c.RejectedRouteKey }
func (c *Config) GetLoginPath() string        { return c.LoginPath }
func (c *Config) GetBcryptCost() int          { return c.BcryptCost }
func (c *Config) GetCookieSecure() bool       { return c.CookieSecure }
