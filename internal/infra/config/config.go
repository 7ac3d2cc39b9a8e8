package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/spounge-ai/ghost-mcp/internal/constants"
	"github.com/spounge-ai/ghost-mcp/internal/domain"
	customvalidator "github.com/spounge-ai/ghost-mcp/pkg/validator"
)

const (
	defaultEnvFile = ".env"
	secretPrefix   = "ssm:"
)

type Config struct {
	Ghost          GhostConfig   `mapstructure:"ghost"   validate:"required"`
	Logging        LoggingConfig `mapstructure:"logging"`
	AWS            AWSConfig     `mapstructure:"aws"`
	ServiceVersion string
}

// LoadOptions selects optional sources. Empty values fall back to defaults:
// ./ghost-mcp.yaml (or ./configs/ghost-mcp.yaml) and ./.env, both optional.
type LoadOptions struct {
	ConfigPath string
	EnvFile    string
}

// Load reads configuration with precedence env > .env file > config file > defaults.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	vip := viper.New()
	if opts.ConfigPath != "" {
		vip.SetConfigFile(opts.ConfigPath)
	} else {
		vip.SetConfigName(constants.ServiceName)
		vip.AddConfigPath("./configs")
		vip.AddConfigPath(".")
	}

	vip.SetConfigType("yaml")
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(vip)

	for key, env := range map[string]string{
		"logging.level":      "LOG_LEVEL",
		"logging.structured": "LOG_STRUCTURED",
		"logging.request_id": "LOG_REQUEST_ID",
	} {
		if err := vip.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ServiceVersion = constants.ServiceVersion
	return &cfg, nil
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("ghost.url", "http://localhost:2368")
	vip.SetDefault("ghost.content_api_key", "")
	vip.SetDefault("ghost.admin_api_key", "")
	vip.SetDefault("ghost.version", "v5.0")
	vip.SetDefault("ghost.mode", string(domain.ModeAuto))
	vip.SetDefault("ghost.timeout", 30)
	vip.SetDefault("ghost.max_retries", 3)
	vip.SetDefault("ghost.retry_backoff_factor", 2.0)
	vip.SetDefault("ghost.rate_limit", 0)
	vip.SetDefault("ghost.rate_burst", 5)
	vip.SetDefault("ghost.breaker_failures", 0)
	vip.SetDefault("ghost.breaker_reset", 30)
	vip.SetDefault("ghost.cache_ttl", 0)

	vip.SetDefault("logging.level", "info")
	vip.SetDefault("logging.structured", true)
	vip.SetDefault("logging.request_id", true)

	vip.SetDefault("aws.region", "")
}

func (c *Config) normalize() {
	c.Ghost.Mode = domain.Mode(strings.ToLower(strings.TrimSpace(string(c.Ghost.Mode))))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Ghost.ContentAPIKey = strings.TrimSpace(c.Ghost.ContentAPIKey)
	c.Ghost.AdminAPIKey = strings.TrimSpace(c.Ghost.AdminAPIKey)
}

// Validate checks structural constraints. API key formats are not enforced here.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := customvalidator.RegisterCustomValidators(validate); err != nil {
		return fmt.Errorf("failed to register custom validators: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Warnings lists advisory problems worth logging at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	g := c.Ghost
	if g.ContentAPIKey == "" && g.AdminAPIKey == "" {
		warnings = append(warnings, "neither GHOST_CONTENT_API_KEY nor GHOST_ADMIN_API_KEY is set; only the connection check will be available")
	}
	if g.ContentAPIKey != "" && !isSecretRef(g.ContentAPIKey) && !customvalidator.IsContentAPIKey(g.ContentAPIKey) {
		warnings = append(warnings, "GHOST_CONTENT_API_KEY does not look like a 26 character hex key")
	}
	if g.AdminAPIKey != "" && !isSecretRef(g.AdminAPIKey) && !customvalidator.IsAdminAPIKey(g.AdminAPIKey) {
		warnings = append(warnings, "GHOST_ADMIN_API_KEY does not match '<24 hex id>:<64 hex secret>'")
	}
	if g.Mode == domain.ModeReadOnly && g.AdminAPIKey != "" {
		warnings = append(warnings, "GHOST_ADMIN_API_KEY is set but GHOST_MODE=readonly; admin tools stay disabled")
	}
	return warnings
}

// SecretStore resolves named secrets.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// HasSecretRefs reports whether any API key is an "ssm:<name>" reference.
func (c *Config) HasSecretRefs() bool {
	return isSecretRef(c.Ghost.ContentAPIKey) || isSecretRef(c.Ghost.AdminAPIKey)
}

// ResolveSecrets replaces "ssm:<name>" API key references with their stored values.
func (c *Config) ResolveSecrets(ctx context.Context, store SecretStore) error {
	for _, field := range []*string{&c.Ghost.ContentAPIKey, &c.Ghost.AdminAPIKey} {
		if !isSecretRef(*field) {
			continue
		}
		name := strings.TrimPrefix(*field, secretPrefix)
		value, err := store.GetSecret(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to resolve secret %q: %w", name, err)
		}
		*field = strings.TrimSpace(value)
	}
	return nil
}

func isSecretRef(v string) bool {
	return strings.HasPrefix(v, secretPrefix)
}

// loadDotEnv exports variables from an env file without overriding the process environment.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file: %w", err)
	}

	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}
	return nil
}
