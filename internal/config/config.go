// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads the server configuration from all sources and returns the merged result
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	config := &Config{}

	// Populate server configuration
	config.Server.Address = v.GetString("SERVER_ADDR")
	if config.Server.ShutdownTimeout, err = duration(v, "SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	}

	// Populate metrics configuration
	config.Metrics.Address = v.GetString("METRICS_ADDR")

	// Populate TLS configuration
	config.TLS.Enabled = v.GetBool("TLS_ENABLED")
	config.TLS.CertPath = v.GetString("TLS_CERT_PATH")
	config.TLS.KeyPath = v.GetString("TLS_KEY_PATH")

	if config.Auth, err = loadAuth(v); err != nil {
		return nil, err
	}

	// Populate database configuration
	config.Database.Driver = strings.ToLower(v.GetString("DATABASE_DRIVER"))
	config.Database.URL = v.GetString("DATABASE_URL")
	config.Database.AutoMigrate = v.GetBool("DATABASE_AUTO_MIGRATE")

	config.CORS.AllowedOrigins = stringSlice(v, "CORS_ALLOWED_ORIGINS")

	// Populate observability configuration
	config.Observability.LogLevel = v.GetString("LOG_LEVEL")
	config.Observability.LogFormat = v.GetString("LOG_FORMAT")

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadClient loads only the settings needed to request tokens from the
// identity provider.
func LoadClient(configPath string) (*Auth, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	auth, err := loadAuth(v)
	if err != nil {
		return nil, err
	}
	if auth.Client.TokenURL == "" && auth.Domain != "" {
		auth.Client.TokenURL = "https://" + auth.Domain + "/oauth/token"
	}

	var errs []error
	if auth.Client.ID == "" {
		errs = append(errs, fmt.Errorf("AUTH_CLIENT_ID is required"))
	}
	if auth.Client.Secret == "" {
		errs = append(errs, fmt.Errorf("AUTH_CLIENT_SECRET is required"))
	}
	if auth.Client.TokenURL == "" {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_URL or AUTH_DOMAIN is required"))
	}
	if auth.Audience == "" {
		errs = append(errs, fmt.Errorf("AUTH_AUDIENCE is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &auth, nil
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Set default values
	Settings.PopulateViperDefaults(v)

	if err := Settings.BindEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	// Load from config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// It's okay if the config file doesn't exist, but other errors should be reported
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}
	return v, nil
}

func loadAuth(v *viper.Viper) (Auth, error) {
	var (
		auth Auth
		err  error
	)
	auth.Domain = strings.TrimSuffix(strings.TrimPrefix(v.GetString("AUTH_DOMAIN"), "https://"), "/")
	auth.Issuer = v.GetString("AUTH_ISSUER")
	if auth.Issuer == "" && auth.Domain != "" {
		// Tokens from a domain-configured authority carry the trailing slash.
		auth.Issuer = "https://" + auth.Domain + "/"
	}
	auth.Audience = v.GetString("AUTH_AUDIENCE")
	auth.JWKSURL = v.GetString("AUTH_JWKS_URL")
	auth.DiscoveryEnabled = v.GetBool("AUTH_DISCOVERY_ENABLED")
	auth.RolesEnabled = v.GetBool("AUTH_ROLES_ENABLED")

	if auth.JWKSFetchTimeout, err = duration(v, "AUTH_JWKS_FETCH_TIMEOUT"); err != nil {
		return auth, err
	}
	if auth.JWKSRefreshInterval, err = duration(v, "AUTH_JWKS_REFRESH_INTERVAL"); err != nil {
		return auth, err
	}
	if auth.Leeway, err = duration(v, "AUTH_LEEWAY"); err != nil {
		return auth, err
	}

	auth.Client.ID = v.GetString("AUTH_CLIENT_ID")
	auth.Client.Secret = v.GetString("AUTH_CLIENT_SECRET")
	auth.Client.TokenURL = v.GetString("AUTH_TOKEN_URL")
	return auth, nil
}

func duration(v *viper.Viper, name string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(name))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToLower(strings.ReplaceAll(name, "_", " ")), err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", strings.ToLower(strings.ReplaceAll(name, "_", " ")))
	}
	return d, nil
}

// stringSlice accepts both list values from a config file and comma
// separated values from the environment.
func stringSlice(v *viper.Viper, name string) []string {
	var out []string
	for _, item := range v.GetStringSlice(name) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validateConfig performs validation on the loaded configuration
func validateConfig(cfg *Config) error {
	var errs []error

	for _, s := range Settings {
		if s.Required && !isSet(cfg, s.Name) {
			errs = append(errs, fmt.Errorf("%s is required", s.Name))
		}
	}

	// Validate TLS configuration
	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			errs = append(errs, fmt.Errorf("TLS certificate path is required when TLS is enabled"))
		} else if _, err := os.Stat(cfg.TLS.CertPath); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("TLS certificate file not found: %s", cfg.TLS.CertPath))
		}
		if cfg.TLS.KeyPath == "" {
			errs = append(errs, fmt.Errorf("TLS key path is required when TLS is enabled"))
		} else if _, err := os.Stat(cfg.TLS.KeyPath); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("TLS key file not found: %s", cfg.TLS.KeyPath))
		}
	}

	errs = append(errs, validateAuthConfig(cfg.Auth)...)

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver))
	}

	return errors.Join(errs...)
}

// validateAuthConfig validates the trusted authority configuration
func validateAuthConfig(auth Auth) []error {
	var errs []error
	if auth.Issuer == "" {
		errs = append(errs, fmt.Errorf("AUTH_ISSUER or AUTH_DOMAIN is required"))
	}
	if auth.JWKSURL == "" && auth.Domain == "" && !auth.DiscoveryEnabled {
		errs = append(errs, fmt.Errorf("AUTH_JWKS_URL, AUTH_DOMAIN or AUTH_DISCOVERY_ENABLED is required"))
	}
	if auth.JWKSFetchTimeout == 0 {
		errs = append(errs, fmt.Errorf("AUTH_JWKS_FETCH_TIMEOUT must be positive"))
	}
	return errs
}

func isSet(cfg *Config, name string) bool {
	switch name {
	case "AUTH_AUDIENCE":
		return cfg.Auth.Audience != ""
	case "DATABASE_URL":
		return cfg.Database.URL != ""
	}
	return true
}
