// internal/config/settings.go
package config

import "github.com/spf13/viper"

// SettingType represents the type of a setting
type SettingType string

const (
	// String type for string settings
	String SettingType = "string"
	// Bool type for boolean settings
	Bool SettingType = "bool"
	// Duration type for settings parsed with time.ParseDuration
	Duration SettingType = "duration"
	// StringSlice type for string slice settings
	StringSlice SettingType = "stringSlice"
)

// Setting defines a configuration setting
type Setting struct {
	// Name is the name of the setting
	Name string
	// Short is a short description of the setting
	Short string
	// Type is the type of the setting
	Type SettingType
	// Default is the default value of the setting
	Default interface{}
	// Env is the environment variable name for the setting
	Env string
	// Required indicates whether the setting is required
	Required bool
}

// SettingList is a list of settings
type SettingList []Setting

// PopulateViperDefaults sets default values for all settings in Viper
func (sl SettingList) PopulateViperDefaults(v *viper.Viper) {
	for _, s := range sl {
		v.SetDefault(s.Name, s.Default)
	}
}

// BindEnv binds every setting to its environment variable
func (sl SettingList) BindEnv(v *viper.Viper) error {
	for _, s := range sl {
		if s.Env == "" {
			continue
		}
		if err := v.BindEnv(s.Name, s.Env); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the setting with the given name
func (sl SettingList) Lookup(name string) (Setting, bool) {
	for _, s := range sl {
		if s.Name == name {
			return s, true
		}
	}
	return Setting{}, false
}

// Settings defines all application settings
var Settings = SettingList{
	// Server settings
	{
		Name:    "SERVER_ADDR",
		Short:   "Address on which the API server listens",
		Type:    String,
		Default: ":8080",
		Env:     "SERVER_ADDR",
	},
	{
		Name:    "METRICS_ADDR",
		Short:   "Address on which the metrics server listens",
		Type:    String,
		Default: ":9090",
		Env:     "METRICS_ADDR",
	},
	{
		Name:    "SHUTDOWN_TIMEOUT",
		Short:   "Maximum time to wait for graceful shutdown",
		Type:    Duration,
		Default: "30s",
		Env:     "SHUTDOWN_TIMEOUT",
	},

	// TLS settings
	{
		Name:    "TLS_ENABLED",
		Short:   "Enable TLS for the API server",
		Type:    Bool,
		Default: false,
		Env:     "TLS_ENABLED",
	},
	{
		Name:    "TLS_CERT_PATH",
		Short:   "Path to TLS certificate file",
		Type:    String,
		Default: "",
		Env:     "TLS_CERT_PATH",
	},
	{
		Name:    "TLS_KEY_PATH",
		Short:   "Path to TLS key file",
		Type:    String,
		Default: "",
		Env:     "TLS_KEY_PATH",
	},

	// Trusted token authority
	{
		Name:    "AUTH_DOMAIN",
		Short:   "Identity provider domain, used to derive issuer and JWKS URL",
		Type:    String,
		Default: "",
		Env:     "AUTH_DOMAIN",
	},
	{
		Name:    "AUTH_ISSUER",
		Short:   "Expected token issuer (overrides AUTH_DOMAIN)",
		Type:    String,
		Default: "",
		Env:     "AUTH_ISSUER",
	},
	{
		Name:     "AUTH_AUDIENCE",
		Short:    "Expected token audience",
		Type:     String,
		Default:  "",
		Env:      "AUTH_AUDIENCE",
		Required: true,
	},
	{
		Name:    "AUTH_JWKS_URL",
		Short:   "JWKS endpoint URL (overrides AUTH_DOMAIN and discovery)",
		Type:    String,
		Default: "",
		Env:     "AUTH_JWKS_URL",
	},
	{
		Name:    "AUTH_DISCOVERY_ENABLED",
		Short:   "Resolve the JWKS URL from the issuer's OpenID discovery document",
		Type:    Bool,
		Default: false,
		Env:     "AUTH_DISCOVERY_ENABLED",
	},
	{
		Name:    "AUTH_JWKS_FETCH_TIMEOUT",
		Short:   "Timeout for fetching signing keys",
		Type:    Duration,
		Default: "5s",
		Env:     "AUTH_JWKS_FETCH_TIMEOUT",
	},
	{
		Name:    "AUTH_JWKS_REFRESH_INTERVAL",
		Short:   "Minimum interval between background signing key refreshes",
		Type:    Duration,
		Default: "15m",
		Env:     "AUTH_JWKS_REFRESH_INTERVAL",
	},
	{
		Name:    "AUTH_LEEWAY",
		Short:   "Clock skew allowed when validating token expiry",
		Type:    Duration,
		Default: "0s",
		Env:     "AUTH_LEEWAY",
	},
	{
		Name:    "AUTH_ROLES_ENABLED",
		Short:   "Resolve permissions from the built-in role table (development only)",
		Type:    Bool,
		Default: false,
		Env:     "AUTH_ROLES_ENABLED",
	},
	{
		Name:    "AUTH_CLIENT_ID",
		Short:   "OAuth2 client ID used by castingtoken",
		Type:    String,
		Default: "",
		Env:     "AUTH_CLIENT_ID",
	},
	{
		Name:    "AUTH_CLIENT_SECRET",
		Short:   "OAuth2 client secret used by castingtoken",
		Type:    String,
		Default: "",
		Env:     "AUTH_CLIENT_SECRET",
	},
	{
		Name:    "AUTH_TOKEN_URL",
		Short:   "OAuth2 token endpoint (defaults to https://<AUTH_DOMAIN>/oauth/token)",
		Type:    String,
		Default: "",
		Env:     "AUTH_TOKEN_URL",
	},

	// Database
	{
		Name:    "DATABASE_DRIVER",
		Short:   "Database driver (postgres, sqlite)",
		Type:    String,
		Default: "postgres",
		Env:     "DATABASE_DRIVER",
	},
	{
		Name:     "DATABASE_URL",
		Short:    "Database DSN, or file path for sqlite",
		Type:     String,
		Default:  "",
		Env:      "DATABASE_URL",
		Required: true,
	},
	{
		Name:    "DATABASE_AUTO_MIGRATE",
		Short:   "Create or update the schema at startup",
		Type:    Bool,
		Default: true,
		Env:     "DATABASE_AUTO_MIGRATE",
	},

	// HTTP
	{
		Name:    "CORS_ALLOWED_ORIGINS",
		Short:   "Origins allowed by CORS",
		Type:    StringSlice,
		Default: []string{"*"},
		Env:     "CORS_ALLOWED_ORIGINS",
	},

	// Observability
	{
		Name:    "LOG_LEVEL",
		Short:   "Logging level",
		Type:    String,
		Default: "info",
		Env:     "LOG_LEVEL",
	},
	{
		Name:    "LOG_FORMAT",
		Short:   "Logging format (json, text, console)",
		Type:    String,
		Default: "console",
		Env:     "LOG_FORMAT",
	},
}
