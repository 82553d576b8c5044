package config

import (
	"fmt"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

const (
	DefaultShowsDir        = "content/shows"
	DefaultServerPort      = 8288
	DefaultDatabasePort    = 5432
	DefaultUpvoteRateLimit = 30
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseSSLMode      string `mapstructure:"DB_SSLMODE"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`
	ShowsDir             string `mapstructure:"SHOWS_DIR"`
	UpvoteRateLimit      int    `mapstructure:"UPVOTE_RATE_LIMIT"`
}

// ConfigurationError reports store settings that are absent or unusable.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: %s", e.Key, e.Message)
}

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSLMODE",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT",
	"CORS_ALLOW_ORIGINS", "SHOWS_DIR", "UPVOTE_RATE_LIMIT",
}

var placeholders = []string{"<user>", "<pass>", "<password>", "<host>", "<cluster>", "<db>"}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("SERVER_PORT", DefaultServerPort)
	v.SetDefault("DB_PORT", DefaultDatabasePort)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("SHOWS_DIR", DefaultShowsDir)
	v.SetDefault("UPVOTE_RATE_LIMIT", DefaultUpvoteRateLimit)

	for _, env := range envVars {
		if err := v.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	if v.IsSet("DB_HOST") && v.GetString("DB_HOST") != "" {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		v.SetConfigFile(".env.local")
		if err := v.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	config.normalize()

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"dbHost", config.DatabaseHost,
		"dbName", config.DatabaseName,
		"cacheEnabled", config.CacheEnabled(),
	)

	return config, nil
}

func (c *Config) normalize() {
	c.DatabaseHost = stripWrappingQuotes(c.DatabaseHost)
	c.DatabaseName = stripWrappingQuotes(c.DatabaseName)
	c.DatabaseUser = stripWrappingQuotes(c.DatabaseUser)
	c.DatabasePassword = stripWrappingQuotes(c.DatabasePassword)
	c.DatabaseSSLMode = stripWrappingQuotes(c.DatabaseSSLMode)
	c.DatabaseCacheAddress = stripWrappingQuotes(c.DatabaseCacheAddress)
	c.ShowsDir = stripWrappingQuotes(c.ShowsDir)

	if c.ShowsDir == "" {
		c.ShowsDir = DefaultShowsDir
	}
	if c.DatabaseSSLMode == "" {
		c.DatabaseSSLMode = "disable"
	}
	if c.UpvoteRateLimit <= 0 {
		c.UpvoteRateLimit = DefaultUpvoteRateLimit
	}
}

// ValidateStore checks the connection settings needed to reach the show store.
func (c Config) ValidateStore() error {
	required := []struct {
		key   string
		value string
	}{
		{"DB_HOST", c.DatabaseHost},
		{"DB_NAME", c.DatabaseName},
		{"DB_USER", c.DatabaseUser},
	}

	for _, r := range required {
		if r.value == "" {
			return &ConfigurationError{
				Key:     r.key,
				Message: fmt.Sprintf("set %s in the environment, .env or .env.local", r.key),
			}
		}
		if looksLikePlaceholder(r.value) {
			return &ConfigurationError{
				Key:     r.key,
				Message: fmt.Sprintf("replace the placeholder value of %s with a real setting", r.key),
			}
		}
	}

	if looksLikePlaceholder(c.DatabasePassword) {
		return &ConfigurationError{
			Key:     "DB_PASSWORD",
			Message: "replace the placeholder value of DB_PASSWORD with a real setting",
		}
	}

	if c.DatabasePort <= 0 || c.DatabasePort > 65535 {
		return &ConfigurationError{
			Key:     "DB_PORT",
			Message: fmt.Sprintf("invalid port %d", c.DatabasePort),
		}
	}

	return nil
}

// ValidateServer checks the settings that only the HTTP API needs.
func (c Config) ValidateServer() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return &ConfigurationError{
			Key:     "SERVER_PORT",
			Message: fmt.Sprintf("invalid port %d", c.ServerPort),
		}
	}
	return nil
}

func (c Config) CacheEnabled() bool {
	return c.DatabaseCacheAddress != "" && c.DatabaseCachePort > 0
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		dsnValue(c.DatabaseHost),
		c.DatabasePort,
		dsnValue(c.DatabaseUser),
		dsnValue(c.DatabasePassword),
		dsnValue(c.DatabaseName),
		dsnValue(c.DatabaseSSLMode),
	)
}

// dsnValue quotes a keyword/value connection string value when it is empty or
// holds whitespace, a quote or a backslash.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\") {
		return v
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + escaped + "'"
}

func stripWrappingQuotes(v string) string {
	s := strings.TrimSpace(v)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

func looksLikePlaceholder(v string) bool {
	for _, p := range placeholders {
		if strings.Contains(v, p) {
			return true
		}
	}
	return false
}
