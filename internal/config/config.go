package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"evalconsole/internal/model"
	"evalconsole/internal/ranking"
)

// DefaultPath is read when neither CONFIG_PATH nor --config is set
const DefaultPath = "config.yaml"

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// AppConfig holds the full service configuration
type AppConfig struct {
	ListenAddr string          `yaml:"listen_addr"`
	LogMode    string          `yaml:"log_mode"`
	Store      StoreConfig     `yaml:"store"`
	Cache      CacheConfig     `yaml:"cache"`
	Serving    ServingConfig   `yaml:"serving"`
	Stats      StatsConfig     `yaml:"stats"`
	Providers  ProvidersConfig `yaml:"providers"`
	Auth       AuthConfig      `yaml:"auth"`
	CORS       CORSConfig      `yaml:"cors"`
}

type StoreConfig struct {
	Driver   string `yaml:"driver"`
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`
}

type CacheConfig struct {
	// RedisAddr is host:port. Empty means in-process caches.
	RedisAddr string        `yaml:"redis_addr"`
	StatsTTL  time.Duration `yaml:"stats_ttl"`
}

type ServingConfig struct {
	DefaultPolicy      string `yaml:"default_policy"`
	ActiveModelVersion string `yaml:"active_model_version"`
	ArtifactsDir       string `yaml:"artifacts_dir"`
	RuleScoreExpr      string `yaml:"rule_score_expr"`
}

type StatsConfig struct {
	Timezone string `yaml:"timezone"`
}

type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	JWTSecret string `yaml:"jwt_secret"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the built-in configuration
func Default() *AppConfig {
	return &AppConfig{
		ListenAddr: ":8080",
		LogMode:    "dev",
		Store: StoreConfig{
			Driver:   StoreMongo,
			MongoURI: "mongodb://localhost:27017",
			MongoDB:  "evalconsole",
		},
		Cache: CacheConfig{
			StatsTTL: 5 * time.Second,
		},
		Serving: ServingConfig{
			DefaultPolicy: string(model.PolicyRule),
			ArtifactsDir:  ".",
		},
		Stats:     StatsConfig{Timezone: "UTC"},
		Providers: DefaultProviders(),
		Auth: AuthConfig{
			Username: "admin",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:5174"},
		},
	}
}

// Load layers defaults, the YAML file at path and environment overrides.
// A missing file is not an error. The result is not validated; callers apply
// flag overrides and then call Validate.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path == "" {
		path = getEnvOrDefault("CONFIG_PATH", DefaultPath)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		if !strings.Contains(port, ":") {
			port = ":" + port
		}
		c.ListenAddr = port
	}
	envOverride(&c.LogMode, "LOG_MODE")
	envOverride(&c.Store.Driver, "STORE_DRIVER")
	envOverride(&c.Store.MongoURI, "MONGO_URI")
	envOverride(&c.Store.MongoDB, "MONGO_DB")
	if uri := os.Getenv("REDIS_URI"); uri != "" {
		c.Cache.RedisAddr = strings.TrimPrefix(uri, "redis://")
	}
	envOverride(&c.Serving.DefaultPolicy, "SERVED_POLICY")
	envOverride(&c.Serving.ActiveModelVersion, "ACTIVE_MODEL_VERSION")
	envOverride(&c.Serving.ArtifactsDir, "ARTIFACTS_DIR")
	envOverride(&c.Serving.RuleScoreExpr, "RULE_SCORE_EXPR")
	envOverride(&c.Stats.Timezone, "STATS_TIMEZONE")
	envOverride(&c.Auth.Username, "ADMIN_USERNAME")
	envOverride(&c.Auth.Password, "ADMIN_PASSWORD")
	envOverride(&c.Auth.JWTSecret, "JWT_SECRET")
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTH_ENABLED: %w", err)
		}
		c.Auth.Enabled = b
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
	return c.Providers.applyEnv()
}

// Validate rejects configurations the service cannot start with
func (c *AppConfig) Validate() error {
	switch c.Store.Driver {
	case StoreMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDB == "" {
			return errors.New("store: mongo_uri and mongo_db are required for the mongo driver")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("store: unknown driver %q", c.Store.Driver)
	}

	if _, ok := model.ParsePolicyKind(c.Serving.DefaultPolicy); !ok {
		return fmt.Errorf("serving: default_policy must be rule or ltr, got %q", c.Serving.DefaultPolicy)
	}
	if c.Serving.RuleScoreExpr != "" {
		if _, err := ranking.CompileScoreExpr(c.Serving.RuleScoreExpr); err != nil {
			return fmt.Errorf("serving: rule_score_expr: %w", err)
		}
	}

	if _, err := c.Stats.Location(); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if c.Cache.StatsTTL < 0 {
		return errors.New("cache: stats_ttl must not be negative")
	}

	if err := c.Providers.Validate(); err != nil {
		return fmt.Errorf("providers: %w", err)
	}

	if c.Auth.Enabled && (c.Auth.Password == "" || c.Auth.JWTSecret == "") {
		return errors.New("auth: password and jwt_secret are required when auth is enabled")
	}
	return nil
}

// DefaultPolicyKind returns the validated default serving arm
func (c *AppConfig) DefaultPolicyKind() model.PolicyKind {
	kind, _ := model.ParsePolicyKind(c.Serving.DefaultPolicy)
	return kind
}

// Location loads the time zone used for the stats "today" boundary
func (s StatsConfig) Location() (*time.Location, error) {
	tz := s.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

func envOverride(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

func envOverrideInt64(field *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*field = n
	return nil
}

func envOverrideFloat(field *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*field = f
	return nil
}

// envOverrideSeconds reads a whole or fractional number of seconds
func envOverrideSeconds(field *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*field = time.Duration(f * float64(time.Second))
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
