// Package config loads the bcon configuration.
//
// Sources, later ones overriding earlier ones:
//  1. built-in defaults
//  2. the config file (bcon.yaml or bcon.json, YAML parser for both)
//  3. legacy environment names (MONGO_URL, JWT_SECRET, ...)
//  4. BCON_* environment variables
//  5. command-line flags, passed to Load as a map of config keys
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/markb/bcon/internal/store"
)

// Email providers.
const (
	ProviderNone   = "none"
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
)

// DefaultFiles are tried in order when no config path is given.
var DefaultFiles = []string{"bcon.yaml", "bcon.yml", "bcon.json"}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	CORSOrigins     string        `koanf:"cors_origins"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Origins splits CORSOrigins on commas.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// EmbeddedConfig runs a local PostgreSQL for the postgres driver.
type EmbeddedConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Port     int    `koanf:"port"`
	DataDir  string `koanf:"data_dir"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	Version  string `koanf:"version"`
}

type StoreConfig struct {
	// Driver is memory, postgres or mongo. When empty it is inferred from URL.
	Driver   string         `koanf:"driver"`
	URL      string         `koanf:"url"`
	Database string         `koanf:"database"`
	Embedded EmbeddedConfig `koanf:"embedded"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

type EmailConfig struct {
	// Provider is none, smtp or resend. When empty it is inferred from the
	// credentials that are set.
	Provider     string `koanf:"provider"`
	ResendAPIKey string `koanf:"resend_api_key"`
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPass     string `koanf:"smtp_pass"`
	Sender       string `koanf:"sender"`
	Recipient    string `koanf:"recipient"`

	// CaptureMode starts a local SMTP server and sends notifications to it
	// instead of a real provider.
	CaptureMode bool `koanf:"capture_mode"`
	CapturePort int  `koanf:"capture_port"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config holds the complete bcon configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Store  StoreConfig  `koanf:"store"`
	Auth   AuthConfig   `koanf:"auth"`
	Email  EmailConfig  `koanf:"email"`
	Log    LogConfig    `koanf:"log"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`

	k *koanf.Koanf
}

func defaults() map[string]any {
	return map[string]any{
		"server.host":             "0.0.0.0",
		"server.port":             8001,
		"server.cors_origins":     "*",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.shutdown_timeout": "30s",
		"store.database":          "bcon",
		"store.embedded.port":     5433,
		"store.embedded.data_dir": "./data",
		"store.embedded.username": "postgres",
		"store.embedded.password": "postgres",
		"store.embedded.database": "bcon",
		"store.embedded.version":  "16.9.0",
		"email.sender":            "onboarding@resend.dev",
		"email.recipient":         "contact@bcon.ro",
		"email.smtp_port":         587,
		"email.capture_port":      1025,
		"log.level":               "info",
		"log.format":              "console",
	}
}

// legacyEnv maps environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"MONGO_URL":       "store.url",
	"DB_NAME":         "store.database",
	"JWT_SECRET":      "auth.jwt_secret",
	"RESEND_API_KEY":  "email.resend_api_key",
	"SENDER_EMAIL":    "email.sender",
	"RECIPIENT_EMAIL": "email.recipient",
	"CORS_ORIGINS":    "server.cors_origins",
}

// bconEnv maps BCON_* variables to config keys.
var bconEnv = map[string]string{
	"BCON_HOST":             "server.host",
	"BCON_PORT":             "server.port",
	"BCON_CORS_ORIGINS":     "server.cors_origins",
	"BCON_READ_TIMEOUT":     "server.read_timeout",
	"BCON_WRITE_TIMEOUT":    "server.write_timeout",
	"BCON_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	"BCON_STORE_DRIVER":     "store.driver",
	"BCON_STORE_URL":        "store.url",
	"BCON_STORE_DATABASE":   "store.database",
	"BCON_PG_EMBEDDED":      "store.embedded.enabled",
	"BCON_PG_PORT":          "store.embedded.port",
	"BCON_PG_DATA_DIR":      "store.embedded.data_dir",
	"BCON_PG_USERNAME":      "store.embedded.username",
	"BCON_PG_PASSWORD":      "store.embedded.password",
	"BCON_PG_DATABASE":      "store.embedded.database",
	"BCON_JWT_SECRET":       "auth.jwt_secret",
	"BCON_EMAIL_PROVIDER":   "email.provider",
	"BCON_RESEND_API_KEY":   "email.resend_api_key",
	"BCON_SMTP_HOST":        "email.smtp_host",
	"BCON_SMTP_PORT":        "email.smtp_port",
	"BCON_SMTP_USER":        "email.smtp_user",
	"BCON_SMTP_PASS":        "email.smtp_pass",
	"BCON_SENDER_EMAIL":     "email.sender",
	"BCON_RECIPIENT_EMAIL":  "email.recipient",
	"BCON_CAPTURE_MODE":     "email.capture_mode",
	"BCON_CAPTURE_PORT":     "email.capture_port",
	"BCON_LOG_LEVEL":        "log.level",
	"BCON_LOG_FORMAT":       "log.format",
}

// Load reads configuration from path, or from BCON_CONFIG, or from the first
// of DefaultFiles that exists. A missing default file is not an error; a
// missing explicit path is. flags maps dotted config keys to values set on
// the command line and may be nil.
func Load(path string, flags map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv("BCON_CONFIG")
	}
	if path == "" {
		path = findDefaultFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", lookup(legacyEnv)), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	if err := k.Load(env.Provider("BCON_", ".", lookup(bconEnv)), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if len(flags) > 0 {
		if err := k.Load(mapProvider(flags), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := &Config{File: path, k: k}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	setDefaults(cfg)
	_ = k.Set("store.driver", cfg.Store.Driver)
	_ = k.Set("email.provider", cfg.Email.Provider)
	return cfg, nil
}

// lookup returns an env key transformer that keeps only variables in table.
func lookup(table map[string]string) func(string) string {
	return func(name string) string {
		return table[name]
	}
}

func findDefaultFile() string {
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// setDefaults fills values that depend on other settings.
func setDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		switch {
		case cfg.Store.Embedded.Enabled:
			cfg.Store.Driver = store.DriverPostgres
		case strings.HasPrefix(cfg.Store.URL, "mongodb"):
			cfg.Store.Driver = store.DriverMongo
		case strings.HasPrefix(cfg.Store.URL, "postgres"):
			cfg.Store.Driver = store.DriverPostgres
		default:
			cfg.Store.Driver = store.DriverMemory
		}
	}

	if cfg.Email.Provider == "" {
		switch {
		case cfg.Email.CaptureMode, cfg.Email.SMTPHost != "":
			cfg.Email.Provider = ProviderSMTP
		case cfg.Email.ResendAPIKey != "":
			cfg.Email.Provider = ProviderResend
		default:
			cfg.Email.Provider = ProviderNone
		}
	}
}

// Validate reports settings that prevent the server from starting.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required (set BCON_JWT_SECRET or JWT_SECRET)"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}

	switch c.Store.Driver {
	case store.DriverMemory:
	case store.DriverPostgres:
		if c.Store.URL == "" && !c.Store.Embedded.Enabled {
			errs = append(errs, errors.New("store.url is required for the postgres driver unless store.embedded.enabled is set"))
		}
	case store.DriverMongo:
		if c.Store.URL == "" {
			errs = append(errs, errors.New("store.url is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	switch c.Email.Provider {
	case ProviderNone:
	case ProviderResend:
		if c.Email.ResendAPIKey == "" {
			errs = append(errs, errors.New("email.resend_api_key is required for the resend provider"))
		}
	case ProviderSMTP:
		if c.Email.SMTPHost == "" && !c.Email.CaptureMode {
			errs = append(errs, errors.New("email.smtp_host is required for the smtp provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown email.provider %q", c.Email.Provider))
	}

	return errors.Join(errs...)
}

// Masked returns a copy with secrets replaced, for display.
func (c *Config) Masked() Config {
	out := *c
	out.Auth.JWTSecret = mask(out.Auth.JWTSecret)
	out.Email.ResendAPIKey = mask(out.Email.ResendAPIKey)
	out.Email.SMTPPass = mask(out.Email.SMTPPass)
	out.Store.Embedded.Password = mask(out.Store.Embedded.Password)
	out.Store.URL = maskURL(out.Store.URL)
	return out
}

// MaskedYAML renders the effective configuration as YAML with secrets
// masked. It is only available on a Config returned by Load.
func (c *Config) MaskedYAML() ([]byte, error) {
	if c.k == nil {
		return nil, errors.New("config: not loaded")
	}
	m := c.Masked()
	k := c.k.Copy()
	for key, v := range map[string]string{
		"auth.jwt_secret":         m.Auth.JWTSecret,
		"email.resend_api_key":    m.Email.ResendAPIKey,
		"email.smtp_pass":         m.Email.SMTPPass,
		"store.embedded.password": m.Store.Embedded.Password,
		"store.url":               m.Store.URL,
	} {
		if err := k.Set(key, v); err != nil {
			return nil, err
		}
	}
	return k.Marshal(yaml.Parser())
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// maskURL hides the password in a user:password@host connection string.
func maskURL(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return u
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return u
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return u
	}
	return scheme + "://" + user + ":********@" + host
}

// mapProvider loads a fixed map, used for defaults.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: map provider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	return unflatten(m), nil
}

// unflatten turns dotted keys into nested maps.
func unflatten(flat map[string]any) map[string]any {
	out := map[string]any{}
	for key, v := range flat {
		parts := strings.Split(key, ".")
		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = v
	}
	return out
}

// Starter renders a config file with the defaults and the given JWT secret.
func Starter(jwtSecret string) ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, err
	}
	for key, v := range map[string]any{
		"auth.jwt_secret": jwtSecret,
		"store.driver":    store.DriverMemory,
		"email.provider":  ProviderNone,
	} {
		if err := k.Set(key, v); err != nil {
			return nil, err
		}
	}
	return k.Marshal(yaml.Parser())
}
