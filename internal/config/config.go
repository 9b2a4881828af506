package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// Database types accepted in database.type. The driver registry resolves
// them to a generator and processor.
var databaseTypes = []string{"mariadb", "maria", "mysql", "mysql4", "mysql5", "mysql8"}

// Transaction modes.
const (
	TransactionPerMigration = "per_migration"
	TransactionPerSession   = "per_session"
)

// Journal backends.
const (
	JournalSQLite = "sqlite"
	JournalFile   = "file"
	JournalNone   = "none"
)

const (
	defaultPort         = 3306
	defaultVersionTable = "VersionInfo"
	defaultTimeout      = 30 * time.Second
	redacted            = "[REDACTED]"
)

// expandTilde expands ~ or ~/ at the start of a path to the user's home directory
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Config holds all configuration for the migration tool
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Runner     RunnerConfig     `yaml:"runner"`
	Journal    JournalConfig    `yaml:"journal"`
	Slack      SlackConfig      `yaml:"slack"`
	Profile    ProfileConfig    `yaml:"profile,omitempty"`
}

// ProfileConfig holds optional profile metadata.
type ProfileConfig struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// SlackConfig holds Slack notification settings
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
	Username   string `yaml:"username"`
	Enabled    bool   `yaml:"enabled"`
}

// DatabaseConfig holds the connection settings. Either DSN or the discrete
// fields are used; DSN wins when both are set.
type DatabaseConfig struct {
	Type     string            `yaml:"type"` // mariadb (default), mysql, mysql4, mysql5, mysql8
	DSN      string            `yaml:"dsn"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Database string            `yaml:"database"`
	TLS      string            `yaml:"tls"` // go-sql-driver TLS config name: true, false, skip-verify, preferred
	Params   map[string]string `yaml:"params"`
	Timeout  time.Duration     `yaml:"timeout"` // connect timeout and per-statement limit
}

// MigrationsConfig says where migrations come from.
type MigrationsConfig struct {
	Dir  string   `yaml:"dir"`
	Tags []string `yaml:"tags"` // only run migrations carrying all of these tags
}

// RunnerConfig holds migration behavior settings
type RunnerConfig struct {
	Preview            bool   `yaml:"preview"`              // log SQL without executing
	Compatibility      string `yaml:"compatibility"`        // strict or loose (default)
	DefaultSchema      string `yaml:"default_schema"`       // schema applied to expressions without one
	TransactionMode    string `yaml:"transaction_mode"`     // per_migration (default) or per_session
	VersionTable       string `yaml:"version_table"`        // default VersionInfo
	StrictVersionOrder bool   `yaml:"strict_version_order"` // refuse to apply out-of-order migrations
}

// JournalConfig selects where run history is kept.
type JournalConfig struct {
	Backend       string `yaml:"backend"` // sqlite (default), file, none
	Path          string `yaml:"path"`    // data dir for sqlite, state file for file
	RetentionDays int    `yaml:"retention_days"`
}

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	SuppressWarnings bool
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions reads configuration from a YAML file with options.
func LoadWithOptions(path string, opts LoadOptions) (*Config, error) {
	// Check file permissions before reading (warns if insecure)
	if warning := checkFilePermissions(path); warning != "" && !opts.SuppressWarnings {
		fmt.Fprint(os.Stderr, warning)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := LoadBytes(data)
	if err != nil {
		return nil, err
	}

	// Relative migration dirs are relative to the config file
	if cfg.Migrations.Dir != "" && !filepath.IsAbs(cfg.Migrations.Dir) {
		cfg.Migrations.Dir = filepath.Join(filepath.Dir(path), cfg.Migrations.Dir)
	}
	return cfg, nil
}

// LoadBytes reads configuration from YAML bytes.
func LoadBytes(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultDataDir returns the default data directory for state storage.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".mariadb-migrate")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	if err := os.Chmod(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Type == "" {
		c.Database.Type = "mariadb"
	}
	c.Database.Type = strings.ToLower(c.Database.Type)
	if c.Database.Port == 0 {
		c.Database.Port = defaultPort
	}
	if c.Database.Timeout == 0 {
		c.Database.Timeout = defaultTimeout
	}

	if c.Migrations.Dir == "" {
		c.Migrations.Dir = "migrations"
	} else {
		c.Migrations.Dir = expandTilde(c.Migrations.Dir)
	}

	if c.Runner.TransactionMode == "" {
		c.Runner.TransactionMode = TransactionPerMigration
	}
	if c.Runner.VersionTable == "" {
		c.Runner.VersionTable = defaultVersionTable
	}
	if c.Runner.Compatibility == "" {
		c.Runner.Compatibility = "loose"
	}

	if c.Journal.Backend == "" {
		c.Journal.Backend = JournalSQLite
	}
	if c.Journal.Path == "" {
		home, _ := os.UserHomeDir()
		c.Journal.Path = filepath.Join(home, ".mariadb-migrate")
		if c.Journal.Backend == JournalFile {
			c.Journal.Path = filepath.Join(c.Journal.Path, "state.yaml")
		}
	} else {
		c.Journal.Path = expandTilde(c.Journal.Path)
	}
	if c.Journal.RetentionDays == 0 {
		c.Journal.RetentionDays = 90
	}
}

func (c *Config) validate() error {
	if !contains(databaseTypes, c.Database.Type) {
		return fmt.Errorf("database.type must be one of %s, got '%s'", strings.Join(databaseTypes, ", "), c.Database.Type)
	}
	if c.Database.DSN != "" {
		if _, err := gomysql.ParseDSN(c.Database.DSN); err != nil {
			return fmt.Errorf("database.dsn: %w", err)
		}
	} else {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required when database.dsn is not set")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required when database.dsn is not set")
		}
	}
	if c.Database.Timeout < 0 {
		return fmt.Errorf("database.timeout must not be negative")
	}

	if c.Runner.TransactionMode != TransactionPerMigration && c.Runner.TransactionMode != TransactionPerSession {
		return fmt.Errorf("runner.transaction_mode must be '%s' or '%s'", TransactionPerMigration, TransactionPerSession)
	}
	switch strings.ToLower(c.Runner.Compatibility) {
	case "strict", "loose":
	default:
		return fmt.Errorf("runner.compatibility must be 'strict' or 'loose', got '%s'", c.Runner.Compatibility)
	}

	switch c.Journal.Backend {
	case JournalSQLite, JournalFile, JournalNone:
	default:
		return fmt.Errorf("journal.backend must be '%s', '%s' or '%s'", JournalSQLite, JournalFile, JournalNone)
	}
	if c.Journal.RetentionDays < 0 {
		return fmt.Errorf("journal.retention_days must not be negative")
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		return fmt.Errorf("slack.webhook_url is required when slack is enabled")
	}
	return nil
}

// DSN returns the go-sql-driver connection string.
func (c *Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}

	mc := gomysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
	mc.User = c.Database.User
	mc.Passwd = c.Database.Password
	mc.DBName = c.Database.Database
	mc.Timeout = c.Database.Timeout
	mc.TLSConfig = c.Database.TLS
	if len(c.Database.Params) > 0 {
		mc.Params = make(map[string]string, len(c.Database.Params))
		for k, v := range c.Database.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

// DatabaseName returns the schema the DSN connects to.
func (c *Config) DatabaseName() string {
	if c.Database.DSN == "" {
		return c.Database.Database
	}
	mc, err := gomysql.ParseDSN(c.Database.DSN)
	if err != nil {
		return ""
	}
	return mc.DBName
}

// Sanitized returns a copy of the config with sensitive fields redacted
func (c *Config) Sanitized() *Config {
	sanitized := *c // shallow copy

	if sanitized.Database.Password != "" {
		sanitized.Database.Password = redacted
	}
	if sanitized.Database.DSN != "" {
		sanitized.Database.DSN = redactDSN(sanitized.Database.DSN)
	}

	// Redact Slack webhook
	if sanitized.Slack.WebhookURL != "" {
		sanitized.Slack.WebhookURL = redacted
	}

	return &sanitized
}

func redactDSN(dsn string) string {
	mc, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return redacted
	}
	if mc.Passwd != "" {
		mc.Passwd = redacted
	}
	return mc.FormatDSN()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
