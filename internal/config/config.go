package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vango-dev/shadow/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "shadow.json"

	// EnvPrefix prefixes environment overrides, e.g. SHADOW_SERVER_PORT.
	EnvPrefix = "SHADOW"

	// DefaultPort is the default server port.
	DefaultPort = 8000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultStaticDir is the default client bundle directory.
	DefaultStaticDir = "dist"

	// DefaultMaxAge is the Cache-Control max-age for hashed bundle files.
	DefaultMaxAge = 315360000

	// DefaultTimeout bounds a single page render.
	DefaultTimeout = 30 * time.Second

	// DefaultPage is the sample page served when none is configured.
	DefaultPage = "hello"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheS3     = "s3"
)

// Config represents the complete shadow.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" mapstructure:"name"`

	// Server contains listener configuration.
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Static contains bundle file serving configuration.
	Static StaticConfig `json:"static" mapstructure:"static"`

	// Render contains page rendering configuration.
	Render RenderConfig `json:"render" mapstructure:"render"`

	// Cache contains render cache configuration.
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// Dev contains development configuration.
	Dev DevConfig `json:"dev" mapstructure:"dev"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" mapstructure:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains listener configuration.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" mapstructure:"host"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" mapstructure:"port"`
}

// StaticConfig contains bundle file serving configuration.
type StaticConfig struct {
	// Dir is the directory containing the client bundle.
	Dir string `json:"dir,omitempty" mapstructure:"dir"`

	// MaxAge is the Cache-Control max-age, in seconds, for bundle files.
	MaxAge int `json:"maxAge,omitempty" mapstructure:"maxAge"`
}

// RenderConfig contains page rendering configuration.
type RenderConfig struct {
	// Page names the page to serve.
	Page string `json:"page,omitempty" mapstructure:"page"`

	// Timeout bounds one render including pending work (e.g. "10s").
	Timeout time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
}

// CacheConfig contains render cache configuration.
type CacheConfig struct {
	// Backend is one of none, memory, sqlite or s3.
	Backend string `json:"backend,omitempty" mapstructure:"backend"`

	// TTL is how long entries stay valid. Zero keeps them forever.
	TTL time.Duration `json:"ttl,omitempty" mapstructure:"ttl"`

	// Path is the SQLite database file.
	Path string `json:"path,omitempty" mapstructure:"path"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty" mapstructure:"bucket"`

	// Prefix is the S3 key prefix.
	Prefix string `json:"prefix,omitempty" mapstructure:"prefix"`

	// Region is the S3 region. Empty falls back to AWS_REGION.
	Region string `json:"region,omitempty" mapstructure:"region"`

	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty" mapstructure:"endpoint"`
}

// DevConfig contains development configuration.
type DevConfig struct {
	// Watch reloads the bundle and connected browsers on file changes.
	Watch bool `json:"watch,omitempty" mapstructure:"watch"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format,omitempty" mapstructure:"format"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Static: StaticConfig{
			Dir:    DefaultStaticDir,
			MaxAge: DefaultMaxAge,
		},
		Render: RenderConfig{
			Page:    DefaultPage,
			Timeout: DefaultTimeout,
		},
		Cache: CacheConfig{
			Backend: CacheNone,
			Path:    "shadow-cache.db",
			Prefix:  "pages/",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// NewViper returns a viper instance primed with defaults and environment
// overrides (SHADOW_SERVER_PORT and so on).
func NewViper() *viper.Viper {
	v := viper.New()
	d := New()

	v.SetDefault("name", d.Name)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("static.dir", d.Static.Dir)
	v.SetDefault("static.maxAge", d.Static.MaxAge)
	v.SetDefault("render.page", d.Render.Page)
	v.SetDefault("render.timeout", d.Render.Timeout)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.bucket", d.Cache.Bucket)
	v.SetDefault("cache.prefix", d.Cache.Prefix)
	v.SetDefault("cache.region", d.Cache.Region)
	v.SetDefault("cache.endpoint", d.Cache.Endpoint)
	v.SetDefault("dev.watch", d.Dev.Watch)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"host":      "server.host",
	"port":      "server.port",
	"static":    "static.dir",
	"page":      "render.page",
	"timeout":   "render.timeout",
	"cache":     "cache.backend",
	"watch":     "dev.watch",
	"log-level": "log.level",
}

// BindFlags binds the known flags present in fs to v. Flags set on the
// command line take precedence over the environment and the file.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.New("E122").Wrap(err)
		}
	}
	return nil
}

// Read loads configuration through v. With an empty path it looks for
// shadow.json in the working directory and falls back to defaults when
// there is none; an explicit path must exist.
func Read(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.New("E121").
					WithDetail("No " + ConfigFileName + " found at " + path)
			}
			return nil, errors.New("E120").Wrap(err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
	}
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.New("E120").
				WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
				WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
		}
	}

	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New("E120").Wrap(err)
	}
	cfg.configPath = v.ConfigFileUsed()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path, with
// environment overrides applied.
func LoadFile(path string) (*Config, error) {
	return Read(NewViper(), path)
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Static.Dir == "" {
		c.Static.Dir = DefaultStaticDir
	}
	if c.Static.MaxAge == 0 {
		c.Static.MaxAge = DefaultMaxAge
	}
	if c.Render.Page == "" {
		c.Render.Page = DefaultPage
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheNone
	}
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	c.Log.Level = strings.ToLower(c.Log.Level)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535")
	}
	if c.Render.Timeout < 0 {
		return errors.New("E122").
			WithDetail("render.timeout must not be negative")
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheSQLite:
		if c.Cache.Path == "" {
			return errors.New("E122").
				WithDetail("cache.path is required for the sqlite backend")
		}
	case CacheS3:
		if c.Cache.Bucket == "" {
			return errors.New("E122").
				WithDetail("cache.bucket is required for the s3 backend").
				WithSuggestion("Set cache.bucket in " + ConfigFileName + " or SHADOW_CACHE_BUCKET")
		}
	default:
		return errors.New("E122").
			WithDetail(fmt.Sprintf("unknown cache backend %q (want none, memory, sqlite or s3)", c.Cache.Backend))
	}

	if _, err := c.Log.level(); err != nil {
		return err
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E122").
			WithDetail(fmt.Sprintf("unknown log format %q (want text or json)", c.Log.Format))
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the server URL.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// StaticPath returns the bundle directory, resolved against the config
// file's directory when relative.
func (c *Config) StaticPath() string {
	if filepath.IsAbs(c.Static.Dir) || c.Dir() == "" {
		return c.Static.Dir
	}
	return filepath.Join(c.Dir(), c.Static.Dir)
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, errors.New("E122").
			WithDetail(fmt.Sprintf("unknown log level %q (want debug, info, warn or error)", l.Level))
	}
	return level, nil
}

// NewLogger builds the logger described by l, writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing shadow.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E121").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
