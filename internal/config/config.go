// Package config resolves settings for the epaper server.
//
// Values are layered, later sources winning:
//   - built-in defaults
//   - the YAML file named by --config or EPAPER_CONFIG
//   - EPAPER_* environment variables
//   - command line flags
package config

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/rook-computer/epaper/internal/gateway"
	"github.com/rook-computer/epaper/internal/store"
	"github.com/rook-computer/epaper/internal/web"
)

const EnvConfigPath = "EPAPER_CONFIG"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type Config struct {
	// Listen is the HTTP listen address.
	Listen  string `yaml:"listen"`
	DevMode bool   `yaml:"dev"`

	// StaticDir replaces the embedded UI when set.
	StaticDir string `yaml:"static_dir"`

	// ETags enables fingerprinted frames and conditional fetches.
	ETags          bool  `yaml:"etags"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	Log   LogConfig   `yaml:"log"`
	Store StoreConfig `yaml:"store"`
}

type LogConfig struct {
	// Level is a logrus level name: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
	// StdioPath, when set, receives the process stdout and stderr.
	StdioPath string `yaml:"stdio_path"`
}

type StoreConfig struct {
	// Driver is one of memory, file, redis.
	Driver string `yaml:"driver"`
	// Dir is the file driver's directory.
	Dir string `yaml:"dir"`
	// Key names the frame slot.
	Key   string             `yaml:"key"`
	Redis store.RedisOptions `yaml:"redis"`
}

func Default() *Config {
	return &Config{
		Listen:         ":8080",
		ETags:          true,
		MaxUploadBytes: web.DefaultMaxUploadBytes,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Driver: store.DriverMemory,
			Dir:    "data",
			Key:    gateway.DefaultKey,
			Redis: store.RedisOptions{
				Addr:   "localhost:6379",
				Prefix: "epaper:",
			},
		},
	}
}

// Load resolves the configuration for args and registers its flags on fs.
func Load(fs *pflag.FlagSet, args []string, lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	path := preScanConfigPath(args)
	if path == "" {
		path, _ = lookup(EnvConfigPath)
	}

	c := Default()
	if path != "" {
		if err := c.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	var ignored string
	fs.StringVar(&ignored, "config", path, "YAML config file (env "+EnvConfigPath+")")
	c.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// preScanConfigPath finds --config before the real flag set is built so the
// file can seed the flag defaults.
func preScanConfigPath(args []string) string {
	pre := pflag.NewFlagSet("config", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	path := pre.String("config", "", "")
	_ = pre.Parse(args)
	return *path
}

// LoadFile merges the YAML file at path into c. Unknown fields are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

// ApplyEnv overrides c from EPAPER_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Errorf("%s must be a boolean (got %q)", key, v)
		}
		*dst = parsed
		return nil
	}
	integer := func(key string, dst *int64) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Errorf("%s must be an integer (got %q)", key, v)
		}
		*dst = parsed
		return nil
	}

	str("EPAPER_LISTEN", &c.Listen)
	str("EPAPER_STATIC_DIR", &c.StaticDir)
	str("EPAPER_LOG_LEVEL", &c.Log.Level)
	str("EPAPER_LOG_FORMAT", &c.Log.Format)
	str("EPAPER_STDIO_LOG", &c.Log.StdioPath)
	str("EPAPER_STORE_DRIVER", &c.Store.Driver)
	str("EPAPER_STORE_DIR", &c.Store.Dir)
	str("EPAPER_STORE_KEY", &c.Store.Key)
	str("EPAPER_REDIS_ADDR", &c.Store.Redis.Addr)
	str("EPAPER_REDIS_PASSWORD", &c.Store.Redis.Password)
	str("EPAPER_REDIS_PREFIX", &c.Store.Redis.Prefix)

	if err := boolean("EPAPER_DEV", &c.DevMode); err != nil {
		return err
	}
	if err := boolean("EPAPER_ETAGS", &c.ETags); err != nil {
		return err
	}
	if err := integer("EPAPER_MAX_UPLOAD_BYTES", &c.MaxUploadBytes); err != nil {
		return err
	}
	db := int64(c.Store.Redis.DB)
	if err := integer("EPAPER_REDIS_DB", &db); err != nil {
		return err
	}
	c.Store.Redis.DB = int(db)
	return nil
}

// RegisterFlags binds c's fields to fs, using the current values as defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Listen, "listen", c.Listen, "HTTP listen address")
	fs.BoolVar(&c.DevMode, "dev", c.DevMode, "enable dev mode (permissive CORS)")
	fs.StringVar(&c.StaticDir, "static-dir", c.StaticDir, "serve this directory at / instead of the embedded UI")
	fs.BoolVar(&c.ETags, "etags", c.ETags, "fingerprint frames and honour If-None-Match")
	fs.Int64Var(&c.MaxUploadBytes, "max-upload-bytes", c.MaxUploadBytes, "largest accepted request body")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level (debug, info, warn, error)")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log format (text, json)")
	fs.StringVar(&c.Log.StdioPath, "stdio-log", c.Log.StdioPath, "redirect stdout/stderr to this file")
	fs.StringVar(&c.Store.Driver, "store", c.Store.Driver, "blob store driver (memory, file, redis)")
	fs.StringVar(&c.Store.Dir, "store-dir", c.Store.Dir, "directory for the file store")
	fs.StringVar(&c.Store.Key, "store-key", c.Store.Key, "key of the frame slot")
	fs.StringVar(&c.Store.Redis.Addr, "redis-addr", c.Store.Redis.Addr, "redis address")
	fs.StringVar(&c.Store.Redis.Password, "redis-password", c.Store.Redis.Password, "redis password")
	fs.IntVar(&c.Store.Redis.DB, "redis-db", c.Store.Redis.DB, "redis database number")
	fs.StringVar(&c.Store.Redis.Prefix, "redis-prefix", c.Store.Redis.Prefix, "prefix for redis keys")
}

func (c *Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.Store.Driver) {
	case store.DriverMemory, store.DriverFile, store.DriverRedis:
	default:
		problems = append(problems, "store.driver must be one of memory, file, redis (got "+strconv.Quote(c.Store.Driver)+")")
	}
	if strings.EqualFold(c.Store.Driver, store.DriverFile) && strings.TrimSpace(c.Store.Dir) == "" {
		problems = append(problems, "store.dir is required for the file driver")
	}
	if strings.TrimSpace(c.Listen) == "" {
		problems = append(problems, "listen is required")
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "max_upload_bytes must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, "log.format must be text or json")
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) StoreOptions() store.Options {
	return store.Options{Driver: c.Store.Driver, Dir: c.Store.Dir, Redis: c.Store.Redis}
}

func (c *Config) ServerConfig() web.ServerConfig {
	return web.ServerConfig{
		ListenAddr:     c.Listen,
		DevMode:        c.DevMode,
		StaticDir:      c.StaticDir,
		ETags:          c.ETags,
		MaxUploadBytes: c.MaxUploadBytes,
	}
}
