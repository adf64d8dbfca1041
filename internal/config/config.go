// Package config loads genregraph settings.
//
// Settings come from three layers, later ones winning:
//
//  1. [Default]
//  2. a TOML file (genregraph.toml in the working directory, or
//     $XDG_CONFIG_HOME/genregraph/config.toml)
//  3. GENREGRAPH_* environment variables, optionally read from a .env file
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	apperr "github.com/matzehuels/genregraph/pkg/errors"
)

const appName = "genregraph"

// FileName is the project-local config file name.
const FileName = appName + ".toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the complete settings tree.
type Config struct {
	// Source is the data.json path or URL.
	Source string `toml:"source" validate:"required"`
	// Strict validates the dataset after loading.
	Strict bool `toml:"strict"`

	Parser ParserConfig `toml:"parser"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// ParserConfig selects the wikitext parser.
type ParserConfig struct {
	Command string        `toml:"command"` // empty uses the built-in line parser
	Args    []string      `toml:"args"`
	Timeout time.Duration `toml:"timeout" validate:"gte=0"`
}

// RenderConfig holds graph rendering defaults.
type RenderConfig struct {
	Engine   string  `toml:"engine" validate:"oneof=sfdp fdp neato dot"`
	BaseSize float64 `toml:"base_size" validate:"gt=0"`
	Labels   bool    `toml:"labels"`
	PNGScale float64 `toml:"png_scale" validate:"gt=0"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend  string        `toml:"backend" validate:"oneof=file redis none"`
	Dir      string        `toml:"dir"` // empty uses the user cache dir
	TTL      time.Duration `toml:"ttl" validate:"gte=0"`
	RedisURL string        `toml:"redis_url" validate:"required_if=Backend redis"`
	Prefix   string        `toml:"prefix"`
}

// StoreConfig points at the snapshot store.
type StoreConfig struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures `genregraph serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr" validate:"required"`
	CORSOrigins  []string      `toml:"cors_origins"`
	RateLimit    float64       `toml:"rate_limit" validate:"gte=0"` // requests per second per client; 0 disables
	Burst        int           `toml:"burst" validate:"gte=0"`
	Watch        bool          `toml:"watch"`
	ReadTimeout  time.Duration `toml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `toml:"write_timeout" validate:"gte=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Source: "data.json",
		Parser: ParserConfig{Timeout: 10 * time.Second},
		Render: RenderConfig{Engine: "sfdp", BaseSize: 4.0, PNGScale: 2.0},
		Cache:  CacheConfig{Backend: CacheFile, TTL: 24 * time.Hour, Prefix: appName + ":"},
		Store:  StoreConfig{Database: appName, Collection: "snapshots"},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			CORSOrigins:  []string{"*"},
			RateLimit:    20,
			Burst:        40,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// Paths returns the config files [Load] looks for when no path is given,
// in order of preference.
func Paths() []string {
	paths := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appName, "config.toml"))
	}
	return paths
}

// Load builds a Config from defaults, the config file and the environment.
// An explicit path must exist; otherwise the first of [Paths] that exists
// is used, and none existing is fine.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		for _, p := range Paths() {
			err := decodeFile(p, cfg)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			break
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotenv reads KEY=value pairs from the given files (".env" if none)
// into the process environment. Missing files are ignored and variables
// already set are not overwritten.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return apperr.New(apperr.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// =============================================================================
// Environment
// =============================================================================

type envVar struct {
	name  string
	apply func(c *Config, v string) error
}

var envVars = []envVar{
	{"GENREGRAPH_SOURCE", func(c *Config, v string) error { c.Source = v; return nil }},
	{"GENREGRAPH_STRICT", func(c *Config, v string) error { return setBool(&c.Strict, v) }},
	{"GENREGRAPH_PARSER", func(c *Config, v string) error {
		fields := strings.Fields(v)
		c.Parser.Command, c.Parser.Args = "", nil
		if len(fields) > 0 {
			c.Parser.Command, c.Parser.Args = fields[0], fields[1:]
		}
		return nil
	}},
	{"GENREGRAPH_ENGINE", func(c *Config, v string) error { c.Render.Engine = v; return nil }},
	{"GENREGRAPH_CACHE", func(c *Config, v string) error { c.Cache.Backend = v; return nil }},
	{"GENREGRAPH_CACHE_DIR", func(c *Config, v string) error { c.Cache.Dir = v; return nil }},
	{"GENREGRAPH_CACHE_TTL", func(c *Config, v string) error { return setDuration(&c.Cache.TTL, v) }},
	{"GENREGRAPH_REDIS_URL", func(c *Config, v string) error { c.Cache.RedisURL = v; return nil }},
	{"GENREGRAPH_MONGO_URI", func(c *Config, v string) error { c.Store.MongoURI = v; return nil }},
	{"GENREGRAPH_ADDR", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"GENREGRAPH_CORS_ORIGINS", func(c *Config, v string) error { c.Server.CORSOrigins = splitList(v); return nil }},
	{"GENREGRAPH_RATE_LIMIT", func(c *Config, v string) error { return setFloat(&c.Server.RateLimit, v) }},
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, ev := range envVars {
		v, ok := lookup(ev.name)
		if !ok {
			continue
		}
		if err := ev.apply(c, strings.TrimSpace(v)); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "%s", ev.name)
		}
	}
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// Validation
// =============================================================================

var validate = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid config")
	}
	problems := make([]string, len(verrs))
	for i, fe := range verrs {
		problems[i] = fmt.Sprintf("%s: failed %q (got %v)",
			strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag(), fe.Value())
	}
	return apperr.New(apperr.ErrCodeInvalidInput, "invalid config: %s", strings.Join(problems, "; "))
}

// IsURL reports whether Source is an HTTP(S) URL.
func (c *Config) IsURL() bool {
	return apperr.IsURL(c.Source)
}
