// Package config loads the cellgraph configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/cellgraph/config.toml, or
// ~/.config/cellgraph/config.toml when XDG_CONFIG_HOME is unset:
//
//	pattern = "^[A-Z][1-9][0-9]?$"
//
//	[store]
//	backend = "sqlite"
//	dsn = "~/.local/share/cellgraph/workbooks.db"
//
//	[server]
//	addr = ":8080"
//
// Every key is optional; [Default] supplies the rest.
package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	cgerrors "github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/store"
)

// appName names the config and data directories.
const appName = "cellgraph"

// Config is the contents of the configuration file.
type Config struct {
	// Pattern is the validity pattern for new sheets. Empty accepts every
	// grammatically valid cell name.
	Pattern string `toml:"pattern"`

	Store  store.Config `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// ServerConfig configures "cellgraph serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Store:  store.Config{Backend: store.BackendFile},
		Server: ServerConfig{Addr: "localhost:8080"},
	}
}

// Dir returns the configuration directory using the XDG standard
// (~/.config/cellgraph/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DataDir returns the data directory using the XDG standard
// (~/.local/share/cellgraph/).
func DataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// CacheDir returns the cache directory using the XDG standard
// (~/.cache/cellgraph/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration at path over [Default]. An empty path
// means the default location, where a missing file is not an error.
// The result has been validated and has "~" expanded in file paths.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = Path(); err != nil {
			return nil, cgerrors.Wrap(cgerrors.ErrCodeRead, err, "locate config")
		}
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return nil, cgerrors.Wrap(cgerrors.ErrCodeRead, err, "read config %s", path)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, cgerrors.New(cgerrors.ErrCodeInvalidInput, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the pattern and the store backend.
func (c *Config) Validate() error {
	if _, err := c.PatternRegexp(); err != nil {
		return err
	}
	if c.Store.Backend != "" && !slices.Contains(store.Backends, c.Store.Backend) {
		return cgerrors.New(cgerrors.ErrCodeInvalidInput, "unknown store backend %q (want one of %s)",
			c.Store.Backend, strings.Join(store.Backends, ", "))
	}
	switch c.Store.Backend {
	case store.BackendSQLite:
		if c.Store.DSN == "" {
			return cgerrors.New(cgerrors.ErrCodeInvalidInput, "store.dsn is required for the sqlite backend")
		}
	case store.BackendRedis:
		if c.Store.RedisAddr == "" {
			return cgerrors.New(cgerrors.ErrCodeInvalidInput, "store.redis_addr is required for the redis backend")
		}
	case store.BackendMongo:
		if c.Store.MongoURI == "" {
			return cgerrors.New(cgerrors.ErrCodeInvalidInput, "store.mongo_uri is required for the mongo backend")
		}
	}
	return nil
}

// PatternRegexp compiles Pattern. An empty pattern yields nil.
func (c *Config) PatternRegexp() (*regexp.Regexp, error) {
	if c.Pattern == "" {
		return nil, nil
	}
	return cgerrors.ValidatePattern(c.Pattern)
}

// resolvePaths expands "~" and fills in the file store directory.
func (c *Config) resolvePaths() error {
	if c.Store.Dir == "" && (c.Store.Backend == "" || c.Store.Backend == store.BackendFile) {
		dir, err := DataDir()
		if err != nil {
			return cgerrors.Wrap(cgerrors.ErrCodeRead, err, "locate data dir")
		}
		c.Store.Dir = filepath.Join(dir, "workbooks")
	}
	var err error
	if c.Store.Dir, err = expandHome(c.Store.Dir); err != nil {
		return err
	}
	if c.Store.Backend == store.BackendSQLite && !strings.Contains(c.Store.DSN, ":") {
		if c.Store.DSN, err = expandHome(c.Store.DSN); err != nil {
			return err
		}
	}
	return nil
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && rest[0] != '/' && rest[0] != filepath.Separator) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", cgerrors.Wrap(cgerrors.ErrCodeInvalidPath, err, "expand %s", path)
	}
	return filepath.Join(home, rest), nil
}

// Write encodes the configuration as TOML.
func (c *Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return cgerrors.Wrap(cgerrors.ErrCodeWrite, err, "encode config")
	}
	return nil
}
