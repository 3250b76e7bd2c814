package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

//go:embed config.example.toml
var exampleConf []byte

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Plex  PlexConfig  `toml:"plex"`
	Dance DanceConfig `toml:"dance"`
	Cache CacheConfig `toml:"cache"`
}

// PlexConfig contains Plex Media Server connection settings.
//
// URL and Token may also arrive via the PLEX_URL and PLEX_TOKEN environment
// variables, which win over the file.
type PlexConfig struct {
	URL               string  `toml:"url" validate:"omitempty,url"`
	Token             string  `toml:"token"`
	Library           string  `toml:"library"`
	TimeoutSeconds    int     `toml:"timeout_seconds" validate:"gte=1,lte=600"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gt=0"`
}

// DanceConfig contains defaults for the relocate-verify-restore run.
type DanceConfig struct {
	PathMapping  string `toml:"path_mapping"`
	PollInterval int    `toml:"poll_interval" validate:"gte=1"`
	MaxWait      int    `toml:"max_wait" validate:"gte=0"`
}

// CacheConfig contains settings for the SQLite track cache used by scans.
type CacheConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `toml:"max_idle_conns" validate:"gte=0"`
}

// LoadConfig reads a TOML configuration file, layering it over the embedded
// defaults, then applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.FromEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// FromEnv overlays PLEX_URL and PLEX_TOKEN onto the config when set.
func (c *Config) FromEnv() {
	if v := os.Getenv("PLEX_URL"); v != "" {
		c.Plex.URL = v
	}
	if v := os.Getenv("PLEX_TOKEN"); v != "" {
		c.Plex.Token = v
	}
}

// Validate checks struct tags and reports every violated field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns ~/.config/plexdance/config.toml, falling back to
// the working directory when the home directory cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "plexdance", "config.toml")
}

// ExpandPath resolves a leading "~/" against the current user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
