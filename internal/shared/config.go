package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Playback    PlaybackConfig    `toml:"playback"`
	Lyrics      LyricsConfig      `toml:"lyrics"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	LRCLib  LRCLibConfig  `toml:"lrclib"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	RefreshToken string `toml:"refresh_token"`
}

// Map returns the credentials in the shape expected by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// LRCLibConfig points at the lyrics provider.
type LRCLibConfig struct {
	BaseURL string `toml:"base_url"`
}

// PlaybackConfig tunes the now-playing poller.
type PlaybackConfig struct {
	MinInterval    Duration `toml:"min_interval"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// LyricsConfig tunes the lyrics cache and its upstream calls.
type LyricsConfig struct {
	CacheSize int      `toml:"cache_size"`
	Timeout   Duration `toml:"timeout"`
	RateLimit float64  `toml:"rate_limit"` // requests per second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration wraps [time.Duration] so it can be written as "500ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults of the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config back to path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ResolveConfig loads path when it exists, falls back to the defaults otherwise,
// and applies environment overrides (including a local .env file) on top.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	_ = godotenv.Load()
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides config values with any recognized environment variables that are set.
//
// Every malformed numeric or duration value is reported as [ErrInvalidConfig]; well-formed values are still applied.
func (c *Config) ApplyEnv() error {
	envString("SPOTIFY_CLIENT_ID", &c.Credentials.Spotify.ClientID)
	envString("SPOTIFY_CLIENT_SECRET", &c.Credentials.Spotify.ClientSecret)
	envString("SPOTIFY_REDIRECT_URI", &c.Credentials.Spotify.RedirectURI)
	envString("SPOTIFY_REFRESH_TOKEN", &c.Credentials.Spotify.RefreshToken)
	envString("LRCLIB_BASE_URL", &c.Credentials.LRCLib.BaseURL)
	envString("DATABASE_PATH", &c.Database.Path)
	envString("HOST", &c.Server.Host)
	envString("LOG_LEVEL", &c.Log.Level)

	return errors.Join(
		envDuration("POLL_INTERVAL", &c.Playback.MinInterval),
		envDuration("REQUEST_TIMEOUT", &c.Playback.RequestTimeout),
		envInt("LYRICS_CACHE_SIZE", &c.Lyrics.CacheSize),
		envDuration("LYRICS_TIMEOUT", &c.Lyrics.Timeout),
		envFloat("LYRICS_RATE_LIMIT", &c.Lyrics.RateLimit),
		envInt("PORT", &c.Server.Port),
	)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Playback.MinInterval.Duration <= 0:
		return fmt.Errorf("%w: playback.min_interval must be positive", ErrInvalidConfig)
	case c.Playback.RequestTimeout.Duration <= 0:
		return fmt.Errorf("%w: playback.request_timeout must be positive", ErrInvalidConfig)
	case c.Lyrics.CacheSize < 1:
		return fmt.Errorf("%w: lyrics.cache_size must be at least 1", ErrInvalidConfig)
	case c.Lyrics.Timeout.Duration <= 0:
		return fmt.Errorf("%w: lyrics.timeout must be positive", ErrInvalidConfig)
	case c.Lyrics.RateLimit <= 0:
		return fmt.Errorf("%w: lyrics.rate_limit must be positive", ErrInvalidConfig)
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port out of range", ErrInvalidConfig)
	}
	return nil
}

// RequireSpotify checks that the client credentials needed to talk to Spotify are set.
func (c *Config) RequireSpotify() error {
	s := c.Credentials.Spotify
	if s.ClientID == "" || s.ClientSecret == "" {
		return errors.Join(ErrMissingCredentials, fmt.Errorf("spotify client_id and client_secret must be set"))
	}
	return nil
}

func envString(key string, dst *string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*dst = value
	}
}

func envInt(key string, dst *int) error {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, value)
	}
	*dst = parsed
	return nil
}

func envFloat(key string, dst *float64) error {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, value)
	}
	*dst = parsed
	return nil
}

// envDuration accepts either a Go duration ("750ms") or a bare number of seconds ("0.5").
func envDuration(key string, dst *Duration) error {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	value = strings.TrimSpace(value)
	if parsed, err := time.ParseDuration(value); err == nil {
		dst.Duration = parsed
		return nil
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, key, value)
	}
	dst.Duration = time.Duration(secs * float64(time.Second))
	return nil
}
