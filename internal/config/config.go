package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the global ~/.chatrise/config.toml.
type Config struct {
	DefaultProfile string         `toml:"default_profile"`
	Server         ServerConfig   `toml:"server"`
	Client         ClientConfig   `toml:"client"`
	Presence       PresenceConfig `toml:"presence"`
}

// ServerConfig configures chatrised.
type ServerConfig struct {
	// Listen is host:port, or unix:///path/to.sock.
	Listen        string        `toml:"listen"`
	DataDir       string        `toml:"data_dir"`
	JWTSecret     string        `toml:"jwt_secret"`
	TokenTTL      time.Duration `toml:"token_ttl"`
	RedisURL      string        `toml:"redis_url"`
	FilesBaseURL  string        `toml:"files_base_url"`
	MaxAttachment int64         `toml:"max_attachment_bytes"`
	// ChatSource is "friends" or "messages".
	ChatSource string `toml:"chat_source"`
	LogLevel   string `toml:"log_level"`
}

// ClientConfig configures chatrisectl and chatrisetui.
type ClientConfig struct {
	Server string `toml:"server"`
}

// PresenceConfig tunes heartbeats and the stale-presence sweep.
type PresenceConfig struct {
	HeartbeatInterval time.Duration `toml:"heartbeat_interval"`
	OfflineAfter      time.Duration `toml:"offline_after"`
	SweepInterval     time.Duration `toml:"sweep_interval"`
}

const (
	DefaultListen      = "127.0.0.1:7420"
	ChatSourceFriends  = "friends"
	ChatSourceMessages = "messages"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:        DefaultListen,
			TokenTTL:      30 * 24 * time.Hour,
			MaxAttachment: 10 << 20,
			ChatSource:    ChatSourceFriends,
			LogLevel:      "info",
		},
		Client: ClientConfig{
			Server: DefaultListen,
		},
		Presence: PresenceConfig{
			HeartbeatInterval: 30 * time.Second,
			OfflineAfter:      2 * time.Minute,
			SweepInterval:     30 * time.Second,
		},
	}
}

// Load reads config from the given path over the defaults. Returns error if file missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
// Environment overrides are applied in both cases.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg)
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given .env files into the
// process environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides cfg with CHATRISE_* environment variables.
func ApplyEnv(cfg *Config) {
	setStr(&cfg.Server.Listen, "CHATRISE_LISTEN")
	setStr(&cfg.Server.DataDir, "CHATRISE_DATA_DIR")
	setStr(&cfg.Server.JWTSecret, "CHATRISE_JWT_SECRET")
	setStr(&cfg.Server.RedisURL, "CHATRISE_REDIS_URL")
	setStr(&cfg.Server.FilesBaseURL, "CHATRISE_FILES_BASE_URL")
	setStr(&cfg.Server.ChatSource, "CHATRISE_CHAT_SOURCE")
	setStr(&cfg.Server.LogLevel, "CHATRISE_LOG_LEVEL")
	setStr(&cfg.Client.Server, "CHATRISE_SERVER")
	setStr(&cfg.DefaultProfile, "CHATRISE_PROFILE")
	setDuration(&cfg.Server.TokenTTL, "CHATRISE_TOKEN_TTL")
	setDuration(&cfg.Presence.HeartbeatInterval, "CHATRISE_HEARTBEAT_INTERVAL")
	setDuration(&cfg.Presence.OfflineAfter, "CHATRISE_OFFLINE_AFTER")
	if v := os.Getenv("CHATRISE_MAX_ATTACHMENT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Server.MaxAttachment = n
		}
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		*dst = d
	}
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
