// Package config loads the captionbuddy YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwulff/captionbuddy/internal/db"
	"github.com/jwulff/captionbuddy/internal/transport"
	"gopkg.in/yaml.v3"
)

// Transcriber kinds.
const (
	TranscriberSidecar = "sidecar"
	TranscriberAWS     = "aws"
)

// Config holds every setting. Fields missing from the file keep their
// defaults.
type Config struct {
	DBPath      string `yaml:"db_path"`
	MediaDir    string `yaml:"media_dir"`
	CaptionsDir string `yaml:"captions_dir"`
	DemoDir     string `yaml:"demo_dir"`

	Transcriber TranscriberConfig `yaml:"transcriber"`
	Transport   TransportConfig   `yaml:"transport"`
	Player      PlayerConfig      `yaml:"player"`

	path string
}

type TranscriberConfig struct {
	Kind string    `yaml:"kind"`
	AWS  AWSConfig `yaml:"aws"`
}

type AWSConfig struct {
	Region       string        `yaml:"region"`
	Bucket       string        `yaml:"bucket"`
	LanguageCode string        `yaml:"language_code"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type TransportConfig struct {
	Kind    string `yaml:"kind"`
	Address string `yaml:"address"`
	Channel string `yaml:"channel"`
	// Listen is the websocket address served by the relay command.
	Listen string `yaml:"listen"`
}

type PlayerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	// Tail is how long an item stays on screen after its last caption.
	Tail time.Duration `yaml:"tail"`
}

// Default returns the built-in configuration.
func Default() *Config {
	base := filepath.Dir(db.DefaultDBPath())

	c := &Config{
		DBPath:   db.DefaultDBPath(),
		MediaDir: filepath.Join(base, "media"),
	}

	c.Transcriber.Kind = TranscriberSidecar
	c.Transcriber.AWS.LanguageCode = "en-US"
	c.Transcriber.AWS.PollInterval = 5 * time.Second

	c.Transport.Kind = string(transport.KindSocket)
	c.Transport.Address = transport.SocketPath()
	c.Transport.Channel = "captionbuddy"
	c.Transport.Listen = "127.0.0.1:8765"

	c.Player.TickInterval = 100 * time.Millisecond
	c.Player.Tail = time.Second

	return c
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(filepath.Dir(db.DefaultDBPath()), "captionbuddy.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg.normalize()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// Write saves the config as YAML, creating the parent directory.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Transcriber.Kind {
	case TranscriberSidecar:
	case TranscriberAWS:
		if c.Transcriber.AWS.Bucket == "" {
			return errors.New("transcriber.aws.bucket is required for the aws transcriber")
		}
	default:
		return fmt.Errorf("unknown transcriber kind %q", c.Transcriber.Kind)
	}

	switch transport.Kind(c.Transport.Kind) {
	case transport.KindSocket, transport.KindWebSocket, transport.KindLoopback:
	default:
		return fmt.Errorf("unknown transport kind %q", c.Transport.Kind)
	}

	if c.Player.TickInterval <= 0 {
		return errors.New("player.tick_interval must be positive")
	}
	return nil
}

func (c *Config) normalize() {
	c.DBPath = expandHome(c.DBPath)
	c.MediaDir = expandHome(c.MediaDir)
	c.CaptionsDir = expandHome(c.CaptionsDir)
	c.DemoDir = expandHome(c.DemoDir)

	c.Transcriber.Kind = strings.ToLower(strings.TrimSpace(c.Transcriber.Kind))
	c.Transport.Kind = strings.ToLower(strings.TrimSpace(c.Transport.Kind))
	if c.Transport.Kind == string(transport.KindSocket) {
		c.Transport.Address = expandHome(c.Transport.Address)
	}
	if c.Player.Tail < 0 {
		c.Player.Tail = 0
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
