package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/opd-ai/palmovie/video"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Validation bounds.
const (
	// MinPollInterval is the shortest loop sleep in milliseconds.
	MinPollInterval = 1
	// MaxPollInterval is the longest loop sleep in milliseconds.
	MaxPollInterval = 1000
	// MinMusicVolume is the quietest music volume.
	MinMusicVolume = 0
	// MaxMusicVolume is the loudest music volume.
	MaxMusicVolume = 255
)

// ErrInvalidConfig indicates a configuration value outside its bounds.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the player settings.
type Config struct {
	PollIntervalMs int                `yaml:"poll_interval_ms"`
	MusicVolume    int                `yaml:"music_volume"`
	SubtitleDir    string             `yaml:"subtitle_dir"`
	SubtitleColor  video.RGB          `yaml:"subtitle_color"`
	LogLevel       string             `yaml:"log_level"`
	Workarounds    []video.Workaround `yaml:"workarounds"`
}

// Default returns the built-in settings.
//
// Default Value Rationale:
//   - PollIntervalMs: 10 - keeps input latency low without spinning
//   - MusicVolume: 192 - three quarters of full scale
//   - SubtitleColor: yellow (255, 255, 0), readable over most movie palettes
//   - LogLevel: "info"
func Default() *Config {
	return &Config{
		PollIntervalMs: 10,
		MusicVolume:    192,
		SubtitleColor:  video.RGB{R: 255, G: 255, B: 0},
		LogLevel:       logrus.InfoLevel.String(),
	}
}

// PollInterval returns the loop sleep as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// WorkaroundTable returns the built-in defect table followed by the
// configured entries.
func (c *Config) WorkaroundTable() video.WorkaroundTable {
	return append(video.DefaultWorkarounds(), c.Workarounds...)
}

// Validate checks every field against its bounds.
func (c *Config) Validate() error {
	if c.PollIntervalMs < MinPollInterval || c.PollIntervalMs > MaxPollInterval {
		return fmt.Errorf("%w: poll_interval_ms %d outside [%d,%d]",
			ErrInvalidConfig, c.PollIntervalMs, MinPollInterval, MaxPollInterval)
	}
	if c.MusicVolume < MinMusicVolume || c.MusicVolume > MaxMusicVolume {
		return fmt.Errorf("%w: music_volume %d outside [%d,%d]",
			ErrInvalidConfig, c.MusicVolume, MinMusicVolume, MaxMusicVolume)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, w := range c.Workarounds {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", path, err)
		}
		defer f.Close()

		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	ApplyEnvironment(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":         "Load",
		"path":             path,
		"poll_interval_ms": cfg.PollIntervalMs,
		"music_volume":     cfg.MusicVolume,
		"subtitle_dir":     cfg.SubtitleDir,
		"log_level":        cfg.LogLevel,
		"workarounds":      len(cfg.Workarounds),
	}).Info("Configuration loaded")

	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
