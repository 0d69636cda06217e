package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Environment variable names.
const (
	EnvPollInterval = "PALMOVIE_POLL_INTERVAL_MS"
	EnvMusicVolume  = "PALMOVIE_MUSIC_VOLUME"
	EnvSubtitleDir  = "PALMOVIE_SUBTITLE_DIR"
	EnvLogLevel     = "PALMOVIE_LOG_LEVEL"
)

// ApplyEnvironment overrides cfg with PALMOVIE_* variables. Values that fail
// to parse or fall outside their bounds are logged and ignored.
func ApplyEnvironment(cfg *Config) {
	parseIntSetting(EnvPollInterval, &cfg.PollIntervalMs, MinPollInterval, MaxPollInterval)
	parseIntSetting(EnvMusicVolume, &cfg.MusicVolume, MinMusicVolume, MaxMusicVolume)
	if dir := os.Getenv(EnvSubtitleDir); dir != "" {
		cfg.SubtitleDir = dir
	}
	parseLevelSetting(cfg)
}

// parseIntSetting updates *target from the integer variable name when the
// value parses and lies within [lo, hi].
func parseIntSetting(name string, target *int, lo, hi int) {
	raw := os.Getenv(name)
	if raw == "" {
		return
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseIntSetting",
			"env_var":     name,
			"value":       raw,
			"error":       err.Error(),
			"using_value": *target,
		}).Warn("Failed to parse environment variable, using default")
		return
	}
	if value < lo || value > hi {
		logrus.WithFields(logrus.Fields{
			"function":    "parseIntSetting",
			"env_var":     name,
			"value":       value,
			"min":         lo,
			"max":         hi,
			"using_value": *target,
		}).Warn("Environment variable out of bounds, using default")
		return
	}
	*target = value
}

// parseLevelSetting updates LogLevel from PALMOVIE_LOG_LEVEL when it names a
// logrus level.
func parseLevelSetting(cfg *Config) {
	raw := os.Getenv(EnvLogLevel)
	if raw == "" {
		return
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseLevelSetting",
			"env_var":     EnvLogLevel,
			"value":       raw,
			"error":       err.Error(),
			"using_value": cfg.LogLevel,
		}).Warn("Failed to parse log level, using default")
		return
	}
	cfg.LogLevel = level.String()
}
