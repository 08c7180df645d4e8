// Package config holds the counter's settings and loads them from an
// optional YAML file. Command-line flags take precedence over the file.
package config

import (
	"time"
)

// ValidBackends lists the recording backend names accepted in config.
var ValidBackends = []string{"auto", "pw-record", "arecord", "ffmpeg"}

type Config struct {
	Model        string        `yaml:"model"`
	ModelDir     string        `yaml:"model_dir"`
	Language     string        `yaml:"language"`
	AutoDownload bool          `yaml:"auto_download"`
	Backend      string        `yaml:"backend"`
	Input        string        `yaml:"input"`
	InputFormat  string        `yaml:"input_format"`
	Chunk        time.Duration `yaml:"chunk"`
	SilenceGate  bool          `yaml:"silence_gate"`
	SilenceDBFS  float64       `yaml:"silence_threshold_dbfs"`

	Cooldown  time.Duration `yaml:"cooldown"`
	Threshold float64       `yaml:"threshold"`
	HTMLPath  string        `yaml:"html_path"`
	DataPath  string        `yaml:"data_path"`
	Resume    bool          `yaml:"resume"`

	MetricsAddr string    `yaml:"metrics_addr"`
	Log         LogConfig `yaml:"log"`
}

type LogConfig struct {
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
	Quiet   bool `yaml:"quiet"`
}

// Default returns the built-in settings. The file loader decodes on top of
// these, so keys missing from the file keep their default.
func Default() Config {
	return Config{
		Model:        "base",
		Language:     "en",
		AutoDownload: true,
		Backend:      "auto",
		Chunk:        4 * time.Second,
		SilenceGate:  true,
		SilenceDBFS:  -55,
		Cooldown:     2 * time.Second,
		Threshold:    0.6,
		HTMLPath:     "jabroni_counter.html",
		DataPath:     "jabroni_data.json",
	}
}
