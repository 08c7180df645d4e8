package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

// Load reads and validates the YAML file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r on top of Default. Unknown keys are
// rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem in cfg at once.
func Validate(cfg Config) error {
	var errs []error

	if math.IsNaN(cfg.Threshold) || cfg.Threshold < 0 || cfg.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %.2f must be within [0, 1]", cfg.Threshold))
	}
	if cfg.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown %s must not be negative", cfg.Cooldown))
	}
	if cfg.Chunk <= 0 {
		errs = append(errs, fmt.Errorf("chunk %s must be positive", cfg.Chunk))
	}
	if cfg.Backend != "" && !slices.Contains(ValidBackends, cfg.Backend) {
		errs = append(errs, fmt.Errorf("backend %q is unknown; valid values: %v", cfg.Backend, ValidBackends))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// ValidateSinks checks the settings only a running counter needs.
func ValidateSinks(cfg Config) error {
	if cfg.HTMLPath == "" && cfg.DataPath == "" {
		return fmt.Errorf("%w: at least one of html_path and data_path must be set", ErrInvalid)
	}
	return nil
}
