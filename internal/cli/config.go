package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can use "30s"/"2m"
// notation, which yaml.v3 cannot decode into time.Duration directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the optional YAML config file loaded via --config. Flags
// given on the command line win over config file values.
type Config struct {
	Root        string   `yaml:"root"`         // persist root directory
	KeepLast    int      `yaml:"keep_last"`    // default prune retention
	LockTimeout Duration `yaml:"lock_timeout"` // domain lock acquisition timeout
}

// DefaultConfig returns the built-in defaults used when no config file
// is given.
func DefaultConfig() Config {
	return Config{
		Root:        "data",
		KeepLast:    10,
		LockTimeout: Duration(10 * time.Second),
	}
}

// LoadConfig reads and parses a YAML config file, layered over the
// defaults. Unknown keys are rejected to catch typos.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.KeepLast < 0 {
		return Config{}, fmt.Errorf("config %s: keep_last must be >= 0", path)
	}
	if cfg.LockTimeout <= 0 {
		return Config{}, fmt.Errorf("config %s: lock_timeout must be positive", path)
	}
	return cfg, nil
}
