package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"
)

var validate = validator.New()

// appName names log files, temp files, and debug reports when nothing more
// specific is available.
const appName = "tsvr"

type (
	// WatchConfig tunes the filesystem watcher that feeds the compile actor.
	WatchConfig struct {
		DebounceMillis int      `yaml:"debounce_millis" validate:"min=0"`
		Paths          []string `yaml:"paths" validate:"dive,required"`
	}

	// RenderConfig selects which backend(s) a compile drives output through
	// and at what pixel density the raster/DOM paths render.
	RenderConfig struct {
		Target     RenderTarget `yaml:"target" validate:"gte=0"`
		PixelPerPt float64      `yaml:"pixel_per_pt" validate:"gt=0"`
	}

	// IncrementalConfig tunes the builder's generational GC.
	IncrementalConfig struct {
		GCThreshold int64 `yaml:"gc_threshold" validate:"min=0"`
	}

	Config struct {
		Version     int               `yaml:"version" validate:"eq=1"`
		Watch       WatchConfig       `yaml:"watch"`
		Render      RenderConfig      `yaml:"render"`
		Incremental IncrementalConfig `yaml:"incremental"`
		Logging     LoggingConfig     `yaml:"logging"`
		Reporting   ReporterConfig    `yaml:"reporting"`
	}
)

// Default returns the configuration used when no file is supplied: a
// reasonable standalone-compile default (no watch paths, SVG target, console
// logging at the "normal" level).
func Default() *Config {
	return &Config{
		Version: 1,
		Render: RenderConfig{
			Target:     RenderTargetSvg,
			PixelPerPt: 1.0,
		},
		Incremental: IncrementalConfig{GCThreshold: 4},
		Logging: LoggingConfig{
			ConsoleLogger: LoggerConfig{Level: "normal"},
		},
	}
}

// LoadConfiguration reads the configuration from path, starting from
// Default() and overwriting it with whatever the file specifies. An empty
// path returns the default configuration unchanged.
func LoadConfiguration(path string) (*Config, error) {
	cfg := Default()
	if len(path) == 0 {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Strict decoding: unknown fields in the file are a configuration error,
	// not silently ignored.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration file: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Dump renders cfg back to YAML, e.g. for `tsvr dumpconfig`.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
