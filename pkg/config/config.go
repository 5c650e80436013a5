// Package config loads the evaluation settings: worker threads, the solid
// kernel, the shape cache and the telemetry outputs. Settings are read
// from YAML over the defaults and validated before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Kernel names.
const (
	KernelBSP      = "bsp"
	KernelSDF      = "sdfx"
	KernelManifold = "manifold"
	KernelNone     = "none"
)

// Config is the complete evaluation configuration.
type Config struct {
	// Threads is the size of the worker pool. Zero selects the sequential
	// evaluator.
	Threads int `yaml:"threads" validate:"gte=0,lte=1024"`

	// Kernel selects the solid kernel; "none" evaluates plain meshes.
	Kernel string `yaml:"kernel" validate:"oneof=bsp sdfx manifold none"`

	Cache   CacheConfig   `yaml:"cache"`
	SDF     SDFConfig     `yaml:"sdf"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// CacheConfig configures the shape cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// Precision is the number of decimal places coordinates are
	// quantized to when fingerprinting.
	Precision int `yaml:"precision" validate:"gte=0,lte=12"`
}

// SDFConfig configures the distance-field kernel.
type SDFConfig struct {
	// MeshCells is the marching-cubes resolution along the longest axis.
	MeshCells int `yaml:"mesh_cells" validate:"gte=8,lte=1024"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" validate:"oneof=console json"`
	// Output is stdout, stderr or a file path.
	Output string `yaml:"output" validate:"required"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"required,excludesall=-."`
}

// TracingConfig configures OpenTelemetry spans.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name" validate:"required"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Threads: 0,
		Kernel:  KernelBSP,
		Cache:   CacheConfig{Enabled: true, Precision: 6},
		SDF:     SDFConfig{MeshCells: 64},
		Log:     LogConfig{Level: "info", Format: "console", Output: "stderr"},
		Metrics: MetricsConfig{Namespace: "facet"},
		Tracing: TracingConfig{ServiceName: "facet"},
	}
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("config: invalid: %w", errors.Join(msgs...))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Parse reads YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: failed to parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return Parse(data)
}
