package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/portrait-fx/pkg/composite"
	"github.com/menta2k/portrait-fx/pkg/effects"
	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/warp"
)

// Config holds the application configuration
type Config struct {
	Warp      WarpConfig      `json:"warp"`
	Mask      MaskConfig      `json:"mask"`
	Composite CompositeConfig `json:"composite"`
	Output    OutputConfig    `json:"output"`
	LogLevel  string          `json:"log_level"`
}

// WarpConfig holds configuration for warp point placement and evaluation
type WarpConfig struct {
	CheekRadiusFactor float64 `json:"cheek_radius_factor"`
	EyeRadiusFactor   float64 `json:"eye_radius_factor"`
	ChinRadiusFactor  float64 `json:"chin_radius_factor"`
	IncludeChin       bool    `json:"include_chin"`
	SlimIntensity     float64 `json:"slim_intensity"`
	EyeIntensity      float64 `json:"eye_intensity"`
	ChinIntensity     float64 `json:"chin_intensity"`
	PushStrength      float64 `json:"push_strength"`
	EdgeMargin        float64 `json:"edge_margin"`
}

// MaskConfig holds configuration for mask generation
type MaskConfig struct {
	Kind       string  `json:"kind"`
	Threshold  float32 `json:"threshold"`
	AlphaColor string  `json:"alpha_color"`
}

// CompositeConfig holds configuration for the compositing effects
type CompositeConfig struct {
	BlurRadius         float64 `json:"blur_radius"`
	GradientMaxBlur    float64 `json:"gradient_max_blur"`
	GlowRadius         float64 `json:"glow_radius"`
	GlowNoiseThreshold uint8   `json:"glow_noise_threshold"`
	GlowColor          string  `json:"glow_color"`
	Workers            int     `json:"workers"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format"`
	OutputDir     string `json:"output_dir"`
	Prefix        string `json:"prefix"`
	Suffix        string `json:"suffix"`
	Quality       int    `json:"quality"`
	Lossless      bool   `json:"lossless"`
}

// Default returns a configuration with default values
func Default() *Config {
	gen := warp.DefaultGeneratorConfig()
	eval := warp.DefaultEvaluatorConfig()
	comp := composite.DefaultConfig()

	return &Config{
		Warp: WarpConfig{
			CheekRadiusFactor: gen.CheekRadiusFactor,
			EyeRadiusFactor:   gen.EyeRadiusFactor,
			ChinRadiusFactor:  gen.ChinRadiusFactor,
			IncludeChin:       gen.IncludeChin,
			SlimIntensity:     gen.SlimIntensity,
			EyeIntensity:      gen.EyeIntensity,
			ChinIntensity:     gen.ChinIntensity,
			PushStrength:      eval.PushStrength,
			EdgeMargin:        eval.EdgeMargin,
		},
		Mask: MaskConfig{
			Kind:       mask.Soft.String(),
			Threshold:  0.5,
			AlphaColor: "#ffffff",
		},
		Composite: CompositeConfig{
			BlurRadius:         comp.BlurRadius,
			GradientMaxBlur:    comp.GradientMaxBlur,
			GlowRadius:         comp.GlowRadius,
			GlowNoiseThreshold: comp.GlowNoiseThreshold,
			GlowColor:          "#ffffff",
			Workers:            0,
		},
		Output: OutputConfig{
			DefaultFormat: "jpg",
			OutputDir:     "./output",
			Prefix:        "",
			Suffix:        "_fx",
			Quality:       90,
		},
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"warp.cheek_radius_factor": c.Warp.CheekRadiusFactor,
		"warp.eye_radius_factor":   c.Warp.EyeRadiusFactor,
		"warp.chin_radius_factor":  c.Warp.ChinRadiusFactor,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1]", name)
		}
	}

	for name, v := range map[string]float64{
		"warp.slim_intensity": c.Warp.SlimIntensity,
		"warp.eye_intensity":  c.Warp.EyeIntensity,
		"warp.chin_intensity": c.Warp.ChinIntensity,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}

	if c.Warp.PushStrength <= 0 || c.Warp.PushStrength > 1 {
		return fmt.Errorf("warp.push_strength must be in (0, 1]")
	}

	if c.Warp.EdgeMargin < 0 || c.Warp.EdgeMargin >= 0.5 {
		return fmt.Errorf("warp.edge_margin must be in [0, 0.5)")
	}

	if _, err := mask.ParseKind(c.Mask.Kind); err != nil {
		return fmt.Errorf("mask.kind: %w", err)
	}

	if c.Mask.Threshold < 0 || c.Mask.Threshold > 1 {
		return fmt.Errorf("mask.threshold must be between 0 and 1")
	}

	if _, err := ParseColor(c.Mask.AlphaColor); err != nil {
		return fmt.Errorf("mask.alpha_color: %w", err)
	}

	if c.Composite.BlurRadius < 0 || c.Composite.GradientMaxBlur < 0 || c.Composite.GlowRadius < 0 {
		return fmt.Errorf("composite blur radii cannot be negative")
	}

	if _, err := ParseColor(c.Composite.GlowColor); err != nil {
		return fmt.Errorf("composite.glow_color: %w", err)
	}

	if c.Composite.Workers < 0 {
		return fmt.Errorf("composite.workers cannot be negative")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch c.Output.DefaultFormat {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.default_format must be jpg, png or webp")
	}

	return nil
}

// ParseColor parses a hex color such as "#ff8800" into an opaque NRGBA
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// Effects converts the configuration into session engine settings
func (c *Config) Effects() (effects.Config, error) {
	if err := c.Validate(); err != nil {
		return effects.Config{}, err
	}

	alpha, _ := ParseColor(c.Mask.AlphaColor)
	glow, _ := ParseColor(c.Composite.GlowColor)

	return effects.Config{
		Generator: warp.GeneratorConfig{
			CheekRadiusFactor: c.Warp.CheekRadiusFactor,
			EyeRadiusFactor:   c.Warp.EyeRadiusFactor,
			ChinRadiusFactor:  c.Warp.ChinRadiusFactor,
			SlimIntensity:     c.Warp.SlimIntensity,
			EyeIntensity:      c.Warp.EyeIntensity,
			ChinIntensity:     c.Warp.ChinIntensity,
			IncludeChin:       c.Warp.IncludeChin,
		},
		Evaluator: warp.EvaluatorConfig{
			PushStrength: c.Warp.PushStrength,
			EdgeMargin:   c.Warp.EdgeMargin,
			Workers:      c.Composite.Workers,
		},
		Mask: mask.Options{
			Threshold: c.Mask.Threshold,
			Color:     alpha,
		},
		Compositor: composite.Config{
			BlurRadius:         c.Composite.BlurRadius,
			GradientMaxBlur:    c.Composite.GradientMaxBlur,
			GlowRadius:         c.Composite.GlowRadius,
			GlowNoiseThreshold: c.Composite.GlowNoiseThreshold,
			GlowColor:          glow,
			Workers:            c.Composite.Workers,
		},
	}, nil
}

// MaskKind returns the configured mask representation
func (c *Config) MaskKind() mask.Kind {
	kind, err := mask.ParseKind(c.Mask.Kind)
	if err != nil {
		return mask.Soft
	}
	return kind
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "portrait-fx", "config.json")
}
