// Package config loads server configuration from defaults, an optional YAML
// file, a .env file and CARD_REGIONS_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
	"github.com/ironsheep/card-regions-mcp/internal/layout"
	"github.com/ironsheep/card-regions-mcp/internal/logging"
	"github.com/ironsheep/card-regions-mcp/internal/model"
	"github.com/ironsheep/card-regions-mcp/internal/ocr"
)

// Detector backends.
const (
	DetectorClassical = "classical"
	DetectorRemote    = "remote"
)

// Config is the complete server configuration.
type Config struct {
	// Detector selects the backend: "classical" or "remote".
	Detector string `yaml:"detector" mapstructure:"detector"`

	Detection DetectionConfig `yaml:"detection" mapstructure:"detection"`
	Layout    LayoutConfig    `yaml:"layout" mapstructure:"layout"`
	Remote    RemoteConfig    `yaml:"remote" mapstructure:"remote"`
	OCR       ocr.Options     `yaml:"ocr" mapstructure:"ocr"`
	Log       logging.Config  `yaml:"log" mapstructure:"log"`
}

// DetectionConfig tunes the classical detector.
type DetectionConfig struct {
	Intensity    string  `yaml:"intensity" mapstructure:"intensity"`
	BlurRadius   float64 `yaml:"blur_radius" mapstructure:"blur_radius"`
	CannyLow     int     `yaml:"canny_low" mapstructure:"canny_low"`
	CannyHigh    int     `yaml:"canny_high" mapstructure:"canny_high"`
	DilateRadius float64 `yaml:"dilate_radius" mapstructure:"dilate_radius"`

	MinAreaRatio float64 `yaml:"min_area_ratio" mapstructure:"min_area_ratio"`
	MaxAreaRatio float64 `yaml:"max_area_ratio" mapstructure:"max_area_ratio"`
	MinAspect    float64 `yaml:"min_aspect" mapstructure:"min_aspect"`
	MaxAspect    float64 `yaml:"max_aspect" mapstructure:"max_aspect"`

	CoarseIoU float64 `yaml:"coarse_iou" mapstructure:"coarse_iou"`
	FineIoU   float64 `yaml:"fine_iou" mapstructure:"fine_iou"`

	Split           bool    `yaml:"split" mapstructure:"split"`
	SplitTrigger    float64 `yaml:"split_trigger" mapstructure:"split_trigger"`
	SplitMaxDepth   int     `yaml:"split_max_depth" mapstructure:"split_max_depth"`
	SplitMinSegment float64 `yaml:"split_min_segment" mapstructure:"split_min_segment"`
	SplitWindow     int     `yaml:"split_window" mapstructure:"split_window"`
}

// LayoutConfig controls post-processing.
type LayoutConfig struct {
	ReadingOrder     bool               `yaml:"reading_order" mapstructure:"reading_order"`
	SuppressExternal bool               `yaml:"suppress_external" mapstructure:"suppress_external"`
	ClassMap         map[string]string  `yaml:"class_map" mapstructure:"class_map"`
	Crops            layout.CropOptions `yaml:"crops" mapstructure:"crops"`
}

// RemoteConfig points at an external inference service.
type RemoteConfig struct {
	URL        string        `yaml:"url" mapstructure:"url"`
	Variant    string        `yaml:"variant" mapstructure:"variant"`
	Confidence float64       `yaml:"confidence" mapstructure:"confidence"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Attempts   uint          `yaml:"attempts" mapstructure:"attempts"`
	Delay      time.Duration `yaml:"delay" mapstructure:"delay"`
}

// Default returns the built-in configuration. Every value mirrors the
// defaults of the package that consumes it.
func Default() *Config {
	det := detection.DefaultDetectorOptions()
	edge := det.Candidates.Edge
	crops := layout.DefaultCropOptions()
	client := model.DefaultClientOptions()
	remote := model.DefaultDetectorOptions()

	return &Config{
		Detector: DetectorClassical,
		Detection: DetectionConfig{
			Intensity:       string(edge.Intensity),
			BlurRadius:      edge.BlurRadius,
			CannyLow:        edge.LowThreshold,
			CannyHigh:       edge.HighThreshold,
			DilateRadius:    edge.DilateRadius,
			MinAreaRatio:    det.Candidates.MinAreaRatio,
			MaxAreaRatio:    det.Candidates.MaxAreaRatio,
			MinAspect:       det.Candidates.MinAspect,
			MaxAspect:       det.Candidates.MaxAspect,
			CoarseIoU:       det.CoarseIoU,
			FineIoU:         det.FineIoU,
			Split:           det.SplitEnabled,
			SplitTrigger:    det.Split.Trigger,
			SplitMaxDepth:   det.Split.MaxDepth,
			SplitMinSegment: det.Split.MinSegmentFraction,
			SplitWindow:     det.Split.Window,
		},
		Layout: LayoutConfig{
			ReadingOrder: true,
			ClassMap:     layout.DefaultClassMap(),
			Crops:        crops,
		},
		Remote: RemoteConfig{
			URL:        client.URL,
			Variant:    remote.Variant,
			Confidence: remote.Confidence,
			Timeout:    client.Timeout,
			Attempts:   client.Attempts,
			Delay:      client.Delay,
		},
		OCR: ocr.DefaultOptions(),
		Log: logging.DefaultConfig(),
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Detector {
	case DetectorClassical, DetectorRemote:
	default:
		add("detector must be %q or %q, got %q", DetectorClassical, DetectorRemote, c.Detector)
	}

	d := c.Detection
	if _, err := imaging.ParseIntensityMode(d.Intensity); err != nil {
		errs = append(errs, fmt.Errorf("detection.intensity: %w", err))
	}
	if d.CannyLow < 0 || d.CannyHigh > 255 || d.CannyLow > d.CannyHigh {
		add("detection.canny_low/canny_high must satisfy 0 <= low <= high <= 255, got %d/%d", d.CannyLow, d.CannyHigh)
	}
	if d.MinAreaRatio < 0 || d.MaxAreaRatio > 1 || d.MinAreaRatio > d.MaxAreaRatio {
		add("detection area ratios must satisfy 0 <= min <= max <= 1, got %g/%g", d.MinAreaRatio, d.MaxAreaRatio)
	}
	if d.MinAspect <= 0 || d.MinAspect > d.MaxAspect {
		add("detection aspect bounds must satisfy 0 < min <= max, got %g/%g", d.MinAspect, d.MaxAspect)
	}
	for name, v := range map[string]float64{"coarse_iou": d.CoarseIoU, "fine_iou": d.FineIoU} {
		if v < 0 || v > 1 {
			add("detection.%s must be within [0, 1], got %g", name, v)
		}
	}
	if d.SplitTrigger <= 1 {
		add("detection.split_trigger must be > 1, got %g", d.SplitTrigger)
	}
	if d.SplitMaxDepth < 0 {
		add("detection.split_max_depth must be >= 0, got %d", d.SplitMaxDepth)
	}
	if d.SplitWindow < 1 {
		add("detection.split_window must be >= 1, got %d", d.SplitWindow)
	}

	if _, err := imaging.ParseCropFormat(c.Layout.Crops.Format); err != nil {
		errs = append(errs, fmt.Errorf("layout.crops.format: %w", err))
	}
	if c.Layout.Crops.Padding < 0 {
		add("layout.crops.padding must be >= 0, got %g", c.Layout.Crops.Padding)
	}

	if c.Detector == DetectorRemote && c.Remote.URL == "" {
		add("remote.url is required when detector is %q", DetectorRemote)
	}
	if c.Remote.Confidence < 0 || c.Remote.Confidence > 1 {
		add("remote.confidence must be within [0, 1], got %g", c.Remote.Confidence)
	}

	return errors.Join(errs...)
}

// DetectorOptions converts the detection section for the classical
// detector.
func (c *Config) DetectorOptions(log zerolog.Logger) detection.DetectorOptions {
	d := c.Detection
	opts := detection.DefaultDetectorOptions()

	mode, err := imaging.ParseIntensityMode(d.Intensity)
	if err == nil {
		opts.Candidates.Edge.Intensity = mode
	}
	opts.Candidates.Edge.BlurRadius = d.BlurRadius
	opts.Candidates.Edge.LowThreshold = d.CannyLow
	opts.Candidates.Edge.HighThreshold = d.CannyHigh
	opts.Candidates.Edge.DilateRadius = d.DilateRadius
	opts.Candidates.MinAreaRatio = d.MinAreaRatio
	opts.Candidates.MaxAreaRatio = d.MaxAreaRatio
	opts.Candidates.MinAspect = d.MinAspect
	opts.Candidates.MaxAspect = d.MaxAspect
	opts.CoarseIoU = d.CoarseIoU
	opts.FineIoU = d.FineIoU
	opts.SplitEnabled = d.Split
	opts.Split.Trigger = d.SplitTrigger
	opts.Split.MaxDepth = d.SplitMaxDepth
	opts.Split.MinSegmentFraction = d.SplitMinSegment
	opts.Split.Window = d.SplitWindow
	opts.Split.CannyLow = d.CannyLow
	opts.Split.CannyHigh = d.CannyHigh
	opts.Logger = log
	return opts
}

// Pipeline converts the configuration to pipeline options.
func (c *Config) Pipeline(log zerolog.Logger) layout.Options {
	opts := layout.DefaultOptions()
	opts.Detection = c.DetectorOptions(log)
	opts.SuppressExternal = c.Layout.SuppressExternal
	opts.ReadingOrder = c.Layout.ReadingOrder
	opts.Crops = c.Layout.Crops
	if len(c.Layout.ClassMap) > 0 {
		opts.ClassMap = layout.ClassMap(c.Layout.ClassMap)
	}
	opts.Logger = log
	return opts
}

// ClientOptions converts the remote section for the inference client.
func (c *Config) ClientOptions(log zerolog.Logger) model.ClientOptions {
	return model.ClientOptions{
		URL:      c.Remote.URL,
		Timeout:  c.Remote.Timeout,
		Attempts: c.Remote.Attempts,
		Delay:    c.Remote.Delay,
		Logger:   log,
	}
}

// RemoteDetectorOptions converts the remote section for the remote
// detector.
func (c *Config) RemoteDetectorOptions(log zerolog.Logger) model.DetectorOptions {
	return model.DetectorOptions{
		Variant:    c.Remote.Variant,
		Confidence: c.Remote.Confidence,
		Logger:     log,
	}
}
