package model

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
)

// DefaultConfidence is the minimum score requested from the service.
const DefaultConfidence = 0.25

// DetectorOptions configures a RemoteDetector.
type DetectorOptions struct {
	// Variant names the model; see ResolveModelID.
	Variant string `json:"variant" yaml:"variant" mapstructure:"variant"`

	// Confidence is forwarded to the service as its score threshold.
	Confidence float64 `json:"confidence" yaml:"confidence" mapstructure:"confidence"`

	Logger zerolog.Logger `json:"-" yaml:"-" mapstructure:"-"`
}

// DefaultDetectorOptions returns the remote detector defaults.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		Confidence: DefaultConfidence,
		Logger:     zerolog.Nop(),
	}
}

// RemoteDetector detects cards through an external inference service.
// Models are resolved through a shared Cache so each variant's metadata is
// fetched once per process.
type RemoteDetector struct {
	client *Client
	cache  *Cache
	opts   DetectorOptions
	log    zerolog.Logger
}

// NewRemoteDetector creates a detector using client for inference and cache
// for model metadata.
func NewRemoteDetector(client *Client, cache *Cache, opts DetectorOptions) *RemoteDetector {
	return &RemoteDetector{
		client: client,
		cache:  cache,
		opts:   opts,
		log:    opts.Logger.With().Str("component", "remote-detector").Logger(),
	}
}

// ModelID returns the resolved model id.
func (d *RemoteDetector) ModelID() string {
	return ResolveModelID(d.opts.Variant)
}

// Detect implements layout.Detector.
func (d *RemoteDetector) Detect(img image.Image) ([]detection.RawDetection, error) {
	return d.DetectContext(context.Background(), img)
}

// DetectContext sends img to the service and maps class ids to labels with
// the model's class map.
func (d *RemoteDetector) DetectContext(ctx context.Context, img image.Image) ([]detection.RawDetection, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}

	m, err := d.cache.Get(ctx, d.opts.Variant)
	if err != nil {
		return nil, fmt.Errorf("model_load_error: %w", err)
	}

	data, _, err := imaging.Encode(img, "jpeg", imaging.DefaultJPEGQuality)
	if err != nil {
		return nil, err
	}

	dets, err := d.client.Predict(ctx, m.ID, data, d.opts.Confidence)
	if err != nil {
		return nil, err
	}

	for i := range dets {
		dets[i].Label = m.ClassMap.Lookup(dets[i].Label)
	}
	d.log.Debug().Str("model", m.ID).Int("detections", len(dets)).Msg("remote inference done")
	return dets, nil
}

// Info implements layout.Describer.
func (d *RemoteDetector) Info() map[string]any {
	return map[string]any{
		"detector":   "remote",
		"model_id":   d.ModelID(),
		"confidence": d.opts.Confidence,
		"url":        d.client.URL(),
	}
}
