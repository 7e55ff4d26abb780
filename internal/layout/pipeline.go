package layout

import (
	"errors"
	"fmt"
	"image"
	"maps"

	"github.com/rs/zerolog"

	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
)

// Options configures a Pipeline.
type Options struct {
	// Detection tunes the classical detector built by NewClassical. Its
	// CoarseIoU also drives SuppressExternal.
	Detection detection.DetectorOptions

	// SuppressExternal runs the coarse suppression pass over detections
	// handed to AnalyzeDetections.
	SuppressExternal bool

	// ClassMap maps raw labels to names. Nil means DefaultClassMap.
	ClassMap ClassMap

	// ReadingOrder turns reading-order assignment on.
	ReadingOrder bool

	Crops CropOptions

	Logger zerolog.Logger
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		Detection:    detection.DefaultDetectorOptions(),
		ClassMap:     DefaultClassMap(),
		ReadingOrder: true,
		Crops:        DefaultCropOptions(),
		Logger:       zerolog.Nop(),
	}
}

// Pipeline runs a Detector and post-processes its output.
type Pipeline struct {
	detector Detector
	opts     Options
	log      zerolog.Logger
}

// New creates a Pipeline around detector. A nil detector is allowed when
// only AnalyzeDetections will be used.
func New(detector Detector, opts Options) *Pipeline {
	if opts.ClassMap == nil {
		opts.ClassMap = DefaultClassMap()
	}
	return &Pipeline{
		detector: detector,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "layout").Logger(),
	}
}

// NewClassical creates a Pipeline backed by the classical edge detector.
func NewClassical(opts Options) *Pipeline {
	d := opts.Detection
	d.Logger = opts.Logger
	return New(detection.NewClassicalDetector(d), opts)
}

// Options returns the pipeline's configuration.
func (p *Pipeline) Options() Options {
	return p.opts
}

// AnalyzeBytes decodes data and runs Analyze on it.
func (p *Pipeline) AnalyzeBytes(data []byte) (*Result, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return p.Analyze(img)
}

// Analyze detects regions in img and post-processes them. Only an invalid
// image is an error; a failing detector yields zero elements and a warning.
func (p *Pipeline) Analyze(img image.Image) (*Result, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	if p.detector == nil {
		return nil, errors.New("no detector configured")
	}

	var warnings []string
	dets, err := p.detector.Detect(img)
	if err != nil {
		// Detector failures are reported, not raised.
		p.log.Warn().Err(err).Msg("detector failed")
		warnings = append(warnings, fmt.Sprintf("detector_error: %v", err))
		dets = nil
	}

	result := p.finish(img, dets)
	if len(warnings) > 0 {
		result.Warnings = append(warnings, result.Warnings...)
	}
	if d, ok := p.detector.(Describer); ok {
		result.ModelInfo = maps.Clone(d.Info())
	}
	return result, nil
}

// AnalyzeDetections post-processes detections produced elsewhere for img.
// Detections skip candidate generation and splitting; with SuppressExternal
// set they go through the coarse suppression pass first.
func (p *Pipeline) AnalyzeDetections(img image.Image, dets []detection.RawDetection) (*Result, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	if p.opts.SuppressExternal {
		dets = detection.SuppressDetections(dets, p.opts.Detection.CoarseIoU)
	}

	result := p.finish(img, dets)
	result.ModelInfo = map[string]any{
		"detector":          "external",
		"suppress_external": p.opts.SuppressExternal,
	}
	return result, nil
}

func (p *Pipeline) finish(img image.Image, dets []detection.RawDetection) *Result {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	elements := ToElements(dets, w, h, p.opts.ClassMap)
	if p.opts.ReadingOrder {
		AssignReadingOrder(elements)
	}

	warnings := []string{}
	if p.opts.Crops.Enabled && len(elements) > 0 {
		warnings = append(warnings, AttachCrops(elements, img, p.opts.Crops)...)
	}

	p.log.Debug().
		Int("detections", len(dets)).
		Int("elements", len(elements)).
		Int("warnings", len(warnings)).
		Msg("post-processed detections")

	return &Result{
		ImageWidth:  w,
		ImageHeight: h,
		Elements:    elements,
		Warnings:    warnings,
	}
}

func checkImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%w: image has no pixels", ErrInvalidImage)
	}
	return nil
}
