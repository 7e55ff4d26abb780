package detection

import (
	"errors"
	"image"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
)

// DetectorOptions configures the classical detector.
type DetectorOptions struct {
	Candidates CandidateOptions
	Split      SplitOptions

	// CoarseIoU is the suppression threshold applied to raw candidates,
	// FineIoU the one applied after splitting.
	CoarseIoU float64
	FineIoU   float64

	// SplitEnabled turns on the recursive splitter.
	SplitEnabled bool

	// Confidence is attached to every emitted detection. Edge analysis has
	// no score of its own.
	Confidence float64

	Logger zerolog.Logger
}

// DefaultDetectorOptions returns the classical detector defaults.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		Candidates:   DefaultCandidateOptions(),
		Split:        DefaultSplitOptions(),
		CoarseIoU:    DefaultCoarseIoU,
		FineIoU:      DefaultFineIoU,
		SplitEnabled: true,
		Confidence:   1.0,
		Logger:       zerolog.Nop(),
	}
}

// ClassicalDetector finds cards from edge structure alone.
// It holds no per-image state; concurrent Detect calls are safe.
type ClassicalDetector struct {
	opts     DetectorOptions
	splitter *Splitter
	log      zerolog.Logger
}

// NewClassicalDetector creates a detector with the given options.
func NewClassicalDetector(opts DetectorOptions) *ClassicalDetector {
	log := opts.Logger.With().Str("detector", "classical").Logger()
	return &ClassicalDetector{
		opts:     opts,
		splitter: NewSplitter(opts.Split, log),
		log:      log,
	}
}

// Name identifies the detector in result metadata.
func (d *ClassicalDetector) Name() string { return "classical" }

// Info describes the detector's tuning for result metadata.
func (d *ClassicalDetector) Info() map[string]any {
	c := d.opts.Candidates
	return map[string]any{
		"detector":        d.Name(),
		"intensity":       string(c.Edge.Intensity),
		"canny":           []int{c.Edge.LowThreshold, c.Edge.HighThreshold},
		"area_ratio":      []float64{c.MinAreaRatio, c.MaxAreaRatio},
		"aspect":          []float64{c.MinAspect, c.MaxAspect},
		"coarse_iou":      d.opts.CoarseIoU,
		"fine_iou":        d.opts.FineIoU,
		"split":           d.opts.SplitEnabled,
		"split_trigger":   d.opts.Split.Trigger,
		"split_max_depth": d.opts.Split.MaxDepth,
	}
}

// Detect returns one "Card" detection per region, ordered top-to-bottom
// then left-to-right. An image with no cards yields an empty slice.
func (d *ClassicalDetector) Detect(img image.Image) ([]RawDetection, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	boxes := d.DetectBoxes(img)
	out := make([]RawDetection, len(boxes))
	for i, b := range boxes {
		out[i] = FromBox(b, CardLabel, d.opts.Confidence)
	}
	return out, nil
}

// DetectBoxes runs candidates, coarse suppression, splitting and fine
// suppression, and returns the boxes sorted by (y, x).
func (d *ClassicalDetector) DetectBoxes(img image.Image) []geometry.Box {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil
	}

	maps := imaging.BuildEdgeMaps(img, d.opts.Candidates.Edge)
	regions := ExternalRegions(maps.Dilated)
	d.log.Debug().
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("regions", len(regions)).
		Msg("found external regions")

	candidates := FilterRegions(regions, bounds.Dx(), bounds.Dy(), d.opts.Candidates, d.log)
	boxes := Suppress(Boxes(candidates), d.opts.CoarseIoU)

	if d.opts.SplitEnabled {
		var split []geometry.Box
		for _, b := range boxes {
			split = append(split, d.splitter.Split(maps.Gray, b)...)
		}
		boxes = split
	}

	final := Suppress(boxes, d.opts.FineIoU)
	SortReadingOrder(final)

	d.log.Debug().
		Int("candidates", len(candidates)).
		Int("final", len(final)).
		Msg("classical detection complete")
	return final
}

// SortReadingOrder sorts boxes by top edge, then left edge.
func SortReadingOrder(boxes []geometry.Box) {
	sort.SliceStable(boxes, func(i, j int) bool {
		if boxes[i].Y != boxes[j].Y {
			return boxes[i].Y < boxes[j].Y
		}
		return boxes[i].X < boxes[j].X
	})
}
