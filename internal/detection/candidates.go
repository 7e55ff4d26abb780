package detection

import (
	"image"

	"github.com/rs/zerolog"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
)

// CandidateOptions controls candidate generation.
type CandidateOptions struct {
	Edge imaging.EdgeOptions

	// MinAreaRatio and MaxAreaRatio bound a region's filled area as a
	// fraction of the image area.
	MinAreaRatio float64
	MaxAreaRatio float64

	// MinAspect and MaxAspect bound width/height, inclusive.
	MinAspect float64
	MaxAspect float64
}

// DefaultCandidateOptions returns the filters tuned for card photos.
func DefaultCandidateOptions() CandidateOptions {
	return CandidateOptions{
		Edge:         imaging.DefaultEdgeOptions(),
		MinAreaRatio: 0.01,
		MaxAreaRatio: 0.9,
		MinAspect:    0.3,
		MaxAspect:    3.5,
	}
}

// Candidate is a region that passed the area and aspect filters.
type Candidate struct {
	Box  geometry.Box `json:"box"`
	Area int          `json:"area"`
}

// GenerateCandidates runs the edge chain over img and returns the external
// regions that look like cards. The order of the result is unspecified.
func GenerateCandidates(img image.Image, opts CandidateOptions) []Candidate {
	maps := imaging.BuildEdgeMaps(img, opts.Edge)
	return FilterRegions(ExternalRegions(maps.Dilated), maps.Dilated.Bounds().Dx(), maps.Dilated.Bounds().Dy(), opts, zerolog.Nop())
}

// FilterRegions applies the area-ratio and aspect filters to regions found
// in a width x height image.
func FilterRegions(regions []Region, width, height int, opts CandidateOptions, log zerolog.Logger) []Candidate {
	total := float64(width * height)
	minArea := total * opts.MinAreaRatio
	maxArea := total * opts.MaxAreaRatio

	var out []Candidate
	for _, r := range regions {
		area := float64(r.Area)
		if area < minArea || area > maxArea {
			continue
		}
		aspect := r.Box.Aspect()
		if aspect < opts.MinAspect || aspect > opts.MaxAspect {
			continue
		}
		out = append(out, Candidate{Box: r.Box, Area: r.Area})
	}

	log.Debug().
		Int("regions", len(regions)).
		Int("retained", len(out)).
		Msg("filtered candidate regions by area and aspect")
	return out
}

// Boxes returns the boxes of cs in order.
func Boxes(cs []Candidate) []geometry.Box {
	out := make([]geometry.Box, len(cs))
	for i, c := range cs {
		out[i] = c.Box
	}
	return out
}
