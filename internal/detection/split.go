package detection

import (
	"image"
	"math"

	"github.com/rs/zerolog"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
)

// Axis selects the direction of a projection profile.
type Axis int

const (
	// Columns sums each column; its cuts separate cards side by side.
	Columns Axis = iota
	// Rows sums each row; its cuts separate stacked cards.
	Rows
)

func (a Axis) String() string {
	if a == Rows {
		return "rows"
	}
	return "columns"
}

// SplitOptions controls the recursive splitter.
type SplitOptions struct {
	// Trigger is the aspect ratio (w/h for vertical cuts, h/w for
	// horizontal) above which a split is attempted.
	Trigger float64

	// MaxDepth bounds recursion. Boxes reached at this depth are returned
	// unchanged.
	MaxDepth int

	// MinSegmentFraction is the narrowest gap worth cutting, as a fraction
	// of the box dimension being cut.
	MinSegmentFraction float64

	// Window is the moving-average width applied to the inverted profile.
	Window int

	// CannyLow and CannyHigh threshold the per-box edge map.
	CannyLow  int
	CannyHigh int
}

// DefaultSplitOptions returns the splitter defaults.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{
		Trigger:            1.2,
		MaxDepth:           2,
		MinSegmentFraction: 0.05,
		Window:             11,
		CannyLow:           50,
		CannyHigh:          150,
	}
}

// Splitter cuts boxes that hold several cards side by side or stacked.
// A Splitter has no mutable state and may be shared between goroutines.
type Splitter struct {
	opts SplitOptions
	log  zerolog.Logger
}

// NewSplitter creates a Splitter.
func NewSplitter(opts SplitOptions, log zerolog.Logger) *Splitter {
	return &Splitter{opts: opts, log: log}
}

// Split subdivides box starting at depth zero. gray is the unblurred
// intensity image the box was found in; box coordinates are relative to
// gray.Bounds().Min.
func (s *Splitter) Split(gray *image.Gray, box geometry.Box) []geometry.Box {
	return s.SplitAt(gray, box, 0)
}

// SplitAt subdivides box starting at the given recursion depth.
//
// A box wider than Trigger times its height is cut into columns at gaps in
// its column edge profile; otherwise a box taller than Trigger times its width
// is cut into rows. Each part recurses at depth+1. A box that reaches
// MaxDepth, matches neither trigger, or shows no gap is returned as-is.
// Every returned box lies inside the original.
func (s *Splitter) SplitAt(gray *image.Gray, box geometry.Box, depth int) []geometry.Box {
	if depth >= s.opts.MaxDepth {
		return []geometry.Box{box}
	}

	b := gray.Bounds()
	clipped := image.Rect(box.X, box.Y, box.X+box.W, box.Y+box.H).Intersect(image.Rect(0, 0, b.Dx(), b.Dy()))
	if clipped.Empty() {
		return []geometry.Box{box}
	}
	box = geometry.Box{X: clipped.Min.X, Y: clipped.Min.Y, W: clipped.Dx(), H: clipped.Dy()}

	aspect := box.Aspect()
	var edges *image.Gray

	if aspect > s.opts.Trigger {
		edges = imaging.Canny(imaging.SubGray(gray, clipped.Add(b.Min)), s.opts.CannyLow, s.opts.CannyHigh)
		if cuts := FindCuts(Projection(edges, Columns), s.opts.MinSegmentFraction*float64(box.W), s.opts.Window); len(cuts) > 0 {
			s.log.Debug().Stringer("box", box).Int("depth", depth).Ints("cuts", cuts).Msg("vertical split")
			return s.recurse(gray, box, Columns, cuts, depth)
		}
	}

	if 1/aspect > s.opts.Trigger {
		if edges == nil {
			edges = imaging.Canny(imaging.SubGray(gray, clipped.Add(b.Min)), s.opts.CannyLow, s.opts.CannyHigh)
		}
		if cuts := FindCuts(Projection(edges, Rows), s.opts.MinSegmentFraction*float64(box.H), s.opts.Window); len(cuts) > 0 {
			s.log.Debug().Stringer("box", box).Int("depth", depth).Ints("cuts", cuts).Msg("horizontal split")
			return s.recurse(gray, box, Rows, cuts, depth)
		}
	}

	return []geometry.Box{box}
}

func (s *Splitter) recurse(gray *image.Gray, box geometry.Box, axis Axis, cuts []int, depth int) []geometry.Box {
	dim := box.W
	if axis == Rows {
		dim = box.H
	}
	edges := make([]int, 0, len(cuts)+2)
	edges = append(edges, 0)
	edges = append(edges, cuts...)
	edges = append(edges, dim)

	var out []geometry.Box
	for i := 0; i+1 < len(edges); i++ {
		lo, hi := edges[i], edges[i+1]
		if hi-lo <= 0 {
			continue
		}
		part := geometry.Box{X: box.X + lo, Y: box.Y, W: hi - lo, H: box.H}
		if axis == Rows {
			part = geometry.Box{X: box.X, Y: box.Y + lo, W: box.W, H: hi - lo}
		}
		out = append(out, s.SplitAt(gray, part, depth+1)...)
	}
	return out
}

// Projection sums edge intensities per column or per row.
func Projection(edges *image.Gray, axis Axis) []float64 {
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()

	var out []float64
	if axis == Rows {
		out = make([]float64, h)
	} else {
		out = make([]float64, w)
	}
	for y := 0; y < h; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+w]
		for x, v := range row {
			if axis == Rows {
				out[y] += float64(v)
			} else {
				out[x] += float64(v)
			}
		}
	}
	return out
}

// FindCuts locates gaps in an edge projection profile and returns the index
// of the middle of each gap.
//
// # Algorithm
//
//  1. Invert: 1 - p/(max(p)+1e-6), so that edge-free stretches score high
//  2. Smooth: moving average of the given width, zero-padded, same length
//  3. Threshold: mean + 0.5 * standard deviation of the smoothed signal
//  4. Group indices strictly above the threshold into contiguous segments
//  5. Keep segments whose span (end - start) is at least minSegment, and
//     return the truncated midpoint of each
//
// Cuts are returned in ascending order.
func FindCuts(profile []float64, minSegment float64, window int) []int {
	if len(profile) == 0 {
		return nil
	}

	peak := 0.0
	for _, v := range profile {
		peak = math.Max(peak, v)
	}
	inv := make([]float64, len(profile))
	for i, v := range profile {
		inv[i] = 1 - v/(peak+1e-6)
	}

	smooth := movingAverage(inv, window)
	mean, std := meanStd(smooth)
	threshold := mean + 0.5*std

	var cuts []int
	start := -1
	flush := func(end int) {
		if start >= 0 && float64(end-start) >= minSegment {
			cuts = append(cuts, (start+end)/2)
		}
		start = -1
	}
	for i, v := range smooth {
		if v > threshold {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i - 1)
	}
	flush(len(smooth) - 1)
	return cuts
}

// movingAverage convolves signal with a box kernel of the given width. The
// output has the same length as the input; samples beyond either end count
// as zero.
func movingAverage(signal []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	n := len(signal)
	out := make([]float64, n)
	for i := range out {
		lo := max(i-window/2, 0)
		hi := min(i+(window-1)/2, n-1)
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += signal[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// meanStd returns the mean and population standard deviation of xs.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, v := range xs {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
