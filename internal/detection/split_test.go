package detection

import (
	"image"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
)

func newTestSplitter() *Splitter {
	return NewSplitter(DefaultSplitOptions(), zerolog.Nop())
}

func grayOf(img image.Image) *image.Gray {
	return imaging.Intensity(img, imaging.IntensityLuma)
}

func TestSplit_SideBySide(t *testing.T) {
	box := geometry.Box{X: 20, Y: 20, W: 240, H: 104}
	parts := newTestSplitter().Split(grayOf(sideBySideScene()), box)

	require.Len(t, parts, 2)
	cut := parts[0].X + parts[0].W
	assert.Equal(t, cut, parts[1].X, "parts are contiguous")
	assert.True(t, cut > 120 && cut < 160, "cut %d should fall in the gap", cut)
	assert.Equal(t, box.W, parts[0].W+parts[1].W)
	for _, p := range parts {
		assert.True(t, box.Contains(p), "%v escapes %v", p, box)
		assert.Equal(t, box.H, p.H)
	}
	assert.Zero(t, geometry.IoU(parts[0], parts[1]))
}

func TestSplit_Stacked(t *testing.T) {
	box := geometry.Box{X: 20, Y: 20, W: 104, H: 240}
	parts := newTestSplitter().Split(grayOf(stackedScene()), box)

	require.Len(t, parts, 2)
	cut := parts[0].Y + parts[0].H
	assert.Equal(t, cut, parts[1].Y)
	assert.True(t, cut > 120 && cut < 160, "cut %d should fall in the gap", cut)
	for _, p := range parts {
		assert.Equal(t, box.W, p.W)
	}
}

func TestSplit_CardShapedBoxUnchanged(t *testing.T) {
	gray := grayOf(twoCardScene())
	for _, r := range twoCardRects {
		box := geometry.Box{X: r.X - 3, Y: r.Y - 3, W: r.W + 6, H: r.H + 6}
		assert.Equal(t, []geometry.Box{box}, newTestSplitter().Split(gray, box))
	}
}

func TestSplit_BlankRegionUnchanged(t *testing.T) {
	box := geometry.Box{X: 10, Y: 10, W: 240, H: 60}
	parts := newTestSplitter().Split(grayOf(newScene(300, 100, 128)), box)
	assert.Equal(t, []geometry.Box{box}, parts)
}

func TestSplitAt_MaxDepth(t *testing.T) {
	box := geometry.Box{X: 20, Y: 20, W: 240, H: 104}
	gray := grayOf(sideBySideScene())

	s := newTestSplitter()
	assert.Equal(t, []geometry.Box{box}, s.SplitAt(gray, box, 2))

	opts := DefaultSplitOptions()
	opts.MaxDepth = 0
	assert.Equal(t, []geometry.Box{box}, NewSplitter(opts, zerolog.Nop()).Split(gray, box))
}

func TestSplit_TriggerNotReached(t *testing.T) {
	opts := DefaultSplitOptions()
	opts.Trigger = 3
	box := geometry.Box{X: 20, Y: 20, W: 240, H: 104}
	parts := NewSplitter(opts, zerolog.Nop()).Split(grayOf(sideBySideScene()), box)
	assert.Equal(t, []geometry.Box{box}, parts)
}

func TestSplit_ClipsToImage(t *testing.T) {
	gray := grayOf(newScene(50, 50, 128))
	parts := newTestSplitter().Split(gray, geometry.Box{X: 40, Y: 40, W: 30, H: 10})
	require.Len(t, parts, 1)
	assert.Equal(t, geometry.Box{X: 40, Y: 40, W: 10, H: 10}, parts[0])

	outside := geometry.Box{X: 100, Y: 100, W: 10, H: 10}
	assert.Equal(t, []geometry.Box{outside}, newTestSplitter().Split(gray, outside))
}

// Random textures and boxes: recursion terminates, parts stay inside the
// original, and parts never overlap one another.
func TestSplit_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	gray := image.NewGray(image.Rect(0, 0, 160, 160))
	for i := range gray.Pix {
		if rng.Intn(6) == 0 {
			gray.Pix[i] = 255
		}
	}
	// Clean vertical and horizontal bands give the profile real gaps.
	for y := 0; y < 160; y++ {
		for x := 0; x < 160; x++ {
			if (x/20)%3 == 0 || (y/25)%3 == 0 {
				gray.Pix[y*gray.Stride+x] = 0
			}
		}
	}

	s := newTestSplitter()
	for trial := 0; trial < 40; trial++ {
		box := geometry.Box{X: rng.Intn(50), Y: rng.Intn(50), W: 10 + rng.Intn(100), H: 10 + rng.Intn(100)}
		parts := s.Split(gray, box)

		require.NotEmpty(t, parts)
		total := 0
		for i, p := range parts {
			assert.False(t, p.Empty())
			assert.True(t, box.Contains(p), "%v escapes %v", p, box)
			total += p.Area()
			for _, q := range parts[i+1:] {
				assert.Zero(t, geometry.Intersection(p, q))
			}
		}
		assert.Equal(t, box.Area(), total, "parts tile the box")
	}
}

func TestFindCuts(t *testing.T) {
	// Dense edges with one 30-sample gap in the middle.
	profile := make([]float64, 200)
	for i := range profile {
		if i < 85 || i >= 115 {
			profile[i] = 1000
		}
	}

	cuts := FindCuts(profile, 10, 11)
	require.Len(t, cuts, 1)
	assert.InDelta(t, 100, cuts[0], 2)

	// The same gap is too narrow when 20 % of the dimension is required.
	assert.Empty(t, FindCuts(profile, 40, 11))
}

func TestFindCuts_TwoGaps(t *testing.T) {
	profile := make([]float64, 300)
	for i := range profile {
		if !(i >= 90 && i < 120) && !(i >= 190 && i < 220) {
			profile[i] = 500
		}
	}
	cuts := FindCuts(profile, 15, 11)
	require.Len(t, cuts, 2)
	assert.InDelta(t, 104, cuts[0], 2)
	assert.InDelta(t, 204, cuts[1], 2)
}

func TestFindCuts_Empty(t *testing.T) {
	assert.Empty(t, FindCuts(nil, 1, 11))
}

func TestMovingAverage(t *testing.T) {
	got := movingAverage([]float64{3, 3, 3, 3, 3}, 3)
	assert.Equal(t, []float64{2, 3, 3, 3, 2}, got, "edges are zero-padded")

	assert.Equal(t, []float64{1, 2}, movingAverage([]float64{1, 2}, 0))
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5, mean, 1e-12)
	assert.InDelta(t, 2, std, 1e-12)
}

func TestProjection(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 4, 3))
	edges.Pix[0*edges.Stride+1] = 255
	edges.Pix[2*edges.Stride+1] = 255
	edges.Pix[2*edges.Stride+3] = 255

	assert.Equal(t, []float64{0, 510, 0, 255}, Projection(edges, Columns))
	assert.Equal(t, []float64{255, 0, 510}, Projection(edges, Rows))
}
