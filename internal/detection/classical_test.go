package detection

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
)

func TestClassicalDetector_TwoCards(t *testing.T) {
	d := NewClassicalDetector(DefaultDetectorOptions())

	dets, err := d.Detect(twoCardScene())
	require.NoError(t, err)
	require.Len(t, dets, 2)

	for i, det := range dets {
		assert.Equal(t, CardLabel, det.Label)
		assert.Equal(t, 1.0, det.Confidence)

		got := geometry.Box{
			X: int(det.BBox[0]), Y: int(det.BBox[1]),
			W: int(det.BBox[2] - det.BBox[0]), H: int(det.BBox[3] - det.BBox[1]),
		}
		assert.True(t, near(got, twoCardRects[i], 4), "detection %d = %v, want near %v", i, got, twoCardRects[i])
	}
}

func TestClassicalDetector_SleeveIsSplit(t *testing.T) {
	boxes := NewClassicalDetector(DefaultDetectorOptions()).DetectBoxes(sleeveScene())

	require.Len(t, boxes, 2)
	assert.Less(t, boxes[0].X, boxes[1].X, "sorted left to right on the same row")
	assert.Equal(t, boxes[0].Y, boxes[1].Y)
	assert.Zero(t, geometry.IoU(boxes[0], boxes[1]))

	cut := boxes[0].X + boxes[0].W
	assert.True(t, cut > 130 && cut < 170, "cut %d should fall between the card faces", cut)
}

func TestClassicalDetector_SplitDisabled(t *testing.T) {
	opts := DefaultDetectorOptions()
	opts.SplitEnabled = false

	boxes := NewClassicalDetector(opts).DetectBoxes(sleeveScene())
	require.Len(t, boxes, 1)
	assert.Greater(t, boxes[0].Aspect(), 2.0)
}

func TestClassicalDetector_NoCards(t *testing.T) {
	dets, err := NewClassicalDetector(DefaultDetectorOptions()).Detect(newScene(200, 150, 90))
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestClassicalDetector_NilAndEmpty(t *testing.T) {
	d := NewClassicalDetector(DefaultDetectorOptions())

	_, err := d.Detect(nil)
	assert.Error(t, err)

	dets, err := d.Detect(image.NewRGBA(image.Rectangle{}))
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestClassicalDetector_Info(t *testing.T) {
	info := NewClassicalDetector(DefaultDetectorOptions()).Info()
	assert.Equal(t, "classical", info["detector"])
	assert.Equal(t, DefaultCoarseIoU, info["coarse_iou"])
	assert.Equal(t, DefaultFineIoU, info["fine_iou"])
}

func TestSortReadingOrder(t *testing.T) {
	boxes := []geometry.Box{
		{X: 50, Y: 10, W: 5, H: 5},
		{X: 10, Y: 30, W: 5, H: 5},
		{X: 10, Y: 10, W: 5, H: 5},
	}
	SortReadingOrder(boxes)
	assert.Equal(t, []geometry.Box{
		{X: 10, Y: 10, W: 5, H: 5},
		{X: 50, Y: 10, W: 5, H: 5},
		{X: 10, Y: 30, W: 5, H: 5},
	}, boxes)
}

func TestFromBox(t *testing.T) {
	det := FromBox(geometry.Box{X: 3, Y: 4, W: 10, H: 20}, "Card", 0.8)
	assert.Equal(t, [4]float64{3, 4, 13, 24}, det.BBox)
	assert.Equal(t, "Card 0.80 [3.0 4.0 13.0 24.0]", det.String())
}
