package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSolidImage creates an in-memory image filled with a single color.
func newSolidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writeTestImage encodes img as PNG into a temp dir and returns its path.
func writeTestImage(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, newSolidImage(40, 30, color.White), nil))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	assert.Error(t, err)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, "red.png", newSolidImage(100, 100, color.RGBA{255, 0, 0, 255}))

	img1, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, img1.Bounds().Dx())

	img2, err := cache.Load(path)
	require.NoError(t, err)
	assert.True(t, img1 == img2, "second Load should return the cached image")
	assert.Equal(t, 1, cache.Len())
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()

	_, err := cache.Load("/nonexistent/path/to/image.png")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "invalid.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = cache.Load(bad)
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	a := writeTestImage(t, "a.png", newSolidImage(10, 10, color.Black))
	b := writeTestImage(t, "b.png", newSolidImage(10, 10, color.White))

	_, err := cache.Load(a)
	require.NoError(t, err)
	_, err = cache.Load(b)
	require.NoError(t, err)

	cache.Evict(a)
	assert.Equal(t, 1, cache.Len())
	cache.Evict("/nonexistent/path")

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, "gray.png", newSolidImage(50, 50, color.RGBA{128, 128, 128, 255}))

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, "info.png", newSolidImage(200, 150, color.RGBA{255, 128, 64, 255}))

	info, err := LoadImageInfo(cache, path)
	require.NoError(t, err)
	assert.Equal(t, 200, info.Width)
	assert.Equal(t, 150, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Positive(t, info.FileSizeBytes)
}

func TestLoadImageInfo_FormatDetection(t *testing.T) {
	tests := []struct {
		ext    string
		format string
	}{
		{".png", "png"},
		{".jpg", "jpeg"},
		{".JPEG", "jpeg"},
		{".gif", "gif"},
		{".tiff", "tiff"},
		{".webp", "webp"},
		{".xyz", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			// A valid PNG regardless of extension; the decoder sniffs content.
			path := writeTestImage(t, "format"+tt.ext, newSolidImage(10, 10, color.White))
			info, err := LoadImageInfo(NewImageCache(), path)
			require.NoError(t, err)
			assert.Equal(t, tt.format, info.Format)
		})
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, "dims.png", newSolidImage(300, 200, color.RGBA{100, 100, 100, 255}))

	dims, err := GetDimensions(cache, path)
	require.NoError(t, err)
	assert.Equal(t, &DimensionsResult{Width: 300, Height: 200}, dims)

	_, err = GetDimensions(cache, "/nonexistent/image.png")
	assert.Error(t, err)
}
