package ocr

import (
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/card-regions-mcp/internal/imaging"
)

// UnknownName is returned when no usable name is found.
const UnknownName = "unknown"

// Options configures a Reader.
type Options struct {
	// Language is the Tesseract language code.
	Language string `json:"language" yaml:"language" mapstructure:"language"`

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string `json:"tessdata_prefix" yaml:"tessdata_prefix" mapstructure:"tessdata_prefix"`

	// BandFraction is the share of the card height, from the top, that
	// holds the name.
	BandFraction float64 `json:"band_fraction" yaml:"band_fraction" mapstructure:"band_fraction"`

	// Threshold keeps pixels strictly brighter than this as ink.
	Threshold uint8 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// DefaultOptions returns the OCR defaults.
func DefaultOptions() Options {
	return Options{
		Language:     "eng",
		BandFraction: 0.25,
		Threshold:    180,
	}
}

// Reader extracts card names from photos.
type Reader struct {
	opts Options
}

// NewReader creates a Reader.
func NewReader(opts Options) *Reader {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	return &Reader{opts: opts}
}

// CardName reads the name of the card at box, given in zero-based image
// coordinates. A name that cannot be read is UnknownName, not an error;
// errors are reserved for bad input and Tesseract failures.
func (r *Reader) CardName(img image.Image, box image.Rectangle) (string, error) {
	band := NameBand(box, r.opts.BandFraction)
	if band.Empty() {
		return UnknownName, nil
	}
	if !band.Add(img.Bounds().Min).In(img.Bounds()) {
		return "", fmt.Errorf("card box (%d,%d)-(%d,%d) outside image bounds (%d,%d)",
			box.Min.X, box.Min.Y, box.Max.X, box.Max.Y, img.Bounds().Dx(), img.Bounds().Dy())
	}

	text, err := r.Text(Binarize(img, band, r.opts.Threshold))
	if err != nil {
		return "", err
	}
	return CleanName(text), nil
}

// Text runs Tesseract over img and returns the recognized text.
func (r *Reader) Text(img image.Image) (string, error) {
	data, _, err := imaging.Encode(img, "png", 0)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if r.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.opts.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(r.opts.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// NameBand returns the top fraction of box. The band height truncates
// toward zero.
func NameBand(box image.Rectangle, fraction float64) image.Rectangle {
	h := int(float64(box.Dy()) * fraction)
	return image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+h)
}

// Binarize returns the rect region of img as black and white: luma strictly
// above threshold is white.
func Binarize(img image.Image, rect image.Rectangle, threshold uint8) *image.Gray {
	gray := imaging.SubGray(imaging.Intensity(img, imaging.IntensityLuma), rect)
	for i, v := range gray.Pix {
		if v > threshold {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}
	return gray
}

var nameCleaner = regexp.MustCompile(`[^A-Za-z0-9 '\-]`)

// CleanName reduces raw OCR output to a card name: the first non-blank
// line, stripped of everything but letters, digits, spaces, apostrophes and
// hyphens.
func CleanName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name := nameCleaner.ReplaceAllString(line, "")
		if len(name) < 2 {
			return UnknownName
		}
		return name
	}
	return UnknownName
}
