package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCardPhoto saves a dark table with two light cards as PNG.
func writeCardPhoto(t *testing.T, dir string) string {
	t.Helper()
	cards := []image.Rectangle{image.Rect(50, 80, 150, 220), image.Rect(250, 80, 350, 220)}
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			c := color.RGBA{60, 60, 60, 255}
			for _, r := range cards {
				if (image.Point{X: x, Y: y}).In(r) {
					c = color.RGBA{210, 210, 210, 255}
				}
			}
			img.SetRGBA(x, y, c)
		}
	}

	path := filepath.Join(dir, "binder page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "card-regions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644))
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		outputFormat = "yaml"
		printConfig = false
		splitZip = false
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	photo := writeCardPhoto(t, dir)

	out := execute(t, "detect", photo, "-o", "json", "--config", writeTestConfig(t, dir))

	var got struct {
		CardCount int `json:"card_count"`
		Result    struct {
			Elements []struct {
				Label     string `json:"label"`
				CropBytes []byte `json:"crop_bytes"`
			} `json:"elements"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.CardCount)
	require.Len(t, got.Result.Elements, 2)
	for _, el := range got.Result.Elements {
		assert.Equal(t, "Card", el.Label)
		assert.Empty(t, el.CropBytes)
	}
}

func TestDetectCommand_Annotate(t *testing.T) {
	dir := t.TempDir()
	photo := writeCardPhoto(t, dir)
	overlay := filepath.Join(dir, "boxes.png")
	t.Cleanup(func() { detectAnnotate = "" })

	execute(t, "detect", photo, "--annotate", overlay, "--config", writeTestConfig(t, dir))

	f, err := os.Open(overlay)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())
}

func TestSplitCommand(t *testing.T) {
	dir := t.TempDir()
	photo := writeCardPhoto(t, dir)
	outDir := filepath.Join(dir, "out")

	execute(t, "split", photo, "--out", outDir, "--config", writeTestConfig(t, dir))

	for _, name := range []string{"binder_page_1.png", "binder_page_2.png"} {
		data, err := os.ReadFile(filepath.Join(outDir, "binder_page", name))
		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(data))
		assert.NoError(t, err)
	}
}

func TestSplitCommand_Zip(t *testing.T) {
	dir := t.TempDir()
	photo := writeCardPhoto(t, dir)
	outDir := filepath.Join(dir, "out")

	execute(t, "split", photo, "--out", outDir, "--zip", "--config", writeTestConfig(t, dir))

	zr, err := zip.OpenReader(filepath.Join(outDir, "binder_page.zip"))
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"binder_page_1.png", "binder_page_2.png"}, names)
}

func TestPrintConfig(t *testing.T) {
	dir := t.TempDir()
	out := execute(t, "detect", "unused.png", "--print-config", "--config", writeTestConfig(t, dir))
	assert.Contains(t, out, "canny_low: 50")
	assert.Contains(t, out, "level: error")
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "card-regions-mcp "+Version)
}
