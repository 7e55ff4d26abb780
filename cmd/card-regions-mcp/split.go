package main

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ironsheep/card-regions-mcp/internal/imaging"
	"github.com/ironsheep/card-regions-mcp/internal/layout"
)

var (
	splitOut     string
	splitFormat  string
	splitPadding float64
	splitZip     bool
)

var splitCmd = &cobra.Command{
	Use:   "split <image>",
	Short: "Write each card in a photo to its own file",
	Long: `Detect the trading cards in a photo and write each crop to
<out>/<name>/<name>_<n>.<ext>, numbered in reading order. With --zip the
crops are written to <out>/<name>.zip instead.

Examples:
  card-regions-mcp split binder-page.jpg --out ./cards
  card-regions-mcp split table.png --format jpeg --padding 0.05 --zip`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, log, done, err := loadConfig(cmd.OutOrStdout())
		if err != nil || done {
			return err
		}
		cfg := mgr.Get()
		source := args[0]

		opts := cfg.Pipeline(log)
		opts.Crops.Enabled = true
		if cmd.Flags().Changed("format") {
			opts.Crops.Format = splitFormat
		}
		if cmd.Flags().Changed("padding") {
			opts.Crops.Padding = splitPadding
		}
		format, err := imaging.ParseCropFormat(opts.Crops.Format)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		result, err := layout.New(newDetector(cfg, log), opts).AnalyzeBytes(data)
		if err != nil {
			return err
		}

		files := make([]cardFile, 0)
		for i, crop := range layout.NamedCrops(result) {
			files = append(files, cardFile{
				Name:  crop.Name,
				File:  layout.CardFileName(source, i+1, format.Name()),
				Bytes: crop.Bytes,
			})
		}

		folder := layout.CardFolder(source)
		var output string
		if splitZip {
			output = filepath.Join(splitOut, folder+".zip")
			err = writeZip(output, files)
		} else {
			output = filepath.Join(splitOut, folder)
			err = writeFiles(output, files)
		}
		if err != nil {
			return err
		}
		log.Info().Str("output", output).Int("cards", len(files)).Msg("wrote card crops")

		summary := splitOutput{
			AnalysisID: uuid.NewString(),
			Path:       source,
			Output:     output,
			Warnings:   result.Warnings,
		}
		for _, f := range files {
			summary.Files = append(summary.Files, f.File)
		}
		return writeOutput(cmd.OutOrStdout(), summary)
	},
}

func init() {
	splitCmd.Flags().StringVar(&splitOut, "out", ".", "output directory")
	splitCmd.Flags().StringVar(&splitFormat, "format", "png", "crop format: png, jpeg, gif, bmp or tiff")
	splitCmd.Flags().Float64Var(&splitPadding, "padding", 0, "grow each crop by this fraction of the card's shorter side")
	splitCmd.Flags().BoolVar(&splitZip, "zip", false, "write a zip archive instead of a folder")
}

type cardFile struct {
	Name  string
	File  string
	Bytes []byte
}

type splitOutput struct {
	AnalysisID string   `json:"analysis_id" yaml:"analysis_id"`
	Path       string   `json:"path" yaml:"path"`
	Output     string   `json:"output" yaml:"output"`
	Files      []string `json:"files" yaml:"files"`
	Warnings   []string `json:"warnings" yaml:"warnings"`
}

func writeFiles(dir string, files []cardFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.File), f.Bytes, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.File, err)
		}
	}
	return nil
}

func writeZip(path string, files []cardFile) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	for _, f := range files {
		w, err := zw.Create(f.File)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", f.File, err)
		}
		if _, err := w.Write(f.Bytes); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.File, err)
		}
	}
	return zw.Close()
}
