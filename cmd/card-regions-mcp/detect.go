package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ironsheep/card-regions-mcp/internal/imaging"
	"github.com/ironsheep/card-regions-mcp/internal/layout"
)

var detectAnnotate string

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Print the card boxes found in a photo",
	Long: `Detect the trading cards in a photo and print their boxes in reading
order, without image data.

Examples:
  card-regions-mcp detect binder-page.jpg
  card-regions-mcp detect -o json table.png
  card-regions-mcp detect table.png --annotate boxes.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, log, done, err := loadConfig(cmd.OutOrStdout())
		if err != nil || done {
			return err
		}
		cfg := mgr.Get()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		img, err := imaging.Decode(data)
		if err != nil {
			return fmt.Errorf("%w: %v", layout.ErrInvalidImage, err)
		}

		opts := cfg.Pipeline(log)
		opts.Crops.Enabled = false
		result, err := layout.New(newDetector(cfg, log), opts).Analyze(img)
		if err != nil {
			return err
		}

		if detectAnnotate != "" {
			if err := writeAnnotated(detectAnnotate, img, result); err != nil {
				return err
			}
		}

		return writeOutput(cmd.OutOrStdout(), detectOutput{
			AnalysisID: uuid.NewString(),
			Path:       args[0],
			CardCount:  layout.CountCards(result),
			Result:     result,
		})
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectAnnotate, "annotate", "", "also write the photo with numbered card outlines to this PNG file")
}

func writeAnnotated(path string, img image.Image, result *layout.Result) (err error) {
	overlay, err := imaging.DrawAnnotations(img, layout.CardAnnotations(result), imaging.AnnotateOptions{Labels: true})
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, overlay)
}

type detectOutput struct {
	AnalysisID string         `json:"analysis_id" yaml:"analysis_id"`
	Path       string         `json:"path" yaml:"path"`
	CardCount  int            `json:"card_count" yaml:"card_count"`
	Result     *layout.Result `json:"result" yaml:"result"`
}
