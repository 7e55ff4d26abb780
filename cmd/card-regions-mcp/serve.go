package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/card-regions-mcp/internal/config"
	"github.com/ironsheep/card-regions-mcp/internal/model"
	"github.com/ironsheep/card-regions-mcp/internal/ocr"
	"github.com/ironsheep/card-regions-mcp/internal/server"
)

var (
	serveWaitHealthy time.Duration
	serveNoWatch     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP tools over stdin/stdout",
	Long: `Serve the card tools over the Model Context Protocol.

Requests are read from stdin one JSON-RPC message per line and responses
are written to stdout. Logs go to stderr. When a config file is in use,
edits to it are applied to subsequent tool calls without a restart.

Examples:
  card-regions-mcp serve
  card-regions-mcp serve --config ./card-regions.yaml
  CARD_REGIONS_DETECTOR=remote card-regions-mcp serve --wait-healthy 30s`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&serveWaitHealthy, "wait-healthy", 0,
		"with the remote detector, wait up to this long for the inference service")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not reload the config file on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mgr, log, done, err := loadConfig(cmd.OutOrStdout())
	if err != nil || done {
		return err
	}
	cfg := mgr.Get()

	if cfg.Detector == config.DetectorRemote && serveWaitHealthy > 0 {
		client := model.NewClient(cfg.ClientOptions(log))
		if err := client.WaitHealthy(ctx, serveWaitHealthy, time.Second); err != nil {
			// Calls will still run; each reports the detector failure.
			log.Warn().Err(err).Str("url", client.URL()).Msg("inference service not healthy")
		}
	}

	srv, err := server.New(server.Options{
		Detector: newDetector(cfg, log),
		Layout:   cfg.Pipeline(log),
		OCR:      ocr.NewReader(cfg.OCR),
		Version:  Version,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	if mgr.ConfigFileUsed() != "" && !serveNoWatch {
		mgr.OnChange(func(c *config.Config) {
			log.Info().Str("file", mgr.ConfigFileUsed()).Msg("config changed")
			srv.Reconfigure(newDetector(c, log), c.Pipeline(log))
		})
		mgr.OnError(func(err error) {
			log.Error().Err(err).Msg("config reload rejected, keeping previous settings")
		})
		mgr.WatchConfig()
	}

	log.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Str("detector", cfg.Detector).
		Msg("card-regions-mcp starting")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
