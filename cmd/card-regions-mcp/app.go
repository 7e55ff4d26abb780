package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/card-regions-mcp/internal/config"
	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/layout"
	"github.com/ironsheep/card-regions-mcp/internal/logging"
	"github.com/ironsheep/card-regions-mcp/internal/model"
)

// loadConfig reads the configuration named by --config and builds the
// logger it describes. With --print-config it writes the configuration to w
// and reports done.
func loadConfig(w io.Writer) (mgr *config.Manager, log zerolog.Logger, done bool, err error) {
	mgr, err = config.NewManager(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), false, err
	}
	cfg := mgr.Get()

	if printConfig {
		data, err := config.Dump(cfg)
		if err != nil {
			return nil, zerolog.Nop(), false, err
		}
		_, err = w.Write(data)
		return mgr, zerolog.Nop(), true, err
	}

	log = logging.New(cfg.Log)
	if used := mgr.ConfigFileUsed(); used != "" {
		log.Debug().Str("file", used).Msg("loaded config file")
	}
	return mgr, log, false, nil
}

// newDetector builds the detector selected by cfg. The remote detector gets
// its own client and model cache.
func newDetector(cfg *config.Config, log zerolog.Logger) layout.Detector {
	if cfg.Detector == config.DetectorRemote {
		client := model.NewClient(cfg.ClientOptions(log))
		cache := model.NewCache(client.FetchModel)
		return model.NewRemoteDetector(client, cache, cfg.RemoteDetectorOptions(log))
	}
	return detection.NewClassicalDetector(cfg.DetectorOptions(log))
}

// writeOutput renders v in the --output format.
func writeOutput(w io.Writer, v interface{}) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}
