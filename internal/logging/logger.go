// Package logging builds the zerolog loggers used across the server.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line.
const ServiceName = "card-regions-mcp"

// Config holds logger configuration.
type Config struct {
	Level  string    `json:"level" yaml:"level" mapstructure:"level"`
	Format string    `json:"format" yaml:"format" mapstructure:"format"` // json or console
	Output io.Writer `json:"-" yaml:"-" mapstructure:"-"`
}

// DefaultConfig logs info and above as JSON to stderr. Stdout is reserved
// for the MCP protocol.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// New creates a logger from cfg.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var zl zerolog.Logger
	if cfg.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	} else {
		zl = zerolog.New(output)
	}

	return zl.Level(ParseLevel(cfg.Level)).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names give
// info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
