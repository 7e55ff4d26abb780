package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
	"github.com/ironsheep/card-regions-mcp/internal/layout"
	"github.com/ironsheep/card-regions-mcp/internal/ocr"
)

// ServerName is reported in the initialize handshake.
const ServerName = "card-regions-mcp"

// Options configures a Server.
type Options struct {
	// Detector finds cards. Nil selects the classical detector built from
	// Layout.Detection.
	Detector layout.Detector

	// Layout is the base pipeline configuration; tools override crop and
	// suppression settings per call.
	Layout layout.Options

	// OCR reads card names. Nil disables the card_name tool.
	OCR *ocr.Reader

	Version string
	Logger  zerolog.Logger
}

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	schemas map[string]*jsonschema.Schema
	ocr     *ocr.Reader
	version string
	log     zerolog.Logger

	mu         sync.RWMutex
	detector   layout.Detector
	layoutOpts layout.Options
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) (*Server, error) {
	schemas, err := compileSchemas(GetToolDefinitions())
	if err != nil {
		return nil, err
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		cache:   imaging.NewImageCache(),
		schemas: schemas,
		ocr:     opts.OCR,
		version: opts.Version,
		log:     opts.Logger.With().Str("component", "server").Logger(),
	}
	s.Reconfigure(opts.Detector, opts.Layout)
	return s, nil
}

// Reconfigure swaps the detector and pipeline options used by subsequent
// tool calls. Calls already running finish with the previous settings.
func (s *Server) Reconfigure(detector layout.Detector, opts layout.Options) {
	if detector == nil {
		d := opts.Detection
		d.Logger = opts.Logger
		detector = detection.NewClassicalDetector(d)
	}

	s.mu.Lock()
	s.detector = detector
	s.layoutOpts = opts
	s.mu.Unlock()

	s.log.Info().
		Str("detector", fmt.Sprintf("%T", detector)).
		Bool("crops", opts.Crops.Enabled).
		Msg("pipeline configured")
}

// pipeline builds a pipeline from the current settings. tweak may adjust a
// copy of the options for a single call.
func (s *Server) pipeline(tweak func(*layout.Options)) *layout.Pipeline {
	s.mu.RLock()
	detector, opts := s.detector, s.layoutOpts
	s.mu.RUnlock()

	if tweak != nil {
		tweak(&opts)
	}
	return layout.New(detector, opts)
}

// Run serves MCP requests on stdin and stdout until stdin closes or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w. It returns nil when r is exhausted and ctx.Err() on cancellation.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 16*1024*1024)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				scanErr <- ctx.Err()
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(w)
	s.log.Info().Str("version", s.version).Msg("serving MCP over stdio")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				err := <-scanErr
				if err == nil || err == ctx.Err() {
					return err
				}
				return fmt.Errorf("scanner error: %w", err)
			}
			if len(line) == 0 {
				continue
			}

			var req MCPRequest
			if err := json.Unmarshal(line, &req); err != nil {
				s.log.Warn().Err(err).Msg("failed to parse request")
				if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
					s.log.Error().Err(err).Msg("failed to encode response")
				}
				continue
			}

			resp := s.handleRequest(&req)
			if resp != nil {
				if err := encoder.Encode(resp); err != nil {
					s.log.Error().Err(err).Msg("failed to encode response")
				}
			}
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	s.log.Debug().Interface("id", req.ID).Str("method", req.Method).Msg("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}

// handleToolsList returns every tool definition.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
