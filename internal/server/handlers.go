package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
	"github.com/ironsheep/card-regions-mcp/internal/layout"
	"github.com/ironsheep/card-regions-mcp/internal/ocr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "cards_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// imageContent is implemented by results that carry images. Each image is
// sent as its own MCP image block after the JSON text block.
type imageContent interface {
	contentImages() []map[string]interface{}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}, ...]
//	}
//
// Arguments that fail the tool's input schema return code -32602. Tool
// execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	args, err := s.validateArgs(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Str("tool", params.Name).Err(err).Msg("invalid tool arguments")
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, args)
	if err != nil {
		s.log.Warn().
			Str("tool", params.Name).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Info().
		Str("tool", params.Name).
		Dur("elapsed", time.Since(start)).
		Msg("tool completed")

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": mustMarshalJSON(result),
		},
	}
	if ic, ok := result.(imageContent); ok {
		content = append(content, ic.contentImages()...)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Runs a pipeline built from the current configuration
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)

	// Card Detection
	case "cards_detect":
		return s.handleCardsDetect(args)
	case "cards_extract":
		return s.handleCardsExtract(args)
	case "cards_count":
		return s.handleCardsCount(args)
	case "cards_from_detections":
		return s.handleCardsFromDetections(args)
	case "cards_annotate":
		return s.handleCardsAnnotate(args)

	// OCR
	case "card_name":
		return s.handleCardName(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageEdgeDetectArgs struct {
	Path          string `json:"path"`
	Intensity     string `json:"intensity"`
	ThresholdLow  *int   `json:"threshold_low"`
	ThresholdHigh *int   `json:"threshold_high"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	s.mu.RLock()
	opts := s.layoutOpts.Detection.Candidates.Edge
	s.mu.RUnlock()

	if a.Intensity != "" {
		mode, err := imaging.ParseIntensityMode(a.Intensity)
		if err != nil {
			return nil, err
		}
		opts.Intensity = mode
	}
	if a.ThresholdLow != nil {
		opts.LowThreshold = *a.ThresholdLow
	}
	if a.ThresholdHigh != nil {
		opts.HighThreshold = *a.ThresholdHigh
	}
	if opts.LowThreshold > opts.HighThreshold {
		return nil, fmt.Errorf("threshold_low (%d) must not exceed threshold_high (%d)", opts.LowThreshold, opts.HighThreshold)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, opts)
}

// === Card Detection Handlers ===

// CardsResult is the response of the card detection tools.
type CardsResult struct {
	AnalysisID string `json:"analysis_id"`
	Path       string `json:"path,omitempty"`
	CardCount  int    `json:"card_count"`
	*layout.Result
}

func newCardsResult(path string, r *layout.Result) *CardsResult {
	return &CardsResult{
		AnalysisID: uuid.NewString(),
		Path:       path,
		CardCount:  layout.CountCards(r),
		Result:     r,
	}
}

type cardsArgs struct {
	Path string `json:"path"`
}

// analyze loads path and runs a pipeline over it.
func (s *Server) analyze(path string, tweak func(*layout.Options)) (*layout.Result, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return s.pipeline(tweak).Analyze(img)
}

func withoutCrops(opts *layout.Options) {
	opts.Crops.Enabled = false
}

func (s *Server) handleCardsDetect(args json.RawMessage) (interface{}, error) {
	var a cardsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r, err := s.analyze(a.Path, withoutCrops)
	if err != nil {
		return nil, err
	}
	return newCardsResult(a.Path, r), nil
}

type cardsExtractArgs struct {
	Path        string   `json:"path"`
	Format      string   `json:"format"`
	Padding     *float64 `json:"padding"`
	JPEGQuality int      `json:"jpeg_quality"`
}

// CardCrop describes one crop sent as an image block.
type CardCrop struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size_bytes"`
}

// ExtractResult is the response of cards_extract. The crops themselves
// travel as MCP image blocks in the same order as Crops.
type ExtractResult struct {
	*CardsResult
	Crops []CardCrop `json:"crops"`

	images []layout.NamedCrop
}

func (r *ExtractResult) contentImages() []map[string]interface{} {
	blocks := make([]map[string]interface{}, 0, len(r.images))
	for _, c := range r.images {
		blocks = append(blocks, map[string]interface{}{
			"type":     "image",
			"data":     base64.StdEncoding.EncodeToString(c.Bytes),
			"mimeType": c.MimeType,
		})
	}
	return blocks
}

func (s *Server) handleCardsExtract(args json.RawMessage) (interface{}, error) {
	var a cardsExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Format != "" {
		if _, err := imaging.ParseCropFormat(a.Format); err != nil {
			return nil, err
		}
	}

	r, err := s.analyze(a.Path, func(opts *layout.Options) {
		opts.Crops.Enabled = true
		if a.Format != "" {
			opts.Crops.Format = a.Format
		}
		if a.Padding != nil {
			opts.Crops.Padding = *a.Padding
		}
		if a.JPEGQuality > 0 {
			opts.Crops.JPEGQuality = a.JPEGQuality
		}
	})
	if err != nil {
		return nil, err
	}

	named := layout.NamedCrops(r)
	crops := make([]CardCrop, len(named))
	for i, c := range named {
		crops[i] = CardCrop{Name: c.Name, MimeType: c.MimeType, Size: len(c.Bytes)}
	}

	return &ExtractResult{
		CardsResult: newCardsResult(a.Path, stripCropBytes(r)),
		Crops:       crops,
		images:      named,
	}, nil
}

// stripCropBytes returns a copy of r whose elements carry no crop bytes.
// The crop MIME type is kept.
func stripCropBytes(r *layout.Result) *layout.Result {
	out := *r
	out.Elements = make([]layout.LayoutElement, len(r.Elements))
	for i, el := range r.Elements {
		el.CropBytes = nil
		out.Elements[i] = el
	}
	return &out
}

// CountResult is the response of cards_count.
type CountResult struct {
	AnalysisID string   `json:"analysis_id"`
	Path       string   `json:"path"`
	Count      int      `json:"count"`
	Warnings   []string `json:"warnings"`
}

func (s *Server) handleCardsCount(args json.RawMessage) (interface{}, error) {
	var a cardsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r, err := s.analyze(a.Path, withoutCrops)
	if err != nil {
		return nil, err
	}
	return &CountResult{
		AnalysisID: uuid.NewString(),
		Path:       a.Path,
		Count:      layout.CountCards(r),
		Warnings:   r.Warnings,
	}, nil
}

type cardsFromDetectionsArgs struct {
	Path       string                   `json:"path"`
	Detections []detection.RawDetection `json:"detections"`
	Suppress   *bool                    `json:"suppress"`
	Crops      bool                     `json:"crops"`
}

func (s *Server) handleCardsFromDetections(args json.RawMessage) (interface{}, error) {
	var a cardsFromDetectionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	p := s.pipeline(func(opts *layout.Options) {
		opts.Crops.Enabled = a.Crops
		if a.Suppress != nil {
			opts.SuppressExternal = *a.Suppress
		}
	})
	r, err := p.AnalyzeDetections(img, a.Detections)
	if err != nil {
		return nil, err
	}
	return newCardsResult(a.Path, r), nil
}

type cardsAnnotateArgs struct {
	Path      string `json:"path"`
	Color     string `json:"color"`
	Thickness int    `json:"thickness"`
	Labels    *bool  `json:"labels"`
}

// AnnotateResult is the response of cards_annotate.
type AnnotateResult struct {
	AnalysisID string   `json:"analysis_id"`
	CardCount  int      `json:"card_count"`
	Warnings   []string `json:"warnings"`
	*imaging.AnnotateResult
}

func (s *Server) handleCardsAnnotate(args json.RawMessage) (interface{}, error) {
	var a cardsAnnotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	r, err := s.pipeline(withoutCrops).Analyze(img)
	if err != nil {
		return nil, err
	}

	labels := a.Labels == nil || *a.Labels
	overlay, err := imaging.Annotate(img, layout.CardAnnotations(r), imaging.AnnotateOptions{
		Color:     a.Color,
		Thickness: a.Thickness,
		Labels:    labels,
	})
	if err != nil {
		return nil, err
	}
	return &AnnotateResult{
		AnalysisID:     uuid.NewString(),
		CardCount:      layout.CountCards(r),
		Warnings:       r.Warnings,
		AnnotateResult: overlay,
	}, nil
}

// === OCR Handlers ===

type cardNameArgs struct {
	Path string `json:"path"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

// CardNameResult is the response of card_name.
type CardNameResult struct {
	AnalysisID string `json:"analysis_id"`
	Name       string `json:"name"`
	Known      bool   `json:"known"`
}

func (s *Server) handleCardName(args json.RawMessage) (interface{}, error) {
	var a cardNameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.ocr == nil {
		return nil, errors.New("OCR is not enabled on this server")
	}
	if a.X2 <= a.X1 || a.Y2 <= a.Y1 {
		return nil, fmt.Errorf("invalid card box (%d,%d)-(%d,%d)", a.X1, a.Y1, a.X2, a.Y2)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	name, err := s.ocr.CardName(img, image.Rect(a.X1, a.Y1, a.X2, a.Y2))
	if err != nil {
		return nil, err
	}
	return &CardNameResult{
		AnalysisID: uuid.NewString(),
		Name:       name,
		Known:      name != ocr.UnknownName,
	}, nil
}
