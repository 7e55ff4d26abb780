package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"minLength":   1,
	"description": "Absolute path to the photo",
}

var boxProperties = map[string]interface{}{
	"x1": map[string]interface{}{
		"type":        "integer",
		"minimum":     0,
		"description": "Left edge X coordinate (0-based)",
	},
	"y1": map[string]interface{}{
		"type":        "integer",
		"minimum":     0,
		"description": "Top edge Y coordinate (0-based)",
	},
	"x2": map[string]interface{}{
		"type":        "integer",
		"minimum":     1,
		"description": "Right edge X coordinate (exclusive)",
	},
	"y2": map[string]interface{}{
		"type":        "integer",
		"minimum":     1,
		"description": "Bottom edge Y coordinate (exclusive)",
	},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load a photo and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of a photo after EXIF orientation is applied.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_edge_detect",
			Description: "Render the dilated edge map that card detection works from, as a base64 PNG. Use it to see why a card was or was not found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"intensity": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"luma", "lightness"},
						"description": "Channel reduction: luma (default) or CIE lightness for colorful backgrounds",
					},
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"maximum":     255,
						"description": "Canny weak-edge threshold. Default from configuration (50)",
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"maximum":     255,
						"description": "Canny strong-edge threshold. Default from configuration (150)",
					},
				},
				"required": []string{"path"},
			},
		},

		// Card Detection
		{
			Name:        "cards_detect",
			Description: "Find every trading card in a photo. Returns one tight box per card, in pixels and normalized to [0,1], sorted top-to-bottom then left-to-right. No image data is returned.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "cards_extract",
			Description: "Find every trading card in a photo and return each one as a cropped image named card_1, card_2, ... in reading order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "jpeg", "jpg"},
						"description": "Crop encoding. Default png",
					},
					"padding": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"maximum":     0.5,
						"description": "Grow each crop by this fraction of the card's shorter side. Default 0",
					},
					"jpeg_quality": map[string]interface{}{
						"type":        "integer",
						"minimum":     1,
						"maximum":     100,
						"description": "JPEG quality when format is jpeg. Default 90",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "cards_count",
			Description: "Count the trading cards in a photo.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "cards_from_detections",
			Description: "Post-process boxes produced by another detector: clamp them to the photo, drop degenerate ones, normalize, assign reading order and crop.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"detections": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"label":      map[string]interface{}{"type": "string"},
								"confidence": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
								"bbox_xyxy": map[string]interface{}{
									"type":        "array",
									"items":       map[string]interface{}{"type": "number"},
									"minItems":    4,
									"maxItems":    4,
									"description": "Corner box [x1, y1, x2, y2] in pixels; may be fractional",
								},
							},
							"required": []string{"label", "bbox_xyxy"},
						},
						"description": "Raw detections to post-process",
					},
					"suppress": map[string]interface{}{
						"type":        "boolean",
						"description": "Drop overlapping boxes first (IoU above the coarse threshold). Default from configuration",
					},
					"crops": map[string]interface{}{
						"type":        "boolean",
						"description": "Return base64 crops for each element. Default false",
					},
				},
				"required": []string{"path", "detections"},
			},
		},
		{
			Name:        "cards_annotate",
			Description: "Draw the detected card boxes over the photo, numbered in reading order, and return it as a base64 PNG. Use it to check what cards_detect found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"color": map[string]interface{}{
						"type":        "string",
						"pattern":     "^#?[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$",
						"description": "Outline color as #RRGGBB or #RRGGBBAA. Default #FF0000",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"minimum":     1,
						"maximum":     20,
						"description": "Outline thickness in pixels. Default 2",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Number each box. Default true",
					},
				},
				"required": []string{"path"},
			},
		},

		// OCR
		{
			Name:        "card_name",
			Description: "Read a card's name from the top quarter of its box using OCR. Returns \"unknown\" when no name can be read.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": mergeProperties(map[string]interface{}{"path": pathProperty}, boxProperties),
				"required":   []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
	}
}

func mergeProperties(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
