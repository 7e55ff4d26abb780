// Package server implements the MCP (Model Context Protocol) server for
// trading-card region detection.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load a photo and get metadata
//   - image_dimensions: Get width and height
//   - image_edge_detect: Render the edge map card detection works from
//
// Card Detection:
//   - cards_detect: Find card boxes in reading order
//   - cards_extract: Find cards and return each as a cropped image
//   - cards_count: Count cards
//   - cards_from_detections: Post-process boxes from another detector
//   - cards_annotate: Outline the detected cards on the photo
//
// OCR:
//   - card_name: Read a card's name from its top band
//
// Every tool call's arguments are validated against the tool's JSON schema
// before dispatch.
//
// # Reconfiguration
//
// Each tool call builds its pipeline from the settings current at the time
// of the call. Reconfigure swaps detector and options without restarting;
// the command wires it to config file changes.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 (arguments fail the schema), -32000 (tool execution
//     failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A photo with no cards is not an error, and neither is a failing detector:
// both yield zero cards, the latter with a warning in the result.
//
// # Usage
//
//	srv, err := server.New(server.Options{Layout: layout.DefaultOptions()})
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
