// Package server implements the MCP (Model Context Protocol) server that
// exposes bounding-box augmentation as tools.
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
//   - augment_image: Augment an image and its boxes once
//   - augment_validate_config: Report missing keys and bad ranges in a config
//   - augment_describe_pipeline: List operator pools for a config
//   - image_dimensions: Get width, height, format and channels
//
// # Caching
//
// Decoded images are cached by path. Augmenters are cached by config path
// and draw from a shared clock-seeded source; a call that passes a seed gets
// its own augmenter instead. Config files behind cached augmenters are
// watched; any change other than a mode change evicts the augmenter so the
// next call reloads the file. Decoded images stay cached for the lifetime of the
// process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure), -32602 (malformed params) or
//     -32601 (unknown method)
//   - message: Human-readable error description
//   - data: The Go error string
//
// A config that fails validation is not a tool error for
// augment_validate_config; the result reports it instead.
package server
