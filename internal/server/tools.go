package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var configPathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Path to a JSON or YAML augmentation config. Defaults to the server's configured file, then built-in defaults",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "augment_image",
			Description: "Apply one random augmentation pass to an image and its bounding boxes. Returns the augmented image as base64 PNG, the surviving boxes clipped to the new image, and the operators applied.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"annotations": map[string]interface{}{
						"type":        "array",
						"description": "Boxes as [class_id, x1, y1, x2, y2] in absolute pixels",
						"items": map[string]interface{}{
							"type":     "array",
							"items":    map[string]interface{}{"type": "number"},
							"minItems": 5,
							"maxItems": 5,
						},
					},
					"config_path": configPathProperty,
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Optional seed for a reproducible pass",
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the surviving boxes on the returned image. Default false",
						"default":     false,
					},
					"preview_color": map[string]interface{}{
						"type":        "string",
						"description": "Box color for previews in #RRGGBB format. Default #00FF00",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to also write the augmented image (format from extension, without preview boxes)",
					},
				},
				"required": []string{"path", "annotations"},
			},
		},
		{
			Name:        "augment_validate_config",
			Description: "Check an augmentation config file. Reports every missing required key and any invalid range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"config_path": map[string]interface{}{
						"type":        "string",
						"description": "Path to a JSON or YAML augmentation config",
					},
				},
				"required": []string{"config_path"},
			},
		},
		{
			Name:        "augment_describe_pipeline",
			Description: "List the geometric, photometric and occlusion operators of a config and the maximum number of photometric operators applied per pass.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"config_path": configPathProperty,
				},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width, height, format and channel count of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
