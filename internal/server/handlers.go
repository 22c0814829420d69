package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/boxaug"
	"github.com/ironsheep/boxaug/internal/bbox"
	"github.com/ironsheep/boxaug/internal/config"
	"github.com/ironsheep/boxaug/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "augment_image").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Info("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "augment_image":
		return s.handleAugmentImage(args)
	case "augment_validate_config":
		return s.handleValidateConfig(args)
	case "augment_describe_pipeline":
		return s.handleDescribePipeline(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// resolveConfigPath applies the server default and returns an absolute,
// cleaned path. The watcher reports cleaned paths, so cache keys must match.
// An empty result means the built-in defaults.
func (s *Server) resolveConfigPath(path string) string {
	if path == "" {
		path = s.defaultConfig
	}
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// loadConfig resolves path and loads it.
func (s *Server) loadConfig(path string) (*config.Config, string, error) {
	resolved := s.resolveConfigPath(path)
	if resolved == "" {
		return config.Default(), "", nil
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return nil, "", err
	}
	return cfg, resolved, nil
}

// augmenter returns the cached augmenter for a config path. Seeded requests
// get a fresh augmenter so the seed fully determines the pass.
func (s *Server) augmenter(path string, seed *int64) (*boxaug.Augmenter, error) {
	if seed == nil {
		key := s.resolveConfigPath(path)
		s.mu.Lock()
		aug, ok := s.augmenters[key]
		s.mu.Unlock()
		if ok {
			return aug, nil
		}
	}

	cfg, resolved, err := s.loadConfig(path)
	if err != nil {
		return nil, err
	}

	opts := []boxaug.Option{boxaug.WithLogger(s.log)}
	if seed != nil {
		opts = append(opts, boxaug.WithSeed(*seed))
	}
	aug, err := boxaug.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	if seed == nil {
		s.mu.Lock()
		s.augmenters[resolved] = aug
		s.mu.Unlock()
		if s.watcher != nil {
			s.watcher.Add(resolved)
		}
	}
	return aug, nil
}

// === Augmentation Handlers ===

type augmentImageArgs struct {
	Path         string      `json:"path"`
	Annotations  [][]float64 `json:"annotations"`
	ConfigPath   string      `json:"config_path"`
	Seed         *int64      `json:"seed"`
	Preview      bool        `json:"preview"`
	PreviewColor string      `json:"preview_color"`
	OutputPath   string      `json:"output_path"`
}

// AugmentResult is the augment_image tool output.
type AugmentResult struct {
	Image       *imaging.EncodedImage `json:"image"`
	Annotations [][5]float32          `json:"annotations"`
	Operators   []string              `json:"operators"`
	InputWidth  int                   `json:"input_width"`
	InputHeight int                   `json:"input_height"`
	Dropped     int                   `json:"dropped"`
	OutputPath  string                `json:"output_path,omitempty"`
}

func (s *Server) handleAugmentImage(args json.RawMessage) (interface{}, error) {
	var a augmentImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	anns, err := bbox.FromRows(a.Annotations)
	if err != nil {
		return nil, err
	}

	var boxColor color.Color = imaging.DefaultBoxColor
	if a.PreviewColor != "" {
		if boxColor, err = imaging.ParseHexColor(a.PreviewColor); err != nil {
			return nil, err
		}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	aug, err := s.augmenter(a.ConfigPath, a.Seed)
	if err != nil {
		return nil, err
	}

	res, err := aug.Run(img, anns)
	if err != nil {
		return nil, err
	}

	if a.OutputPath != "" {
		if err := imaging.Save(res.Image, a.OutputPath, 95); err != nil {
			return nil, err
		}
	}

	out := res.Image
	if a.Preview {
		out = imaging.DrawBoxes(out, labeledRects(res.Annotations), boxColor)
	}

	encoded, err := imaging.EncodePNG(out)
	if err != nil {
		return nil, err
	}

	rows := make([][5]float32, len(res.Annotations))
	for i, ann := range res.Annotations {
		rows[i] = ann.Row()
	}

	bounds := img.Bounds()
	return &AugmentResult{
		Image:       encoded,
		Annotations: rows,
		Operators:   res.Operators,
		InputWidth:  bounds.Dx(),
		InputHeight: bounds.Dy(),
		Dropped:     len(anns) - len(res.Annotations),
		OutputPath:  a.OutputPath,
	}, nil
}

func labeledRects(anns []boxaug.Annotation) []imaging.LabeledRect {
	rects := make([]imaging.LabeledRect, len(anns))
	for i, ann := range anns {
		rects[i] = imaging.LabeledRect{
			Rect: image.Rect(
				int(math.Floor(float64(ann.X1))), int(math.Floor(float64(ann.Y1))),
				int(math.Floor(float64(ann.X2))), int(math.Floor(float64(ann.Y2))),
			),
			ClassID: ann.ClassID,
		}
	}
	return rects
}

type configPathArgs struct {
	ConfigPath string `json:"config_path"`
}

// ValidateResult is the augment_validate_config tool output.
type ValidateResult struct {
	Valid       bool     `json:"valid"`
	MissingKeys []string `json:"missing_keys,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (s *Server) handleValidateConfig(args json.RawMessage) (interface{}, error) {
	var a configPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}

	if _, err := config.Load(a.ConfigPath); err != nil {
		result := &ValidateResult{Error: err.Error()}
		var missing *config.MissingKeysError
		if errors.As(err, &missing) {
			result.MissingKeys = missing.Keys
		}
		return result, nil
	}
	return &ValidateResult{Valid: true}, nil
}

// DescribeResult is the augment_describe_pipeline tool output.
type DescribeResult struct {
	ConfigPath string             `json:"config_path,omitempty"`
	Pipeline   boxaug.Description `json:"pipeline"`
	Config     *boxaug.Config     `json:"config"`
}

func (s *Server) handleDescribePipeline(args json.RawMessage) (interface{}, error) {
	var a configPathArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}

	aug, err := s.augmenter(a.ConfigPath, nil)
	if err != nil {
		return nil, err
	}

	return &DescribeResult{
		ConfigPath: s.resolveConfigPath(a.ConfigPath),
		Pipeline:   aug.Describe(),
		Config:     aug.Config(),
	}, nil
}

// === Image Information Handlers ===

type imagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}
