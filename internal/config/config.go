// Package config defines the augmentation configuration and the rules for
// loading and validating it.
//
// Every key listed by RequiredKeys must be present. Missing keys are reported
// together in a single *MissingKeysError so a broken config file can be
// fixed in one pass.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the operator parameters. Field tags carry the config key names.
type Config struct {
	// Affine
	ScaleMin float64 `json:"scalem" yaml:"scalem"`
	ScaleMax float64 `json:"scaleM" yaml:"scaleM"`
	Trans    float64 `json:"trans" yaml:"trans"` // translate fraction of width/height
	Rot      float64 `json:"rot" yaml:"rot"`     // degrees
	Shear    float64 `json:"shear" yaml:"shear"` // degrees

	// Perspective
	Pers float64 `json:"pers" yaml:"pers"`

	// Gaussian blur
	Sigma float64 `json:"sigma" yaml:"sigma"`

	// Motion blur
	MotionKernelMin int     `json:"mot_km" yaml:"mot_km"`
	MotionKernelMax int     `json:"mot_kM" yaml:"mot_kM"`
	MotionAngle     float64 `json:"mot_an" yaml:"mot_an"`
	MotionDirMin    float64 `json:"mot_dm" yaml:"mot_dm"`
	MotionDirMax    float64 `json:"mot_dM" yaml:"mot_dM"`

	// JPEG compression
	JPEGMin int `json:"jpegm" yaml:"jpegm"`
	JPEGMax int `json:"jpegM" yaml:"jpegM"`

	// Contrast
	ContrastAlphaMin float64 `json:"con_alpham" yaml:"con_alpham"`
	ContrastAlphaMax float64 `json:"con_alphaM" yaml:"con_alphaM"`
	ContrastChannel  Flag    `json:"con_chan" yaml:"con_chan"`

	// Hue and saturation
	ColorMulMin  float64 `json:"col_mulm" yaml:"col_mulm"`
	ColorMulMax  float64 `json:"col_mulM" yaml:"col_mulM"`
	ColorChannel Flag    `json:"col_chan" yaml:"col_chan"`
	ColorAddMin  float64 `json:"col_addm" yaml:"col_addm"`
	ColorAddMax  float64 `json:"col_addM" yaml:"col_addM"`

	// Cutout
	CutoutNum     int     `json:"co_num" yaml:"co_num"`
	CutoutSizeMin float64 `json:"co_sm" yaml:"co_sm"`
	CutoutSizeMax float64 `json:"co_sM" yaml:"co_sM"`

	// Optional keys
	PerspectiveKeepSize *bool `json:"pers_keep,omitempty" yaml:"pers_keep,omitempty"`
	PhotometricMax      *int  `json:"photo_max,omitempty" yaml:"photo_max,omitempty"`
}

// PhotometricPoolSize is the number of operators in the photometric pool.
const PhotometricPoolSize = 6

// DefaultPhotometricMax keeps the last two photometric operators from ever
// being selected together with all the others.
const DefaultPhotometricMax = PhotometricPoolSize - 2

var requiredKeys = []string{
	"scalem", "scaleM", "trans", "rot", "shear",
	"pers",
	"sigma",
	"mot_km", "mot_kM", "mot_an", "mot_dm", "mot_dM",
	"jpegm", "jpegM",
	"con_alpham", "con_alphaM", "con_chan",
	"col_mulm", "col_mulM", "col_chan",
	"col_addm", "col_addM",
	"co_num", "co_sm", "co_sM",
}

// RequiredKeys returns the keys every configuration must define.
func RequiredKeys() []string {
	keys := make([]string, len(requiredKeys))
	copy(keys, requiredKeys)
	return keys
}

// MissingKeysError lists every required key absent from a configuration.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("config: missing required keys: %s", strings.Join(e.Keys, ", "))
}

// FromMap builds a Config from a decoded key/value mapping.
func FromMap(m map[string]interface{}) (*Config, error) {
	if err := checkRequired(m); err != nil {
		return nil, err
	}

	// Round-trip through JSON so numeric and flag coercion lives in one place.
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("config: failed to encode mapping: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode mapping: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func checkRequired(m map[string]interface{}) error {
	var missing []string
	for _, k := range requiredKeys {
		if _, ok := m[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingKeysError{Keys: missing}
	}
	return nil
}

// Load reads a JSON, YAML or TOML configuration file. The format is chosen
// by extension: .yaml and .yml are YAML, .toml is TOML, everything else is
// JSON. YAML documents decode straight into Config through its yaml tags
// once the required keys are known to be present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	m := make(map[string]interface{})
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return decodeYAML(data, m)
	case ".toml":
		err = toml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return FromMap(m)
}

func decodeYAML(data []byte, m map[string]interface{}) (*Config, error) {
	if err := checkRequired(m); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks parameter ranges.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	ranges := []struct {
		name     string
		min, max float64
	}{
		{"scalem/scaleM", c.ScaleMin, c.ScaleMax},
		{"mot_km/mot_kM", float64(c.MotionKernelMin), float64(c.MotionKernelMax)},
		{"mot_dm/mot_dM", c.MotionDirMin, c.MotionDirMax},
		{"jpegm/jpegM", float64(c.JPEGMin), float64(c.JPEGMax)},
		{"con_alpham/con_alphaM", c.ContrastAlphaMin, c.ContrastAlphaMax},
		{"col_mulm/col_mulM", c.ColorMulMin, c.ColorMulMax},
		{"col_addm/col_addM", c.ColorAddMin, c.ColorAddMax},
		{"co_sm/co_sM", c.CutoutSizeMin, c.CutoutSizeMax},
	}
	for _, r := range ranges {
		if r.min > r.max {
			add("%s: min %v exceeds max %v", r.name, r.min, r.max)
		}
	}

	magnitudes := map[string]float64{
		"trans":  c.Trans,
		"rot":    c.Rot,
		"shear":  c.Shear,
		"pers":   c.Pers,
		"sigma":  c.Sigma,
		"mot_an": c.MotionAngle,
		"co_num": float64(c.CutoutNum),
	}
	names := make([]string, 0, len(magnitudes))
	for k := range magnitudes {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if magnitudes[k] < 0 {
			add("%s: must not be negative, got %v", k, magnitudes[k])
		}
	}

	if c.ScaleMin <= 0 {
		add("scalem: must be positive, got %v", c.ScaleMin)
	}
	if c.JPEGMin < 1 || c.JPEGMax > 100 {
		add("jpegm/jpegM: quality must be within 1..100")
	}
	if c.MotionKernelMin < 3 {
		add("mot_km: kernel size must be at least 3, got %d", c.MotionKernelMin)
	}
	if c.MotionDirMin < -1 || c.MotionDirMax > 1 {
		add("mot_dm/mot_dM: direction must be within -1..1")
	}
	if c.CutoutSizeMin < 0 || c.CutoutSizeMax > 1 {
		add("co_sm/co_sM: size fraction must be within 0..1")
	}
	if c.PhotometricMax != nil && (*c.PhotometricMax < 0 || *c.PhotometricMax > PhotometricPoolSize) {
		add("photo_max: must be within 0..%d, got %d", PhotometricPoolSize, *c.PhotometricMax)
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid values: %s", strings.Join(problems, "; "))
	}
	return nil
}

// KeepSize reports whether the perspective operator preserves output size.
func (c *Config) KeepSize() bool {
	if c.PerspectiveKeepSize == nil {
		return true
	}
	return *c.PerspectiveKeepSize
}

// PhotometricLimit returns the upper bound of the photometric subset size.
func (c *Config) PhotometricLimit() int {
	if c.PhotometricMax == nil {
		return DefaultPhotometricMax
	}
	return *c.PhotometricMax
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.PerspectiveKeepSize != nil {
		v := *c.PerspectiveKeepSize
		out.PerspectiveKeepSize = &v
	}
	if c.PhotometricMax != nil {
		v := *c.PhotometricMax
		out.PhotometricMax = &v
	}
	return &out
}

// Default returns a moderate configuration for detector training.
func Default() *Config {
	return &Config{
		ScaleMin:         0.8,
		ScaleMax:         1.2,
		Trans:            0.1,
		Rot:              10,
		Shear:            5,
		Pers:             0.05,
		Sigma:            1.5,
		MotionKernelMin:  3,
		MotionKernelMax:  7,
		MotionAngle:      45,
		MotionDirMin:     -1,
		MotionDirMax:     1,
		JPEGMin:          60,
		JPEGMax:          95,
		ContrastAlphaMin: 0.75,
		ContrastAlphaMax: 1.25,
		ContrastChannel:  false,
		ColorMulMin:      0.8,
		ColorMulMax:      1.2,
		ColorChannel:     true,
		ColorAddMin:      -20,
		ColorAddMax:      20,
		CutoutNum:        3,
		CutoutSizeMin:    0.05,
		CutoutSizeMax:    0.2,
	}
}
