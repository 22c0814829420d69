// Package boxaug augments images together with their bounding-box
// annotations.
//
// An Augmenter runs a randomized pipeline over one image and its boxes:
//
//  1. Annotations are converted to boxes bound to the image size.
//  2. The composition policy picks operators and applies them in a
//     shuffled order.
//  3. Boxes are clipped to the output image and degenerate ones dropped.
//  4. Surviving boxes are floored back into annotation records.
//
// Class ids are never altered, and the output is never more boxes than the
// input. Photometric and occlusion operators leave boxes untouched, so a box
// under a cutout rectangle is kept.
//
// # Usage
//
//	aug, err := boxaug.NewFromFile("augment.yaml", boxaug.WithSeed(1))
//	if err != nil {
//	    return err
//	}
//	img, anns, err := aug.Augment(src, anns)
//
// Without WithSeed or WithSampler the augmenter draws from a clock-seeded,
// goroutine-safe source.
package boxaug

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/ironsheep/boxaug/internal/bbox"
	"github.com/ironsheep/boxaug/internal/config"
	"github.com/ironsheep/boxaug/internal/policy"
	"github.com/ironsheep/boxaug/internal/sampler"
)

// Annotation is one labeled object: (class_id, x1, y1, x2, y2).
type Annotation = bbox.Annotation

// Config holds the augmentation hyperparameters.
type Config = config.Config

// Description lists the operator pools of an augmenter.
type Description = policy.Description

// ErrMalformedAnnotation is returned when an input record is unusable.
var ErrMalformedAnnotation = bbox.ErrMalformedAnnotation

// Augmenter applies a randomized augmentation pipeline to an image and its
// annotations. It is safe for concurrent use when its sampler is.
type Augmenter struct {
	cfg     *config.Config
	policy  *policy.Policy
	sampler sampler.Sampler
	log     *logrus.Logger
}

type options struct {
	sampler  sampler.Sampler
	seed     *int64
	logger   *logrus.Logger
	photoMax *int
}

// Option configures an Augmenter.
type Option func(*options)

// WithSampler sets the random source. The caller is responsible for its
// goroutine safety.
func WithSampler(s sampler.Sampler) Option {
	return func(o *options) { o.sampler = s }
}

// WithSeed uses a goroutine-safe source seeded with seed.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = &seed }
}

// WithLogger sets the logger for per-call debug output.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPhotometricMax overrides the photometric subset bound from the config.
func WithPhotometricMax(n int) Option {
	return func(o *options) { o.photoMax = &n }
}

// New creates an augmenter from a configuration.
func New(cfg *Config, opts ...Option) (*Augmenter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("boxaug: nil config")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.Clone()
	pools, err := policy.BuildPools(cfg)
	if err != nil {
		return nil, fmt.Errorf("boxaug: %w", err)
	}

	photoMax := cfg.PhotometricLimit()
	if o.photoMax != nil {
		photoMax = *o.photoMax
	}
	pol, err := policy.New(pools, photoMax)
	if err != nil {
		return nil, fmt.Errorf("boxaug: %w", err)
	}

	s := o.sampler
	if s == nil {
		seed := time.Now().UnixNano()
		if o.seed != nil {
			seed = *o.seed
		}
		s = sampler.NewLocked(seed)
	}

	log := o.logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
		log.SetLevel(logrus.WarnLevel)
	}

	return &Augmenter{cfg: cfg, policy: pol, sampler: s, log: log}, nil
}

// NewFromMap creates an augmenter from a decoded key/value configuration.
// Missing required keys are reported together in a *config.MissingKeysError.
func NewFromMap(m map[string]interface{}, opts ...Option) (*Augmenter, error) {
	cfg, err := config.FromMap(m)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// NewFromFile creates an augmenter from a JSON, YAML or TOML configuration
// file, chosen by extension.
func NewFromFile(path string, opts ...Option) (*Augmenter, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Config returns a copy of the augmenter's configuration.
func (a *Augmenter) Config() *Config {
	return a.cfg.Clone()
}

// Describe returns the operator pools and the photometric bound.
func (a *Augmenter) Describe() Description {
	return a.policy.Describe()
}

// Result is the outcome of one augmentation call.
type Result struct {
	Image       image.Image
	Annotations []Annotation
	// Operators names the applied operators in application order.
	Operators []string
}

// Augment runs one randomized pipeline over img and anns.
//
// The returned annotations are bound to the returned image, whose size may
// differ from the input. An empty result is not an error. A *image.Gray
// input yields a *image.Gray output.
func (a *Augmenter) Augment(img image.Image, anns []Annotation) (image.Image, []Annotation, error) {
	res, err := a.Run(img, anns)
	if err != nil {
		return nil, nil, err
	}
	return res.Image, res.Annotations, nil
}

// Run is Augment that also reports the applied operators.
func (a *Augmenter) Run(img image.Image, anns []Annotation) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("boxaug: nil image")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("boxaug: empty image %v", bounds)
	}

	boxes, err := bbox.ToBoxes(anns, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	// A box outside the input frame is dropped even if a transform would
	// carry it into view.
	outside := make([]bool, len(boxes.Boxes))
	for i, b := range boxes.Boxes {
		outside[i] = b.Outside(boxes.Width, boxes.Height)
	}

	out, boxes, applied, err := a.policy.Run(img, boxes, a.sampler)
	if err != nil {
		return nil, fmt.Errorf("boxaug: %w", err)
	}
	if len(boxes.Boxes) != len(outside) {
		return nil, fmt.Errorf("boxaug: operators returned %d boxes for %d inputs", len(boxes.Boxes), len(outside))
	}

	kept := make([]bbox.Box, 0, len(boxes.Boxes))
	for i, b := range boxes.Boxes {
		if !outside[i] {
			kept = append(kept, b)
		}
	}

	ob := out.Bounds()
	boxes = bbox.Filter(boxes.WithShape(kept, ob.Dx(), ob.Dy()))
	result := bbox.ToAnnotations(boxes)

	if _, ok := img.(*image.Gray); ok {
		out = toGray(out)
	}

	a.log.WithFields(logrus.Fields{
		"operators": applied,
		"boxes_in":  len(anns),
		"boxes_out": len(result),
		"size_in":   fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"size_out":  fmt.Sprintf("%dx%d", ob.Dx(), ob.Dy()),
	}).Debug("augmented image")

	return &Result{Image: out, Annotations: result, Operators: applied}, nil
}

// AugmentRows is Augment for raw (class_id, x1, y1, x2, y2) rows.
func (a *Augmenter) AugmentRows(img image.Image, rows [][]float64) (image.Image, [][5]float32, error) {
	anns, err := bbox.FromRows(rows)
	if err != nil {
		return nil, nil, err
	}

	out, result, err := a.Augment(img, anns)
	if err != nil {
		return nil, nil, err
	}

	records := make([][5]float32, len(result))
	for i, ann := range result {
		records[i] = ann.Row()
	}
	return out, records, nil
}

// toGray converts img to a single-channel image with bounds at the origin.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
