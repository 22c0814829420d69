// Package ops implements the augmentation operators.
//
// Every operator satisfies the same capability: take an image and the boxes
// bound to it, return the transformed image and boxes. Geometric operators
// move boxes; photometric and occlusion operators change pixels only.
//
// # Randomness
//
// Operators are immutable parameter descriptors. Every random parameter is
// drawn from the Sampler passed to Apply, independently per call, so a
// single operator value can be reused across calls and goroutines.
//
// # Fill Color
//
// Regions exposed by a warp and cutout rectangles are painted with FillColor,
// the same gray used by the letterbox padding that precedes augmentation.
package ops

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/boxaug/internal/bbox"
	"github.com/ironsheep/boxaug/internal/sampler"
)

// FillValue is the per-channel gray level used for exposed canvas.
const FillValue = 114

// FillColor is FillValue as an opaque color.
var FillColor color.Color = color.NRGBA{R: FillValue, G: FillValue, B: FillValue, A: 255}

// Operator is a stochastic image-and-box transformation.
type Operator interface {
	// Name identifies the operator in logs and pipeline descriptions.
	Name() string

	// Apply transforms img and boxes. The returned BoxSet is bound to the
	// returned image's dimensions.
	Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error)
}

// Range is a closed interval a parameter is sampled from.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Symmetric returns the range [-m, m].
func Symmetric(m float64) Range {
	return Range{Min: -m, Max: m}
}

// Sample draws a value uniformly from the range.
func (r Range) Sample(s sampler.Sampler) float64 {
	return sampler.Uniform(s, r.Min, r.Max)
}

// SampleInt draws an integer uniformly from the closed range.
func (r Range) SampleInt(s sampler.Sampler) int {
	return sampler.IntBetween(s, int(r.Min), int(r.Max))
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// toNRGBA returns img as an *image.NRGBA with bounds at the origin, copying
// only when necessary.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// fillOrDefault returns c, or FillColor when c is nil.
func fillOrDefault(c color.Color) color.Color {
	if c == nil {
		return FillColor
	}
	return c
}
