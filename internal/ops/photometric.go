package ops

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/boxaug/internal/bbox"
	"github.com/ironsheep/boxaug/internal/sampler"
)

// GaussianBlur blurs with a sigma drawn from Sigma.
type GaussianBlur struct {
	Sigma Range
}

func (g GaussianBlur) Name() string { return "gaussian_blur" }

func (g GaussianBlur) Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error) {
	sigma := g.Sigma.Sample(s)
	if sigma <= 0 {
		return img, boxes, nil
	}
	return imaging.Blur(img, sigma), boxes, nil
}

// MotionBlur convolves with a line kernel.
//
// Kernel is the side length (forced odd), Angle rotates the line in degrees,
// and Direction in [-1, 1] shifts weight toward one end of the line: 0 is a
// symmetric streak, -1 and 1 are one-sided.
type MotionBlur struct {
	Kernel    Range
	Angle     Range
	Direction Range
}

func (m MotionBlur) Name() string { return "motion_blur" }

func (m MotionBlur) Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error) {
	size := m.Kernel.SampleInt(s)
	angle := m.Angle.Sample(s)
	direction := m.Direction.Sample(s)

	k := MotionKernel(size, angle, direction)
	out := convolution.Convolve(img, k.Normalized(), &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})
	return out, boxes, nil
}

// MotionKernel builds the unnormalized line kernel used by MotionBlur.
func MotionKernel(size int, angleDeg, direction float64) *convolution.Kernel {
	if size < 3 {
		size = 3
	}
	if size%2 == 0 {
		size++
	}

	k := convolution.NewKernel(size, size)
	c := float64(size / 2)
	theta := angleDeg * math.Pi / 180
	// Unit vector along the streak; angle 0 is vertical.
	ux, uy := math.Sin(theta), math.Cos(theta)

	d := (clampFloat(direction, -1, 1) + 1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px, py := float64(x)-c, float64(y)-c
			along := px*ux + py*uy
			across := px*uy - py*ux
			if math.Abs(across) >= 0.5 || math.Abs(along) > c+0.5 {
				continue
			}
			t := (along + c) / (2 * c) // 0 at one end, 1 at the other
			t = clampFloat(t, 0, 1)
			w := d + t*(1-2*d)
			if w <= 0 {
				// Keep the far end of a one-sided streak from vanishing entirely.
				w = 1e-3
			}
			k.Matrix[y*size+x] = w
		}
	}
	return k
}

// JPEGCompression re-encodes the image as JPEG at a random quality to
// simulate compression artifacts.
type JPEGCompression struct {
	Quality Range // 1..100
}

func (j JPEGCompression) Name() string { return "jpeg_compression" }

func (j JPEGCompression) Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error) {
	q := j.Quality.SampleInt(s)
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return nil, bbox.BoxSet{}, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	out, err := imaging.Decode(&buf)
	if err != nil {
		return nil, bbox.BoxSet{}, fmt.Errorf("failed to decode jpeg: %w", err)
	}
	return out, boxes, nil
}

// Contrast scales each channel around mid-gray: v' = 127.5 + alpha*(v-127.5).
// With PerChannel every channel gets its own alpha.
type Contrast struct {
	Alpha      Range
	PerChannel bool
}

func (c Contrast) Name() string { return "contrast" }

func (c Contrast) Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error) {
	if !c.PerChannel {
		return adjust.Contrast(img, c.Alpha.Sample(s)-1), boxes, nil
	}

	var lut [3][256]uint8
	for ch := 0; ch < 3; ch++ {
		alpha := c.Alpha.Sample(s)
		for v := 0; v < 256; v++ {
			lut[ch][v] = uint8(clampFloat(math.Round(127.5+alpha*(float64(v)-127.5)), 0, 255))
		}
	}
	out := adjust.Apply(img, func(px color.RGBA) color.RGBA {
		return color.RGBA{R: lut[0][px.R], G: lut[1][px.G], B: lut[2][px.B], A: px.A}
	})
	return out, boxes, nil
}

// ColorOrder is the channel order the hue/saturation operators assume for
// their input.
type ColorOrder string

const (
	RGB ColorOrder = "RGB"
	BGR ColorOrder = "BGR"
)

// HueSaturationMultiply multiplies hue and saturation in HSV space. Without
// PerChannel one factor is shared by both; with it each gets its own draw.
type HueSaturationMultiply struct {
	Mul        Range
	PerChannel bool
	Order      ColorOrder
}

func (h HueSaturationMultiply) Name() string { return "hue_saturation_multiply" }

func (h HueSaturationMultiply) Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error) {
	mulH := h.Mul.Sample(s)
	mulS := mulH
	if h.PerChannel {
		mulS = h.Mul.Sample(s)
	}

	out := remapHSV(img, h.Order, func(hue, sat float64) (float64, float64) {
		return hue * mulH, sat * mulS
	})
	return out, boxes, nil
}

// HueSaturationAdd adds a delta to hue and saturation. Deltas use the
// -255..255 scale: hue shifts by delta/255*180 degrees and saturation by
// delta/255.
type HueSaturationAdd struct {
	Add        Range
	PerChannel bool
}

func (h HueSaturationAdd) Name() string { return "hue_saturation_add" }

func (h HueSaturationAdd) Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error) {
	addH := h.Add.Sample(s)
	addS := addH
	if h.PerChannel {
		addS = h.Add.Sample(s)
	}

	out := remapHSV(img, RGB, func(hue, sat float64) (float64, float64) {
		return hue + addH/255*180, sat + addS/255
	})
	return out, boxes, nil
}

// remapHSV applies fn to the hue (degrees) and saturation (0..1) of every
// pixel. Hue wraps; saturation is clamped.
func remapHSV(img image.Image, order ColorOrder, fn func(h, s float64) (float64, float64)) *image.RGBA {
	return adjust.Apply(img, func(px color.RGBA) color.RGBA {
		r, b := px.R, px.B
		if order == BGR {
			r, b = b, r
		}

		c := colorful.Color{R: float64(r) / 255, G: float64(px.G) / 255, B: float64(b) / 255}
		hue, sat, val := c.Hsv()
		hue, sat = fn(hue, sat)

		hue = math.Mod(hue, 360)
		if hue < 0 {
			hue += 360
		}
		sat = clampFloat(sat, 0, 1)

		nr, ng, nb := colorful.Hsv(hue, sat, val).Clamped().RGB255()
		if order == BGR {
			nr, nb = nb, nr
		}
		return color.RGBA{R: nr, G: ng, B: nb, A: px.A}
	})
}
