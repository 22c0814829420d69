package ops

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/boxaug/internal/bbox"
	"github.com/ironsheep/boxaug/internal/sampler"
)

// Cutout paints between Count.Min and Count.Max rectangles with Fill. Each
// side is drawn independently as a fraction of the matching image side, so
// rectangles need not be square. Boxes are left as they are: an occluded
// object is still present.
type Cutout struct {
	Count Range // number of rectangles, inclusive
	Size  Range // side length as a fraction of the image side
	Fill  color.Color
}

func (c Cutout) Name() string { return "cutout" }

// Rects samples the occluding rectangles for a w x h image. Rectangles may
// extend past the image edge; painting clips them.
func (c Cutout) Rects(w, h int, s sampler.Sampler) []image.Rectangle {
	n := c.Count.SampleInt(s)
	rects := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		rw := int(math.Round(c.Size.Sample(s) * float64(w)))
		rh := int(math.Round(c.Size.Sample(s) * float64(h)))
		cx := s.Intn(maxInt(w, 1))
		cy := s.Intn(maxInt(h, 1))
		if rw < 1 || rh < 1 {
			continue
		}
		x0, y0 := cx-rw/2, cy-rh/2
		rects = append(rects, image.Rect(x0, y0, x0+rw, y0+rh))
	}
	return rects
}

func (c Cutout) Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error) {
	b := img.Bounds()
	rects := c.Rects(b.Dx(), b.Dy(), s)
	if len(rects) == 0 {
		return img, boxes, nil
	}

	fill := fillOrDefault(c.Fill)
	out := toNRGBA(img)
	for _, r := range rects {
		patch := imaging.New(r.Dx(), r.Dy(), fill)
		out = imaging.Paste(out, patch, r.Min)
	}
	return out, boxes, nil
}
