package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultBoxColor is used for previews when no color is given.
var DefaultBoxColor = color.RGBA{0, 255, 0, 255}

// LabeledRect is an integer box with its class id, as drawn on a preview.
type LabeledRect struct {
	Rect    image.Rectangle
	ClassID int
}

// DrawBoxes returns a copy of img with each rectangle outlined in c and its
// class id printed inside the top-left corner. Rectangles are clipped to the
// image; Max is exclusive, so the outline sits on the last row and column
// inside the box.
func DrawBoxes(img image.Image, rects []LabeledRect, c color.Color) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	if c == nil {
		c = DefaultBoxColor
	}
	fg := color.RGBAModel.Convert(c).(color.RGBA)
	labelColor := color.RGBA{0, 0, 0, 255}

	for _, lr := range rects {
		r := lr.Rect.Intersect(result.Bounds())
		if r.Empty() {
			continue
		}

		for x := r.Min.X; x < r.Max.X; x++ {
			result.SetRGBA(x, r.Min.Y, fg)
			result.SetRGBA(x, r.Max.Y-1, fg)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			result.SetRGBA(r.Min.X, y, fg)
			result.SetRGBA(r.Max.X-1, y, fg)
		}

		drawLabel(result, r.Min.X+2, r.Min.Y+2, strconv.Itoa(lr.ClassID), labelColor, fg)
	}

	return result
}

// ParseHexColor parses "#RRGGBB".
func ParseHexColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c.Clamped(), nil
}

// drawLabel draws text with its top-left corner at (x, y) over a filled
// background.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	labelWidth := len(text) * face.Advance
	labelHeight := face.Height

	bgRect := image.Rect(x-1, y-1, x+labelWidth+1, y+labelHeight).Intersect(img.Bounds())
	draw.Draw(img, bgRect, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}
