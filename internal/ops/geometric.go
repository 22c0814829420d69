package ops

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ironsheep/boxaug/internal/bbox"
	"github.com/ironsheep/boxaug/internal/sampler"
)

// Affine scales, translates, rotates and shears the image about its centre.
// The output canvas has the input size; exposed regions get Fill.
type Affine struct {
	Scale      Range // multiplicative
	TranslateX Range // fraction of width
	TranslateY Range // fraction of height
	Rotate     Range // degrees
	Shear      Range // degrees, along x
	Fill       color.Color
}

func (a Affine) Name() string { return "affine" }

// Matrix samples one set of parameters and returns the source-to-destination
// transform for a w x h image.
func (a Affine) Matrix(w, h int, s sampler.Sampler) f64.Aff3 {
	scale := a.Scale.Sample(s)
	tx := a.TranslateX.Sample(s) * float64(w)
	ty := a.TranslateY.Sample(s) * float64(h)
	rot := a.Rotate.Sample(s) * math.Pi / 180
	shear := a.Shear.Sample(s) * math.Pi / 180

	cx, cy := float64(w)/2, float64(h)/2
	cos, sin := math.Cos(rot), math.Sin(rot)
	k := -math.Tan(shear)

	// R * Sh * S, then shift so the centre maps to centre + translation.
	m00 := cos * scale
	m01 := (cos*k - sin) * scale
	m10 := sin * scale
	m11 := (sin*k + cos) * scale

	return f64.Aff3{
		m00, m01, cx + tx - m00*cx - m01*cy,
		m10, m11, cy + ty - m10*cx - m11*cy,
	}
}

func (a Affine) Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error) {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	m := a.Matrix(w, h, s)

	dst := imaging.New(w, h, fillOrDefault(a.Fill))
	draw.BiLinear.Transform(dst, m, src, src.Bounds(), draw.Src, nil)

	out := boxes.Map(w, h, func(x, y float64) (float64, float64) {
		return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
	})
	return dst, out, nil
}

// Perspective moves each image corner inward by a random distance and maps
// the resulting quadrilateral onto the output rectangle.
//
// With KeepSize the output has the input size. Without it the output takes
// the quadrilateral's own extent, so the canvas shrinks.
type Perspective struct {
	Scale    Range // standard deviation of the corner jitter, fraction of each side
	KeepSize bool
	Fill     color.Color
}

func (p Perspective) Name() string { return "perspective" }

// maxJitter keeps opposite corners from crossing.
const maxJitter = 0.45

// Quad samples the source quadrilateral (TL, TR, BR, BL) for a w x h image.
func (p Perspective) Quad(w, h int, s sampler.Sampler) [4][2]float64 {
	sigma := p.Scale.Sample(s)
	jitter := func(size int) float64 {
		d := math.Min(math.Abs(s.NormFloat64()*sigma), maxJitter)
		return d * float64(size)
	}

	fw, fh := float64(w), float64(h)
	return [4][2]float64{
		{jitter(w), jitter(h)},
		{fw - jitter(w), jitter(h)},
		{fw - jitter(w), fh - jitter(h)},
		{jitter(w), fh - jitter(h)},
	}
}

func (p Perspective) Apply(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, error) {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	quad := p.Quad(w, h, s)

	outW, outH := w, h
	if !p.KeepSize {
		outW = int(math.Round(math.Max(quad[1][0], quad[2][0]) - math.Min(quad[0][0], quad[3][0])))
		outH = int(math.Round(math.Max(quad[2][1], quad[3][1]) - math.Min(quad[0][1], quad[1][1])))
		outW = maxInt(outW, 1)
		outH = maxInt(outH, 1)
	}

	rect := [4][2]float64{
		{0, 0},
		{float64(outW), 0},
		{float64(outW), float64(outH)},
		{0, float64(outH)},
	}
	if quad == rect {
		return src, boxes.WithShape(boxes.Boxes, outW, outH), nil
	}

	fwd, err := solveHomography(quad, rect)
	if err != nil {
		return nil, bbox.BoxSet{}, fmt.Errorf("perspective: %w", err)
	}
	inv, err := solveHomography(rect, quad)
	if err != nil {
		return nil, bbox.BoxSet{}, fmt.Errorf("perspective: %w", err)
	}

	dst := warpPerspective(src, inv, outW, outH, fillOrDefault(p.Fill))

	out := boxes.Map(outW, outH, func(x, y float64) (float64, float64) {
		return fwd.apply(x, y)
	})
	return dst, out, nil
}

// homography is a 3x3 projective matrix in row-major order.
type homography [9]float64

func (m homography) apply(x, y float64) (float64, float64) {
	d := m[6]*x + m[7]*y + m[8]
	return (m[0]*x + m[1]*y + m[2]) / d, (m[3]*x + m[4]*y + m[5]) / d
}

// solveHomography finds H with H(from[i]) = to[i] by Gaussian elimination
// on the 8x8 direct linear system.
func solveHomography(from, to [4][2]float64) (homography, error) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := from[i][0], from[i][1]
		u, v := to[i][0], to[i][1]
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return homography{}, fmt.Errorf("degenerate quadrilateral")
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			f := a[r][col] / a[col][col]
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	var m homography
	for i := 0; i < 8; i++ {
		m[i] = a[i][8] / a[i][i]
	}
	m[8] = 1
	return m, nil
}

// warpPerspective samples src bilinearly at inv(dst pixel centre).
func warpPerspective(src *image.NRGBA, inv homography, w, h int, fill color.Color) *image.NRGBA {
	dst := imaging.New(w, h, fill)
	fc := color.NRGBAModel.Convert(fill).(color.NRGBA)
	fillPx := [4]float64{float64(fc.R), float64(fc.G), float64(fc.B), float64(fc.A)}

	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	at := func(x, y int) [4]float64 {
		if x < 0 || y < 0 || x >= sw || y >= sh {
			return fillPx
		}
		i := y*src.Stride + x*4
		return [4]float64{float64(src.Pix[i]), float64(src.Pix[i+1]), float64(src.Pix[i+2]), float64(src.Pix[i+3])}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := inv.apply(float64(x)+0.5, float64(y)+0.5)
			sx -= 0.5
			sy -= 0.5
			if sx < -1 || sy < -1 || sx > float64(sw) || sy > float64(sh) {
				continue
			}

			x0, y0 := int(math.Floor(sx)), int(math.Floor(sy))
			dx, dy := sx-float64(x0), sy-float64(y0)
			p00, p10 := at(x0, y0), at(x0+1, y0)
			p01, p11 := at(x0, y0+1), at(x0+1, y0+1)

			i := y*dst.Stride + x*4
			for c := 0; c < 4; c++ {
				top := p00[c]*(1-dx) + p10[c]*dx
				bot := p01[c]*(1-dx) + p11[c]*dx
				dst.Pix[i+c] = uint8(clampFloat(math.Round(top*(1-dy)+bot*dy), 0, 255))
			}
		}
	}
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
