// Package bbox converts between flat annotation records and the geometric
// boxes the augmentation operators transform, and filters boxes that leave
// the image plane after a transform.
//
// # Coordinate System
//
// Coordinates are absolute pixels with the origin at the top-left corner:
//   - (X1, Y1) is the top-left corner
//   - (X2, Y2) is the bottom-right corner, X1 < X2 and Y1 < Y2
//
// The class id travels with each box as an opaque label. No operator ever
// reads or changes it.
package bbox

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedAnnotation is returned for records that violate x1 < x2, y1 < y2
// or that cannot be coerced to a 5-field numeric record.
var ErrMalformedAnnotation = errors.New("malformed annotation")

// Annotation is one labeled object in a frame: (class_id, x1, y1, x2, y2).
type Annotation struct {
	ClassID int     `json:"class_id"`
	X1      float32 `json:"x1"`
	Y1      float32 `json:"y1"`
	X2      float32 `json:"x2"`
	Y2      float32 `json:"y2"`
}

// Row returns the record in its flat 5-field form.
func (a Annotation) Row() [5]float32 {
	return [5]float32{float32(a.ClassID), a.X1, a.Y1, a.X2, a.Y2}
}

// Box is the transform-side representation of an annotation.
type Box struct {
	X1, Y1, X2, Y2 float64
	Label          int
}

// Outside reports whether b has no overlap with the plane
// [0,width] x [0,height]. Touching an edge counts as outside.
func (b Box) Outside(width, height int) bool {
	return b.X2 <= 0 || b.Y2 <= 0 || b.X1 >= float64(width) || b.Y1 >= float64(height)
}

// Transform maps the four corners through fn and returns their axis-aligned
// hull. The label is carried over unchanged.
func (b Box) Transform(fn func(x, y float64) (float64, float64)) Box {
	corners := [4][2]float64{
		{b.X1, b.Y1},
		{b.X2, b.Y1},
		{b.X2, b.Y2},
		{b.X1, b.Y2},
	}

	out := Box{
		X1:    math.Inf(1),
		Y1:    math.Inf(1),
		X2:    math.Inf(-1),
		Y2:    math.Inf(-1),
		Label: b.Label,
	}
	for _, c := range corners {
		x, y := fn(c[0], c[1])
		out.X1 = math.Min(out.X1, x)
		out.Y1 = math.Min(out.Y1, y)
		out.X2 = math.Max(out.X2, x)
		out.Y2 = math.Max(out.Y2, y)
	}
	return out
}

// BoxSet is a list of boxes bound to the pixel dimensions of one image.
type BoxSet struct {
	Boxes  []Box
	Width  int
	Height int
}

// WithShape returns a copy of the set with new boxes and dimensions.
func (s BoxSet) WithShape(boxes []Box, width, height int) BoxSet {
	return BoxSet{Boxes: boxes, Width: width, Height: height}
}

// Map applies fn to every box and returns the resulting set bound to the
// given dimensions. Order is preserved.
func (s BoxSet) Map(width, height int, fn func(x, y float64) (float64, float64)) BoxSet {
	boxes := make([]Box, len(s.Boxes))
	for i, b := range s.Boxes {
		boxes[i] = b.Transform(fn)
	}
	return s.WithShape(boxes, width, height)
}

// FromRows coerces raw numeric rows into annotations.
//
// Each row must have exactly 5 finite values and an integral class id that
// fits in an int32.
// Coordinate ordering is not checked here; ToBoxes does that.
func FromRows(rows [][]float64) ([]Annotation, error) {
	anns := make([]Annotation, 0, len(rows))
	for i, row := range rows {
		if len(row) != 5 {
			return nil, fmt.Errorf("%w: row %d has %d fields, want 5", ErrMalformedAnnotation, i, len(row))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d field %d is not a finite number", ErrMalformedAnnotation, i, j)
			}
		}
		if row[0] != math.Trunc(row[0]) {
			return nil, fmt.Errorf("%w: row %d class id %v is not an integer", ErrMalformedAnnotation, i, row[0])
		}
		if row[0] < math.MinInt32 || row[0] > math.MaxInt32 {
			return nil, fmt.Errorf("%w: row %d class id %v is outside the int32 range", ErrMalformedAnnotation, i, row[0])
		}
		anns = append(anns, Annotation{
			ClassID: int(row[0]),
			X1:      float32(row[1]),
			Y1:      float32(row[2]),
			X2:      float32(row[3]),
			Y2:      float32(row[4]),
		})
	}
	return anns, nil
}

// ToBoxes maps each annotation to a box bound to an image of the given size.
// Records are not repaired: x1 >= x2 or y1 >= y2 is an error.
func ToBoxes(anns []Annotation, width, height int) (BoxSet, error) {
	boxes := make([]Box, len(anns))
	for i, a := range anns {
		if !(a.X1 < a.X2) || !(a.Y1 < a.Y2) {
			return BoxSet{}, fmt.Errorf("%w: record %d (%v,%v)-(%v,%v) has unordered corners",
				ErrMalformedAnnotation, i, a.X1, a.Y1, a.X2, a.Y2)
		}
		boxes[i] = Box{
			X1:    float64(a.X1),
			Y1:    float64(a.Y1),
			X2:    float64(a.X2),
			Y2:    float64(a.Y2),
			Label: a.ClassID,
		}
	}
	return BoxSet{Boxes: boxes, Width: width, Height: height}, nil
}

// ToAnnotations is the inverse of ToBoxes. Both corners are floored before
// being written back as float32.
func ToAnnotations(set BoxSet) []Annotation {
	anns := make([]Annotation, 0, len(set.Boxes))
	for _, b := range set.Boxes {
		anns = append(anns, Annotation{
			ClassID: b.Label,
			X1:      float32(math.Floor(b.X1)),
			Y1:      float32(math.Floor(b.Y1)),
			X2:      float32(math.Floor(b.X2)),
			Y2:      float32(math.Floor(b.Y2)),
		})
	}
	return anns
}
