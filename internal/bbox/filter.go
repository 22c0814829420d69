package bbox

import "math"

// Filter clips boxes to the image plane [0,Width] x [0,Height] and drops the
// ones that carry no spatial information afterwards.
//
// Steps, in order:
//  1. Clip every coordinate to the plane.
//  2. Drop boxes that were entirely outside the plane.
//  3. Drop boxes with zero width or height on the integer pixel grid.
//
// Step 3 measures extent after flooring, the same rounding ToAnnotations
// applies, so every surviving record has x1 < x2 and y1 < y2.
func Filter(set BoxSet) BoxSet {
	w := float64(set.Width)
	h := float64(set.Height)

	kept := make([]Box, 0, len(set.Boxes))
	for _, b := range set.Boxes {
		outside := b.Outside(set.Width, set.Height)

		c := Box{
			X1:    clip(b.X1, 0, w),
			Y1:    clip(b.Y1, 0, h),
			X2:    clip(b.X2, 0, w),
			Y2:    clip(b.Y2, 0, h),
			Label: b.Label,
		}

		if outside {
			continue
		}
		if math.Floor(c.X2) <= math.Floor(c.X1) || math.Floor(c.Y2) <= math.Floor(c.Y1) {
			continue
		}
		kept = append(kept, c)
	}

	return set.WithShape(kept, set.Width, set.Height)
}

func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
