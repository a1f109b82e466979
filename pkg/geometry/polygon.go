package geometry

import (
	"math"
	"sort"
)

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// FillPolygon rasterizes a closed polygon into a single-channel byte raster
// of the given dimensions, writing value to every covered pixel. The polygon
// is closed implicitly (last vertex connects back to the first) and filled
// with even-odd scanline rules sampled at pixel centers, so a pixel is
// covered only when its center lies inside the polygon. Polygons with fewer
// than 3 vertices cover nothing.
func FillPolygon(dst []uint8, width, height int, polygon []Point2D, value uint8) {
	if len(polygon) < 3 || width <= 0 || height <= 0 || len(dst) < width*height {
		return
	}

	bounds := BoundingBox(polygon)
	yStart := int(math.Floor(bounds.Y + 0.5))
	yEnd := int(math.Ceil(bounds.Y+bounds.Height-0.5)) - 1
	if yStart < 0 {
		yStart = 0
	}
	if yEnd >= height {
		yEnd = height - 1
	}

	n := len(polygon)
	var xs []float64

	for y := yStart; y <= yEnd; y++ {
		yc := float64(y) + 0.5
		xs = xs[:0]

		// Half-open edge rule keeps the crossing parity consistent at vertices.
		for i := 0; i < n; i++ {
			p1 := polygon[i]
			p2 := polygon[(i+1)%n]
			if (p1.Y <= yc && p2.Y > yc) || (p2.Y <= yc && p1.Y > yc) {
				t := (yc - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+t*(p2.X-p1.X))
			}
		}
		sort.Float64s(xs)

		row := dst[y*width:]
		for i := 0; i+1 < len(xs); i += 2 {
			x1 := int(math.Floor(xs[i] + 0.5))
			x2 := int(math.Ceil(xs[i+1]-0.5)) - 1
			if x1 < 0 {
				x1 = 0
			}
			if x2 >= width {
				x2 = width - 1
			}
			for x := x1; x <= x2; x++ {
				row[x] = value
			}
		}
	}
}
