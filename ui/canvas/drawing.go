package canvas

import (
	"image"
	"image/color"

	"floorplan-studio/internal/input"
	"floorplan-studio/internal/mask"
	"floorplan-studio/internal/viewport"
	"floorplan-studio/pkg/colorutil"
	"floorplan-studio/pkg/geometry"
)

var (
	backgroundColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	eraseColor      = color.RGBA{R: 230, G: 70, B: 70, A: 255}
	restoreColor    = colorutil.Green
)

// fillBackground paints the surface with the workspace background color.
func fillBackground(out *image.RGBA) {
	pix := out.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = backgroundColor.R
		pix[i+1] = backgroundColor.G
		pix[i+2] = backgroundColor.B
		pix[i+3] = 255
	}
}

// fitContain returns the layout size of an nw x nh image fitted inside a
// w x h surface, preserving aspect ratio.
func fitContain(nw, nh, w, h int) (float64, float64) {
	if nw <= 0 || nh <= 0 {
		return 0, 0
	}
	scaleX := float64(w) / float64(nw)
	scaleY := float64(h) / float64(nh)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	return float64(nw) * scale, float64(nh) * scale
}

// compositeBase renders the base image and tint overlay through the inverse
// viewport transform, sampling nearest-neighbor per output pixel the way the
// layer compositor does.
func (wc *WorkspaceCanvas) compositeBase(out *image.RGBA, base image.Image, tint *image.RGBA,
	st viewport.State, layoutW, layoutH float64, nw, nh int) {

	srcMin := base.Bounds().Min
	bounds := out.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			layoutPt, ok := st.Unapply(geometry.Point2D{X: float64(x), Y: float64(y)})
			if !ok {
				continue
			}
			if layoutPt.X < 0 || layoutPt.X >= layoutW || layoutPt.Y < 0 || layoutPt.Y >= layoutH {
				continue
			}

			ix := int(layoutPt.X * float64(nw) / layoutW)
			iy := int(layoutPt.Y * float64(nh) / layoutH)
			if ix < 0 || ix >= nw || iy < 0 || iy >= nh {
				continue
			}

			sr, sg, sb, _ := base.At(srcMin.X+ix, srcMin.Y+iy).RGBA()
			r := uint8(sr >> 8)
			g := uint8(sg >> 8)
			b := uint8(sb >> 8)

			// Tint: translucent white over hidden regions.
			if tint != nil {
				a := float64(tint.Pix[(iy*nw+ix)*4+3]) / 255 * tintOpacity
				if a > 0 {
					inv := 1 - a
					r = uint8(float64(r)*inv + 255*a)
					g = uint8(float64(g)*inv + 255*a)
					b = uint8(float64(b)*inv + 255*a)
				}
			}

			i := out.PixOffset(x, y)
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = 255
		}
	}
}

// drawLassoPreview draws the in-progress path as a display-space polyline.
func drawLassoPreview(out *image.RGBA, preview *mask.Preview) {
	if len(preview.Points) < 2 {
		return
	}
	col := eraseColor
	if preview.Tool == input.ToolRestore {
		col = restoreColor
	}

	for i := 0; i+1 < len(preview.Points); i++ {
		p1, p2 := preview.Points[i], preview.Points[i+1]
		drawLine(out, int(p1.X), int(p1.Y), int(p2.X), int(p2.Y), col, 2)
	}
	// Closing segment back to the start shows the area a commit would fill.
	first := preview.Points[0]
	last := preview.Points[len(preview.Points)-1]
	drawLine(out, int(last.X), int(last.Y), int(first.X), int(first.Y), col, 1)
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.Set(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}
