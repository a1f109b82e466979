// Command maskexport rasterizes scripted lasso polygons against a floorplan
// image and writes the resulting mask and tint overlay as PNGs.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"strconv"
	"strings"

	"floorplan-studio/internal/mask"
	"floorplan-studio/internal/refine"
	"floorplan-studio/pkg/geometry"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func main() {
	imgPath := flag.String("img", "", "Path to floorplan image")
	polySpec := flag.String("poly", "", "Polygon vertices in image pixels: x1,y1;x2,y2;...")
	tool := flag.String("tool", "erase", "Lasso tool: erase or restore")
	clean := flag.Bool("clean", false, "Run morphological cleanup on the mask")
	outMask := flag.String("out-mask", "mask.png", "Output path for the mask PNG")
	outTint := flag.String("out-tint", "", "Optional output path for the tint overlay PNG")
	flag.Parse()

	if *imgPath == "" || *polySpec == "" {
		fmt.Println("Usage: maskexport -img <image> -poly x1,y1;x2,y2;... [-tool erase|restore] [-clean] [-out-mask <png>] [-out-tint <png>]")
		os.Exit(1)
	}

	polygon, err := parsePolygon(*polySpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad polygon: %v\n", err)
		os.Exit(1)
	}
	if len(polygon) < 3 {
		fmt.Fprintln(os.Stderr, "Polygon needs at least 3 vertices")
		os.Exit(1)
	}

	file, err := os.Open(*imgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open image: %v\n", err)
		os.Exit(1)
	}
	img, _, err := image.Decode(file)
	file.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode image: %v\n", err)
		os.Exit(1)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	fmt.Printf("Image: %s (%dx%d)\n", *imgPath, w, h)

	raster := &mask.Raster{
		Pix:    make([]uint8, w*h),
		Width:  w,
		Height: h,
	}
	for i := range raster.Pix {
		raster.Pix[i] = mask.MaskVisible
	}

	value := uint8(mask.MaskHidden)
	if *tool == "restore" {
		value = mask.MaskVisible
	}
	geometry.FillPolygon(raster.Pix, w, h, polygon, value)
	fmt.Printf("Rasterized %d-vertex %s polygon\n", len(polygon), *tool)

	if *clean {
		cleaned, err := refine.Clean(raster, refine.DefaultOptions())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cleanup failed: %v\n", err)
			os.Exit(1)
		}
		raster = cleaned
		fmt.Println("Applied morphological cleanup")
	}

	if err := writeMask(*outMask, raster); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write mask: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote mask: %s\n", *outMask)

	if *outTint != "" {
		if err := writeTint(*outTint, raster); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write tint: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote tint: %s\n", *outTint)
	}

	hidden := 0
	for _, v := range raster.Pix {
		if v < 128 {
			hidden++
		}
	}
	fmt.Printf("Hidden pixels: %d / %d (%.1f%%)\n",
		hidden, len(raster.Pix), 100*float64(hidden)/float64(len(raster.Pix)))
}

// parsePolygon parses "x1,y1;x2,y2;..." into image-space vertices.
func parsePolygon(arg string) ([]geometry.Point2D, error) {
	var pts []geometry.Point2D
	for _, pair := range strings.Split(arg, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xy := strings.SplitN(pair, ",", 2)
		if len(xy) != 2 {
			return nil, fmt.Errorf("vertex %q is not x,y", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", pair, err)
		}
		pts = append(pts, geometry.Point2D{X: x, Y: y})
	}
	return pts, nil
}

func writeMask(path string, r *mask.Raster) error {
	out := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	copy(out.Pix, r.Pix)
	return writePNG(path, out)
}

func writeTint(path string, r *mask.Raster) error {
	out := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i, v := range r.Pix {
		a := 255 - v
		out.SetRGBA(i%r.Width, i/r.Width, color.RGBA{R: a, G: a, B: a, A: a})
	}
	return writePNG(path, out)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
