// Package labels extracts room labels from floorplan images with OCR.
// Hidden regions of the active mask are blanked before recognition, so only
// labels the user left visible are reported.
package labels

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// RoomLabelChars is the character set for room label OCR. Floorplan labels
// are conventionally uppercase; excluding lowercase cuts 0/O-style confusion.
const RoomLabelChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ.- "

// Engine provides OCR functionality using Tesseract.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates a new OCR engine.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Room names aren't dictionary words; disable word correction so
	// "WC" or "HWFL" survive recognition.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// ExtractVisible runs OCR over the image with masked-out pixels blanked to
// white. boolMask is the engine's boolean mask (1 = hidden), row-major with
// width*height entries; pass nil to OCR the whole image. Returns the
// distinct labels found, in reading order.
func (e *Engine) ExtractVisible(img image.Image, boolMask []uint8, width, height int) ([]string, error) {
	if img == nil {
		return nil, fmt.Errorf("no image")
	}

	flat := flatten(img, boolMask, width, height)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	// Sparse segmentation: labels are scattered over the plan, not a block.
	if err := e.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetWhitelist(RoomLabelChars); err != nil {
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	return splitLabels(text), nil
}

// flatten copies the image, painting hidden pixels white.
func flatten(img image.Image, boolMask []uint8, width, height int) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)

	if boolMask == nil || width != bounds.Dx() || height != bounds.Dy() || len(boolMask) < width*height {
		return out
	}

	white := color.RGBA{255, 255, 255, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if boolMask[y*width+x] == 1 {
				out.SetRGBA(x, y, white)
			}
		}
	}
	return out
}

// splitLabels cleans raw OCR output into distinct non-empty labels.
func splitLabels(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		label := strings.TrimSpace(line)
		if len(label) < 2 || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
