package mask

import (
	"image"

	"floorplan-studio/pkg/geometry"
)

const (
	// MaskVisible and MaskHidden are the two values a mask pixel can take.
	MaskVisible = 255
	MaskHidden  = 0
)

// ImageRef identifies one image in the host's reactive image list.
type ImageRef struct {
	ID  string
	URL string
}

// Raster is a single-channel byte raster with row-major layout.
type Raster struct {
	Pix    []uint8
	Width  int
	Height int
}

// Asset holds the decoded bitmap and mask state for one image. Until the
// decode completes the asset is inert: zero dimensions, nil rasters, and
// every operation against it is a no-op.
type Asset struct {
	id     string
	url    string
	img    image.Image
	width  int
	height int
	mask   []uint8     // MaskVisible / MaskHidden per pixel
	tint   *image.RGBA // white with alpha = 255 - mask
}

// Ready reports whether the asset's natural dimensions are known.
func (a *Asset) Ready() bool {
	return a.width > 0 && a.height > 0
}

// NaturalSize returns the decoded pixel dimensions, zero until decode.
func (a *Asset) NaturalSize() geometry.Size {
	return geometry.Size{Width: float64(a.width), Height: float64(a.height)}
}

// populate installs the decoded bitmap and initializes the mask to fully
// visible the moment natural dimensions become known.
func (a *Asset) populate(img image.Image) {
	bounds := img.Bounds()
	a.img = img
	a.width = bounds.Dx()
	a.height = bounds.Dy()

	a.mask = make([]uint8, a.width*a.height)
	for i := range a.mask {
		a.mask[i] = MaskVisible
	}
	a.tint = image.NewRGBA(image.Rect(0, 0, a.width, a.height))
	a.refreshTint()
}

// refreshTint rebuilds the tint overlay from the mask: an opaque white fill
// with the mask subtracted from its alpha, leaving white exactly over hidden
// pixels. Pixel values are premultiplied, so white at alpha a stores a in
// every channel.
func (a *Asset) refreshTint() {
	pix := a.tint.Pix
	for i, m := range a.mask {
		alpha := MaskVisible - m
		j := i * 4
		pix[j] = alpha
		pix[j+1] = alpha
		pix[j+2] = alpha
		pix[j+3] = alpha
	}
}
