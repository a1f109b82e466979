package mask

import (
	"image"
	"log"
)

// BaseImage returns the decoded bitmap for the given id, or the selected
// image when id is empty. Nil when the asset doesn't exist or hasn't decoded.
func (e *Engine) BaseImage(id string) image.Image {
	asset := e.resolve(id)
	if asset == nil {
		return nil
	}
	return asset.img
}

// TintOverlay returns the tint raster for the given id, or the selected
// image when id is empty. The overlay is white with alpha 255−mask, so it
// tints exactly the hidden regions when drawn over the base image. Nil when
// no asset is available.
func (e *Engine) TintOverlay(id string) *image.RGBA {
	asset := e.resolve(id)
	if asset == nil {
		return nil
	}
	return asset.tint
}

// MaskRaster returns the current mask raster for the given id, or the
// selected image when id is empty. The returned raster is a copy; mutating
// it does not affect the engine. Nil when no asset is available.
func (e *Engine) MaskRaster(id string) *Raster {
	asset := e.resolve(id)
	if asset == nil {
		return nil
	}
	pix := make([]uint8, len(asset.mask))
	copy(pix, asset.mask)
	return &Raster{Pix: pix, Width: asset.width, Height: asset.height}
}

// BooleanMask extracts the tint overlay's alpha channel as a flat row-major
// 0/1 slice of length width*height: 1 where the pixel is hidden, 0 where
// visible. Extraction failures are reported as "no mask available" (nil),
// never as a panic.
func (e *Engine) BooleanMask(id string) []uint8 {
	asset := e.resolve(id)
	if asset == nil || asset.tint == nil {
		return nil
	}
	pix := asset.tint.Pix
	if len(pix) < asset.width*asset.height*4 {
		log.Printf("boolean mask extraction failed for %s: short tint raster", asset.id)
		return nil
	}

	out := make([]uint8, asset.width*asset.height)
	for i := range out {
		if pix[i*4+3] >= 128 {
			out[i] = 1
		}
	}
	return out
}
