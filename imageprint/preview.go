package imageprint

import (
	"image"

	"github.com/nfnt/resize"
)

// Fit shrinks img to fit within cols x rows terminal cells, keeping its
// aspect ratio. Each cell is two characters wide, so cols is halved.
// Images that already fit are returned as they are.
func Fit(img image.Image, cols, rows uint) image.Image {
	if cols < 2 || rows == 0 {
		return img
	}
	w, h := uint(img.Bounds().Dx()), uint(img.Bounds().Dy())
	if w <= cols/2 && h <= rows {
		return img
	}
	// Nearest neighbour keeps palette colors intact.
	return resize.Thumbnail(cols/2, rows, img, resize.NearestNeighbor)
}
