// Package compositor assembles floor-wide rasters from automap tile layers
// and slices them back into tiles.
//
// A Floor holds two rasters, visual and pathfinding, sized to the bounds of
// a conversion run. Each tile owns a disjoint 256x256 region of them, so
// tiles of one floor may be pasted or sliced from separate goroutines.
// Floors share nothing and may be processed concurrently too.
package compositor

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// ErrOutOfBounds is returned for a tile outside the floor's bounds.
var ErrOutOfBounds = errors.New("tile outside floor bounds")

// region returns the raster rectangle owned by the tile.
func (f *Floor) region(id tileid.ID) (image.Rectangle, error) {
	if id.Floor != f.Z || !f.Bounds.Contains(id) {
		return image.Rectangle{}, errors.Wrapf(ErrOutOfBounds, "tile %s on floor %d", id, f.Z)
	}
	x, y := f.Bounds.TileOffset(id)
	return image.Rect(x, y, x+tileid.Size, y+tileid.Size), nil
}

func setPix(img *image.RGBA, x, y int, c color.RGBA) {
	i := img.PixOffset(x, y)
	s := img.Pix[i : i+4 : i+4]
	s[0], s[1], s[2], s[3] = c.R, c.G, c.B, c.A
}

func getPix(img *image.RGBA, x, y int) color.RGBA {
	i := img.PixOffset(x, y)
	s := img.Pix[i : i+4 : i+4]
	return color.RGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
}
