package compositor

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-maps/automap"
	"badc0de.net/pkg/go-tibia-maps/palette"
	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// PasteWarnings summarizes visual bytes missing from the palette in one
// pasted tile. Those pixels are painted palette.NoData.
type PasteWarnings struct {
	UnknownBytes int
	First        byte
	FirstAt      image.Point // tile-local
}

// Err returns nil when nothing was reported, otherwise an error wrapping
// palette.ErrUnknownByte.
func (w PasteWarnings) Err() error {
	if w.UnknownBytes == 0 {
		return nil
	}
	return errors.Wrapf(palette.ErrUnknownByte, "%d unknown visual bytes, first %#02x at %v", w.UnknownBytes, w.First, w.FirstAt)
}

// PasteTile decodes both layers of a tile into the floor rasters.
//
// Layers must be exactly automap.LayerSize bytes. Unknown visual bytes do
// not stop the paste; they are counted in the returned warnings.
func (f *Floor) PasteTile(id tileid.ID, visual, path []byte) (PasteWarnings, error) {
	var w PasteWarnings
	if len(visual) != automap.LayerSize || len(path) != automap.LayerSize {
		return w, errors.Wrapf(automap.ErrBadLayerSize, "tile %s: visual %d bytes, path %d bytes", id, len(visual), len(path))
	}
	r, err := f.region(id)
	if err != nil {
		return w, err
	}

	for row := 0; row < tileid.Size; row++ {
		for col := 0; col < tileid.Size; col++ {
			i := row*tileid.Size + col
			x, y := r.Min.X+col, r.Min.Y+row

			c, ok := palette.LookupRGBA(visual[i], palette.Visual)
			if !ok {
				if w.UnknownBytes == 0 {
					w.First = visual[i]
					w.FirstAt = image.Pt(col, row)
				}
				w.UnknownBytes++
				c = palette.NoData
			}
			setPix(f.Visual, x, y, c)

			// Every path byte has a color.
			c, _ = palette.LookupRGBA(path[i], palette.Path)
			setPix(f.Path, x, y, c)
		}
	}
	return w, nil
}

// SliceTile encodes the tile's region of both rasters back into layer bytes.
// Any pixel without an exact palette color fails the whole tile with an
// error wrapping palette.ErrUnmappableColor.
func (f *Floor) SliceTile(id tileid.ID) (visual, path []byte, err error) {
	r, err := f.region(id)
	if err != nil {
		return nil, nil, err
	}

	visual = make([]byte, automap.LayerSize)
	path = make([]byte, automap.LayerSize)
	for row := 0; row < tileid.Size; row++ {
		for col := 0; col < tileid.Size; col++ {
			i := row*tileid.Size + col
			x, y := r.Min.X+col, r.Min.Y+row

			var ok bool
			c := getPix(f.Visual, x, y)
			if visual[i], ok = palette.ReverseRGBA(c, palette.Visual); !ok {
				return nil, nil, unmappable(id, palette.Visual, col, row, c)
			}
			c = getPix(f.Path, x, y)
			if path[i], ok = palette.ReverseRGBA(c, palette.Path); !ok {
				return nil, nil, unmappable(id, palette.Path, col, row, c)
			}
		}
	}
	return visual, path, nil
}

func unmappable(id tileid.ID, l palette.Layer, col, row int, c color.RGBA) error {
	return errors.Wrapf(palette.ErrUnmappableColor, "tile %s %s pixel (%d,%d): #%02x%02x%02x alpha %d", id, l, col, row, c.R, c.G, c.B, c.A)
}
