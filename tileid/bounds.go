package tileid

import (
	"sort"

	"github.com/pkg/errors"
)

// Bounds is the tile envelope of a conversion run.
//
// Width and Height are in pixels and always follow from the tile range;
// they are written out for consumers of bounds.json and recomputed by
// Normalize on the way in. Floors lists each distinct floor once, in
// ascending order.
type Bounds struct {
	XMin   int   `json:"xMin"`
	XMax   int   `json:"xMax"`
	YMin   int   `json:"yMin"`
	YMax   int   `json:"yMax"`
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Floors []int `json:"floorIDs"`
}

// ComputeBounds folds all identifiers into their common bounds.
//
// Identifiers that fail to parse are returned in skipped together with
// their error; they do not contribute to the bounds. If no identifier is
// usable, ErrEmptyTileSet is returned.
func ComputeBounds(ids []string) (b Bounds, tiles []ID, skipped map[string]error, err error) {
	skipped = make(map[string]error)
	for _, s := range ids {
		id, err := Parse(s)
		if err != nil {
			skipped[s] = err
			continue
		}
		tiles = append(tiles, id)
	}
	b, err = BoundsOf(tiles)
	return b, tiles, skipped, err
}

// BoundsOf computes the bounds of already-parsed tiles.
func BoundsOf(tiles []ID) (Bounds, error) {
	if len(tiles) == 0 {
		return Bounds{}, ErrEmptyTileSet
	}
	b := Bounds{
		XMin: tiles[0].X, XMax: tiles[0].X,
		YMin: tiles[0].Y, YMax: tiles[0].Y,
	}
	floors := make(map[int]bool)
	for _, t := range tiles {
		if t.X < b.XMin {
			b.XMin = t.X
		}
		if t.X > b.XMax {
			b.XMax = t.X
		}
		if t.Y < b.YMin {
			b.YMin = t.Y
		}
		if t.Y > b.YMax {
			b.YMax = t.Y
		}
		floors[t.Floor] = true
	}
	for z := range floors {
		b.Floors = append(b.Floors, z)
	}
	sort.Ints(b.Floors)
	b.derive()
	return b, nil
}

// Normalize recomputes derived fields and validates a Bounds value that
// was loaded from elsewhere (e.g. decoded from JSON).
func (b *Bounds) Normalize() error {
	if b.XMax < b.XMin || b.YMax < b.YMin {
		return errors.Errorf("tileid: inverted bounds x=[%d,%d] y=[%d,%d]", b.XMin, b.XMax, b.YMin, b.YMax)
	}
	if len(b.Floors) == 0 {
		return ErrEmptyTileSet
	}
	for _, z := range b.Floors {
		if z < 0 || z > MaxFloor {
			return errors.Errorf("tileid: floor %d out of range", z)
		}
	}
	sort.Ints(b.Floors)
	b.derive()
	return nil
}

func (b *Bounds) derive() {
	b.Width = (b.XMax - b.XMin + 1) * Size
	b.Height = (b.YMax - b.YMin + 1) * Size
}

// HasFloor reports whether z is one of the bounds' floors.
func (b Bounds) HasFloor(z int) bool {
	i := sort.SearchInts(b.Floors, z)
	return i < len(b.Floors) && b.Floors[i] == z
}

// Contains reports whether the tile lies inside the bounds, floor included.
func (b Bounds) Contains(id ID) bool {
	return id.X >= b.XMin && id.X <= b.XMax &&
		id.Y >= b.YMin && id.Y <= b.YMax &&
		b.HasFloor(id.Floor)
}

// TileOffset returns the pixel offset of the tile's top left corner within
// a floor raster sized to the bounds.
func (b Bounds) TileOffset(id ID) (x, y int) {
	return (id.X - b.XMin) * Size, (id.Y - b.YMin) * Size
}

// Tiles lists every tile position covered by the bounds on floor z, row by row.
func (b Bounds) Tiles(z int) []ID {
	ids := make([]ID, 0, (b.XMax-b.XMin+1)*(b.YMax-b.YMin+1))
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			ids = append(ids, ID{X: x, Y: y, Floor: z})
		}
	}
	return ids
}
