// Package automap splits automap tile files into their regions and joins
// them back.
//
// A tile file is laid out as
//
//	[0x00000, 0x10000) visual layer, 256x256 bytes, row-major
//	[0x10000, 0x20000) pathfinding layer, same grid
//	[0x20000, EOF)     marker block (see package marker), possibly absent
package automap

import (
	"bytes"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-maps/palette"
	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// LayerSize is the size in bytes of one pixel layer.
const LayerSize = tileid.Size * tileid.Size

// MarkerBlockOffset is where the marker block starts.
const MarkerBlockOffset = 2 * LayerSize

// ErrBadLayerSize is returned for a file too short to hold both layers.
var ErrBadLayerSize = errors.New("bad layer size")

// Tile is the content of one automap file.
type Tile struct {
	Visual []byte
	Path   []byte

	// MarkerBlock holds everything after the layers. It is nil when the file
	// ends right after the pathfinding layer.
	MarkerBlock []byte
}

// Parse splits a tile file. The returned tile aliases b.
func Parse(b []byte) (*Tile, error) {
	if len(b) < MarkerBlockOffset {
		return nil, errors.Wrapf(ErrBadLayerSize, "got %d bytes, want at least %d", len(b), MarkerBlockOffset)
	}
	t := &Tile{
		Visual: b[:LayerSize:LayerSize],
		Path:   b[LayerSize:MarkerBlockOffset:MarkerBlockOffset],
	}
	if len(b) > MarkerBlockOffset {
		t.MarkerBlock = b[MarkerBlockOffset:]
	}
	return t, nil
}

// HasMarkerBlock reports whether the file carried a marker block at all.
func (t *Tile) HasMarkerBlock() bool {
	return len(t.MarkerBlock) > 0
}

// Bytes joins the tile back into file contents.
func (t *Tile) Bytes() ([]byte, error) {
	if len(t.Visual) != LayerSize {
		return nil, errors.Wrapf(ErrBadLayerSize, "visual layer is %d bytes, want %d", len(t.Visual), LayerSize)
	}
	if len(t.Path) != LayerSize {
		return nil, errors.Wrapf(ErrBadLayerSize, "path layer is %d bytes, want %d", len(t.Path), LayerSize)
	}
	b := make([]byte, 0, MarkerBlockOffset+len(t.MarkerBlock))
	b = append(b, t.Visual...)
	b = append(b, t.Path...)
	return append(b, t.MarkerBlock...), nil
}

var (
	blankVisual = bytes.Repeat([]byte{palette.VisualUnexplored}, LayerSize)
	blankPath   = bytes.Repeat([]byte{palette.PathUnexplored}, LayerSize)
)

// Blank reports whether neither layer holds anything explored.
func (t *Tile) Blank() bool {
	return bytes.Equal(t.Visual, blankVisual) && bytes.Equal(t.Path, blankPath)
}

// NewBlank returns an unexplored tile without a marker block.
func NewBlank() *Tile {
	return &Tile{
		Visual: append([]byte(nil), blankVisual...),
		Path:   append([]byte(nil), blankPath...),
	}
}
