// Package palette maps automap layer bytes to colors and back.
//
// Two layers exist. The visual layer stores, per pixel, an index into the
// client's 6x6x6 color cube; only a handful of those indices are ever used
// for terrain, and only those are accepted. The pathfinding layer stores
// the movement cost of a position, rendered as a gray level, with two
// reserved values.
//
// Tables are built once at package initialization and never modified, so
// lookups are safe from any number of goroutines.
package palette

import (
	"fmt"
	"image/color"

	"github.com/pkg/errors"
)

// Layer selects one of the two per-pixel byte streams of a tile.
type Layer int

const (
	Visual Layer = iota
	Path
)

func (l Layer) String() string {
	switch l {
	case Visual:
		return "visual"
	case Path:
		return "path"
	default:
		return fmt.Sprintf("Layer(%d)", int(l))
	}
}

// Reserved pathfinding bytes.
const (
	PathUnexplored  byte = 0xFA
	PathNonWalkable byte = 0xFF
)

// Reserved visual bytes.
const (
	VisualUnexplored byte = 0x00
	VisualStairs     byte = 0xD2
)

var (
	// ErrUnknownByte is reported when a visual byte has no palette entry.
	// It is a warning: the pixel is painted with NoData.
	ErrUnknownByte = errors.New("unknown palette byte")

	// ErrUnmappableColor is returned when a color has no exact palette entry.
	ErrUnmappableColor = errors.New("unmappable color")
)

// NoData is painted for visual bytes missing from the palette. Its zero
// alpha keeps it from ever matching a palette color on the way back.
var NoData = color.RGBA{}

// CubeColor returns the color of index i in the client's 6x6x6 color cube.
// Indices past 215 are black.
func CubeColor(i byte) color.RGBA {
	if i >= 216 {
		return color.RGBA{A: 0xFF}
	}
	return color.RGBA{
		R: i / 36 * 51,
		G: i / 6 % 6 * 51,
		B: i % 6 * 51,
		A: 0xFF,
	}
}

// visualBytes are the cube indices used by the client's minimap.
var visualBytes = []byte{
	VisualUnexplored, // unexplored
	0x0C,             // tree, bush
	0x18,             // grass
	0x1E,             // swamp
	0x28,             // water
	0x33,             // shallow water
	0x56,             // mountain, rock
	0x72,             // cave wall
	0x79,             // mud, earth
	0x81,             // road, floor
	0x8C,             // light grass
	0xB3,             // ice
	0xBA,             // wall
	0xC0,             // lava
	0xCF,             // sand
	VisualStairs,     // stairs, ladders, holes
	0xD7,             // snow
}

// NonWalkableColor renders PathNonWalkable. It is the visual color of stairs.
var NonWalkableColor = CubeColor(VisualStairs)

type table struct {
	forward [256]color.RGBA
	known   [256]bool
	reverse map[color.RGBA]byte
}

func (t *table) set(b byte, c color.RGBA) {
	t.forward[b] = c
	t.known[b] = true
	t.reverse[c] = b
}

var tables [2]*table

func init() {
	vis := &table{reverse: make(map[color.RGBA]byte, len(visualBytes))}
	for _, b := range visualBytes {
		vis.set(b, CubeColor(b))
	}

	path := &table{reverse: make(map[color.RGBA]byte, 256)}
	for i := 0; i < 256; i++ {
		b := byte(i)
		if b == PathNonWalkable {
			path.set(b, NonWalkableColor)
			continue
		}
		path.set(b, color.RGBA{R: b, G: b, B: b, A: 0xFF})
	}

	tables[Visual] = vis
	tables[Path] = path
}

// Lookup returns the color of byte b on the given layer.
//
// For the visual layer a byte without a palette entry yields NoData and an
// error wrapping ErrUnknownByte; callers should treat it as a warning.
func Lookup(b byte, l Layer) (color.RGBA, error) {
	t := tables[l]
	if !t.known[b] {
		return NoData, errors.Wrapf(ErrUnknownByte, "%s byte %#02x", l, b)
	}
	return t.forward[b], nil
}

// LookupRGBA is Lookup without error construction, for per-pixel loops.
func LookupRGBA(b byte, l Layer) (color.RGBA, bool) {
	t := tables[l]
	return t.forward[b], t.known[b]
}

// Reverse returns the byte that Lookup maps to c on the given layer.
// Only exact, fully opaque matches are accepted.
func Reverse(c color.Color, l Layer) (byte, error) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	if b, ok := tables[l].reverse[rgba]; ok {
		return b, nil
	}
	return 0, errors.Wrapf(ErrUnmappableColor, "%s color #%02x%02x%02x alpha %d", l, rgba.R, rgba.G, rgba.B, rgba.A)
}

// ReverseRGBA is Reverse for callers already holding color.RGBA values,
// avoiding the color model conversion.
func ReverseRGBA(c color.RGBA, l Layer) (byte, bool) {
	b, ok := tables[l].reverse[c]
	return b, ok
}

// Known lists the bytes that have a palette entry on the layer.
func Known(l Layer) []byte {
	var bs []byte
	for i, ok := range tables[l].known {
		if ok {
			bs = append(bs, byte(i))
		}
	}
	return bs
}
