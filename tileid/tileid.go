// Package tileid converts between automap tile identifiers and tile
// coordinates, and computes the bounds of a set of tiles.
//
// An identifier is the stem of an automap file name: eight decimal digits
// XXXYYYZZ, where XXX and YYY are the tile column and row on the world grid
// (each tile covering 256x256 map positions) and ZZ is the floor.
package tileid

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Size is the width and height of one tile, in pixels (map positions).
const Size = 256

// Valid coordinate ranges.
const (
	MaxX     = 999
	MaxY     = 999
	MaxFloor = 15
)

const (
	digitsX     = 3
	digitsY     = 3
	digitsFloor = 2
	idLen       = digitsX + digitsY + digitsFloor

	// Extension is the file name extension of an automap tile file.
	Extension = ".map"
)

var (
	// ErrMalformedIdentifier is returned when a string is not a valid tile identifier.
	ErrMalformedIdentifier = errors.New("malformed tile identifier")

	// ErrEmptyTileSet is returned when bounds are requested for zero tiles.
	ErrEmptyTileSet = errors.New("empty tile set")
)

// ID is the grid position of one tile.
type ID struct {
	X, Y  int
	Floor int
}

func (id ID) String() string {
	return fmt.Sprintf("(%d,%d,%d)", id.X, id.Y, id.Floor)
}

// Valid reports whether the coordinates fit in an identifier.
func (id ID) Valid() bool {
	return id.X >= 0 && id.X <= MaxX &&
		id.Y >= 0 && id.Y <= MaxY &&
		id.Floor >= 0 && id.Floor <= MaxFloor
}

// PixelOrigin returns the absolute pixel coordinate of the tile's top left corner.
func (id ID) PixelOrigin() (x, y int) {
	return id.X * Size, id.Y * Size
}

// Containing returns the tile holding absolute pixel position (x, y) on a
// floor. Negative positions land on negative tiles, never on tile 0.
func Containing(x, y, floor int) ID {
	return ID{X: floorDiv(x, Size), Y: floorDiv(y, Size), Floor: floor}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// Parse decodes an identifier. Both the bare stem ("12612307") and an
// automap file name ("12612307.map", optionally with a directory) are
// accepted.
func Parse(s string) (ID, error) {
	stem := strings.TrimSuffix(filepath.Base(s), Extension)
	if len(stem) != idLen {
		return ID{}, errors.Wrapf(ErrMalformedIdentifier, "%q: got %d digits, want %d", s, len(stem), idLen)
	}
	for _, c := range stem {
		if c < '0' || c > '9' {
			return ID{}, errors.Wrapf(ErrMalformedIdentifier, "%q: non-digit %q", s, c)
		}
	}

	// Atoi cannot fail on a run of ASCII digits this short.
	x, _ := strconv.Atoi(stem[:digitsX])
	y, _ := strconv.Atoi(stem[digitsX : digitsX+digitsY])
	z, _ := strconv.Atoi(stem[digitsX+digitsY:])

	id := ID{X: x, Y: y, Floor: z}
	if !id.Valid() {
		return ID{}, errors.Wrapf(ErrMalformedIdentifier, "%q: floor %d out of range", s, z)
	}
	return id, nil
}

// Format encodes the identifier. It fails for coordinates that do not fit
// in the fixed-width digit fields.
func Format(id ID) (string, error) {
	if !id.Valid() {
		return "", errors.Wrapf(ErrMalformedIdentifier, "coordinates %s out of range", id)
	}
	return fmt.Sprintf("%03d%03d%02d", id.X, id.Y, id.Floor), nil
}

// FileName returns the automap file name for the tile.
func FileName(id ID) (string, error) {
	s, err := Format(id)
	if err != nil {
		return "", err
	}
	return s + Extension, nil
}
