// Package marker reads and writes the marker block that trails the two
// pixel layers of an automap tile.
//
// A block is a little-endian uint32 record count followed by that many
// records:
//
//	offset size field
//	     0    1 x within tile
//	     1    1 x tile index
//	     2    2 reserved, zero
//	     4    1 y within tile
//	     5    1 y tile index
//	     6    2 reserved, zero
//	     8    4 icon
//	    12    2 description length in bytes
//	    14    n description, Windows-1252
//
// The floor is not stored; it comes from the tile the block belongs to.
package marker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-maps/tileid"
)

var (
	// ErrTruncatedMarkerBlock is returned when a block ends before its
	// declared records do.
	ErrTruncatedMarkerBlock = errors.New("truncated marker block")

	// ErrMissingMarkerBlock marks a tile with no marker block at all, not
	// even a zero count. Readers treat it as zero markers.
	ErrMissingMarkerBlock = errors.New("missing marker block")

	// ErrMarkerOutOfRange is returned when a marker cannot be stored in a block.
	ErrMarkerOutOfRange = errors.New("marker out of range")
)

// MaxCoord is the largest absolute coordinate a record can hold.
const MaxCoord = 0xFFFF

// Marker is a point of interest on the map.
type Marker struct {
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Z           int    `json:"z"`
}

func (m Marker) String() string {
	return fmt.Sprintf("<marker %s at (%d,%d,%d): %q>", m.Icon, m.X, m.Y, m.Z, m.Description)
}

// Tile returns the tile the marker lies on.
func (m Marker) Tile() tileid.ID {
	return tileid.Containing(m.X, m.Y, m.Z)
}

// Same reports whether two markers are duplicates: all fields equal, the
// description compared without regard to case.
func (m Marker) Same(o Marker) bool {
	return m.X == o.X && m.Y == o.Y && m.Z == o.Z && m.Icon == o.Icon &&
		strings.EqualFold(m.Description, o.Description)
}

func (m Marker) sortKey() int {
	return m.X*100000 + m.Y
}

// Normalize sorts markers by x*100000+y and drops duplicates, keeping the
// first occurrence. Markers sharing a position are further ordered by
// floor, icon and description so duplicates always end up adjacent.
//
// The passed slice is reordered in place; the returned slice shares its
// backing array.
func Normalize(ms []Marker) []Marker {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if ka, kb := a.sortKey(), b.sortKey(); ka != kb {
			return ka < kb
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Icon != b.Icon {
			return a.Icon < b.Icon
		}
		return strings.ToLower(a.Description) < strings.ToLower(b.Description)
	})

	out := ms[:0]
	for _, m := range ms {
		if len(out) > 0 && out[len(out)-1].Same(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Partition groups markers by the tile containing them.
func Partition(ms []Marker) map[tileid.ID][]Marker {
	parts := make(map[tileid.ID][]Marker)
	for _, m := range ms {
		id := m.Tile()
		parts[id] = append(parts[id], m)
	}
	return parts
}
