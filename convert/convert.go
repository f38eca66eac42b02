// Package convert drives conversions between a directory of automap tiles
// and per-floor rasters plus a marker list.
//
// The package does no I/O of its own. Tiles, rasters, markers and bounds
// come from and go to collaborators (see package paths for filesystem
// implementations).
//
// Failures are kept as local as possible: a bad tile is reported and
// skipped, a floor whose collaborator fails is reported and skipped, and
// only a run with no usable tiles at all (or a failing bounds/marker
// collaborator) returns an error.
package convert

import (
	"image"

	"badc0de.net/pkg/go-tibia-maps/marker"
	"badc0de.net/pkg/go-tibia-maps/palette"
	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// Config holds the options shared by both directions.
type Config struct {
	// IncludeMarkers switches marker decoding and encoding on. When off,
	// marker blocks are ignored on decode and written empty on encode.
	IncludeMarkers bool

	// Parallel is the number of floors processed at once. Values below 1
	// mean 1.
	Parallel int

	// OnTile, if set, is called once per tile handled, from whichever
	// goroutine handled it.
	OnTile func(id tileid.ID)
}

func (c Config) parallel() int {
	if c.Parallel < 1 {
		return 1
	}
	return c.Parallel
}

func (c Config) tileDone(id tileid.ID) {
	if c.OnTile != nil {
		c.OnTile(id)
	}
}

// TileSource supplies automap tile files.
type TileSource interface {
	// TileNames lists the identifiers (file names) of all available tiles.
	TileNames() ([]string, error)
	ReadTile(id tileid.ID) ([]byte, error)
}

// TileSink receives encoded automap tile files.
type TileSink interface {
	WriteTile(id tileid.ID, data []byte) error
}

// RasterSink receives composited floor rasters and run metadata.
type RasterSink interface {
	WriteBounds(b tileid.Bounds) error
	WriteRaster(z int, l palette.Layer, img image.Image) error
}

// RasterSource supplies what a RasterSink received.
type RasterSource interface {
	ReadBounds() (tileid.Bounds, error)
	ReadRaster(z int, l palette.Layer) (image.Image, error)
}

// MarkerSink receives the marker list of the whole run, normalized.
type MarkerSink interface {
	WriteMarkers(ms []marker.Marker) error
}

// MarkerSource supplies a marker list covering any number of floors.
type MarkerSource interface {
	ReadMarkers() ([]marker.Marker, error)
}
