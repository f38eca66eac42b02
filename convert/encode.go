package convert

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-tibia-maps/automap"
	"badc0de.net/pkg/go-tibia-maps/compositor"
	"badc0de.net/pkg/go-tibia-maps/marker"
	"badc0de.net/pkg/go-tibia-maps/palette"
	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// Encoder converts floor rasters and markers back into automap tiles.
type Encoder struct {
	Config

	Rasters RasterSource
	Markers MarkerSource // used only with IncludeMarkers
	Sink    TileSink
}

// Run encodes every floor named by the source's bounds.
//
// Regions that are entirely unexplored and hold no markers produce no
// tile. Markers outside the bounds are reported and dropped.
func (e *Encoder) Run(ctx context.Context) (*Report, error) {
	rep := &Report{}

	b, err := e.Rasters.ReadBounds()
	if err != nil {
		return rep, errors.Wrap(err, "reading bounds")
	}
	if err := b.Normalize(); err != nil {
		return rep, errors.Wrap(err, "validating bounds")
	}

	var parts map[tileid.ID][]marker.Marker
	if e.IncludeMarkers {
		ms, err := e.Markers.ReadMarkers()
		if err != nil {
			return rep, errors.Wrap(err, "reading markers")
		}
		parts = marker.Partition(marker.Normalize(ms))
		for id, tms := range parts {
			if !b.Contains(id) {
				for _, m := range tms {
					rep.drop(m.String(), errors.Wrapf(compositor.ErrOutOfBounds, "tile %s", id))
				}
				delete(parts, id)
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel())
	for _, z := range b.Floors {
		z := z
		g.Go(func() error {
			return e.encodeFloor(ctx, rep, b, z, parts)
		})
	}
	return rep, g.Wait()
}

func (e *Encoder) encodeFloor(ctx context.Context, rep *Report, b tileid.Bounds, z int, parts map[tileid.ID][]marker.Marker) error {
	subject := floorSubject(z)
	visual, err := e.Rasters.ReadRaster(z, palette.Visual)
	if err != nil {
		rep.drop(subject, errors.Wrap(err, "reading visual raster"))
		return nil
	}
	path, err := e.Rasters.ReadRaster(z, palette.Path)
	if err != nil {
		rep.drop(subject, errors.Wrap(err, "reading path raster"))
		return nil
	}
	f, err := compositor.FromImages(b, z, visual, path)
	if err != nil {
		rep.drop(subject, err)
		return nil
	}

	ids := b.Tiles(z)
	glog.V(1).Infof("floor %d: encoding up to %d tiles", z, len(ids))
	written, markers := 0, 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, ok := e.encodeTile(rep, f, id, parts[id])
		if ok {
			written++
			markers += n
		}
		e.tileDone(id)
	}
	rep.count(written, 1, markers)
	return nil
}

// encodeTile slices one tile and writes it. It returns the number of
// markers written and whether a tile was written.
func (e *Encoder) encodeTile(rep *Report, f *compositor.Floor, id tileid.ID, ms []marker.Marker) (int, bool) {
	subject := id.String()

	visual, path, err := f.SliceTile(id)
	if err != nil {
		rep.drop(subject, err)
		return 0, false
	}
	t := &automap.Tile{Visual: visual, Path: path}
	if t.Blank() && len(ms) == 0 {
		return 0, false
	}

	// Without markers the block still carries a zero count. Markers that
	// cannot be stored cost the tile its markers, not its layers.
	if t.MarkerBlock, err = marker.Encode(ms); err != nil {
		rep.drop(subject+" markers", errors.Wrapf(err, "dropping %d markers", len(ms)))
		if t.Blank() {
			return 0, false
		}
		ms = nil
		if t.MarkerBlock, err = marker.Encode(nil); err != nil {
			rep.drop(subject, err)
			return 0, false
		}
	}
	data, err := t.Bytes()
	if err != nil {
		rep.drop(subject, err)
		return 0, false
	}
	if err := e.Sink.WriteTile(id, data); err != nil {
		rep.drop(subject, errors.Wrap(err, "writing tile"))
		return 0, false
	}
	return len(ms), true
}
