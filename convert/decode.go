package convert

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-tibia-maps/automap"
	"badc0de.net/pkg/go-tibia-maps/compositor"
	"badc0de.net/pkg/go-tibia-maps/marker"
	"badc0de.net/pkg/go-tibia-maps/palette"
	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// Decoder converts automap tiles into floor rasters and markers.
type Decoder struct {
	Config

	Source  TileSource
	Rasters RasterSink
	Markers MarkerSink // used only with IncludeMarkers
}

// Run decodes every tile the source lists.
//
// The returned error is non-nil only when nothing could be decoded (no
// usable tiles, a failing tile listing, a failing bounds or marker sink)
// or when ctx is done. Everything else ends up in the report.
func (d *Decoder) Run(ctx context.Context) (*Report, error) {
	rep := &Report{}

	names, err := d.Source.TileNames()
	if err != nil {
		return rep, errors.Wrap(err, "listing tiles")
	}
	b, tiles, skipped, err := tileid.ComputeBounds(names)
	for name, err := range skipped {
		rep.drop(name, err)
	}
	if err != nil {
		return rep, errors.Wrapf(err, "computing bounds of %d tile names", len(names))
	}
	glog.V(1).Infof("bounds: x=[%d,%d] y=[%d,%d] floors %v, rasters %dx%d", b.XMin, b.XMax, b.YMin, b.YMax, b.Floors, b.Width, b.Height)

	if err := d.Rasters.WriteBounds(b); err != nil {
		return rep, errors.Wrap(err, "writing bounds")
	}

	byFloor := make(map[int][]tileid.ID)
	for _, id := range tiles {
		byFloor[id.Floor] = append(byFloor[id.Floor], id)
	}

	// Each worker keeps one pair of floor rasters and reuses it for every
	// floor it handles.
	n := d.parallel()
	pool := make(chan *compositor.Floor, n)
	for i := 0; i < n; i++ {
		pool <- nil
	}

	var (
		mu  sync.Mutex
		all []marker.Marker
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for _, z := range b.Floors {
		z := z
		g.Go(func() error {
			f := <-pool
			defer func() { pool <- f }()
			if f == nil {
				f = compositor.NewFloor(b, z)
			} else {
				f.Reset(z)
			}

			if err := d.decodeFloor(ctx, rep, f, byFloor[z]); err != nil {
				return err
			}
			mu.Lock()
			all = append(all, f.Markers...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	if d.IncludeMarkers {
		all = marker.Normalize(all)
		if err := d.Markers.WriteMarkers(all); err != nil {
			return rep, errors.Wrap(err, "writing markers")
		}
		glog.V(1).Infof("wrote %d markers", len(all))
	}
	return rep, nil
}

// decodeFloor pastes all tiles of one floor and hands the rasters over.
// Only context cancellation is returned; everything else is reported.
func (d *Decoder) decodeFloor(ctx context.Context, rep *Report, f *compositor.Floor, ids []tileid.ID) error {
	glog.V(1).Infof("floor %d: decoding %d tiles", f.Z, len(ids))
	decoded := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.decodeTile(rep, f, id) {
			decoded++
		}
		d.tileDone(id)
	}

	f.Markers = marker.Normalize(f.Markers)

	// A floor whose rasters are lost loses its markers too.
	subject := floorSubject(f.Z)
	if err := d.Rasters.WriteRaster(f.Z, palette.Visual, f.Visual); err != nil {
		rep.drop(subject, errors.Wrapf(err, "writing visual raster, dropping %d markers", len(f.Markers)))
		f.Markers = nil
		return nil
	}
	if err := d.Rasters.WriteRaster(f.Z, palette.Path, f.Path); err != nil {
		rep.drop(subject, errors.Wrapf(err, "writing path raster, dropping %d markers", len(f.Markers)))
		f.Markers = nil
		return nil
	}
	rep.count(decoded, 1, len(f.Markers))
	return nil
}

// decodeTile pastes one tile into the floor and collects its markers. It
// reports whether the tile's layers made it into the rasters.
func (d *Decoder) decodeTile(rep *Report, f *compositor.Floor, id tileid.ID) bool {
	subject := id.String()

	data, err := d.Source.ReadTile(id)
	if err != nil {
		rep.drop(subject, errors.Wrap(err, "reading tile"))
		return false
	}
	t, err := automap.Parse(data)
	if err != nil {
		rep.drop(subject, err)
		return false
	}

	w, err := f.PasteTile(id, t.Visual, t.Path)
	if err != nil {
		rep.drop(subject, err)
		return false
	}
	if err := w.Err(); err != nil {
		rep.warn(subject, err)
	}

	if !d.IncludeMarkers {
		return true
	}
	if !t.HasMarkerBlock() {
		rep.warn(subject, marker.ErrMissingMarkerBlock)
		return true
	}
	ms, err := marker.Decode(t.MarkerBlock, id.Floor)
	if err != nil {
		rep.drop(subject+" markers", err)
		return true
	}
	f.Markers = append(f.Markers, ms...)
	return true
}
