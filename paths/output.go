package paths

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-maps/marker"
	"badc0de.net/pkg/go-tibia-maps/palette"
	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// File names inside a MapDir.
const (
	BoundsFile  = "bounds.json"
	MarkersFile = "markers.json"
)

// RasterFile returns the name of the PNG holding layer l of floor z.
func RasterFile(z int, l palette.Layer) string {
	kind := "map"
	if l == palette.Path {
		kind = "path"
	}
	return fmt.Sprintf("floor-%02d-%s.png", z, kind)
}

// MapDir is a directory of per-floor PNG rasters, bounds.json and
// markers.json. It implements the raster and marker collaborators of
// package convert in both directions.
type MapDir struct {
	Path string
}

func (d MapDir) create(name string) (*os.File, error) {
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating %q", d.Path)
	}
	p := filepath.Join(d.Path, name)
	glog.V(2).Infof("writing %s", p)
	f, err := os.Create(p)
	return f, errors.Wrapf(err, "creating %q", p)
}

func (d MapDir) open(name string) (*os.File, error) {
	p := filepath.Join(d.Path, name)
	f, err := os.Open(p)
	return f, errors.Wrapf(err, "opening %q", p)
}

// writeFile runs write against a newly created file and closes it,
// returning the first error.
func (d MapDir) writeFile(name string, write func(f *os.File) error) error {
	f, err := d.create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %q", name)
	}
	return errors.Wrapf(f.Close(), "closing %q", name)
}

func (d MapDir) WriteBounds(b tileid.Bounds) error {
	return d.writeFile(BoundsFile, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "\t")
		return enc.Encode(b)
	})
}

func (d MapDir) ReadBounds() (tileid.Bounds, error) {
	var b tileid.Bounds
	f, err := d.open(BoundsFile)
	if err != nil {
		return b, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&b); err != nil {
		return b, errors.Wrapf(err, "decoding %q", BoundsFile)
	}
	return b, nil
}

func (d MapDir) WriteRaster(z int, l palette.Layer, img image.Image) error {
	return d.writeFile(RasterFile(z, l), func(f *os.File) error {
		return png.Encode(f, img)
	})
}

func (d MapDir) ReadRaster(z int, l palette.Layer) (image.Image, error) {
	name := RasterFile(z, l)
	f, err := d.open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	return img, errors.Wrapf(err, "decoding %q", name)
}

func (d MapDir) WriteMarkers(ms []marker.Marker) error {
	return d.writeFile(MarkersFile, func(f *os.File) error {
		return marker.WriteJSON(f, ms)
	})
}

// ReadMarkers reads markers.json. A missing file means no markers.
func (d MapDir) ReadMarkers() ([]marker.Marker, error) {
	f, err := d.open(MarkersFile)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			glog.Warningf("%s: no %s, encoding without markers", d.Path, MarkersFile)
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return marker.ReadJSON(f)
}
