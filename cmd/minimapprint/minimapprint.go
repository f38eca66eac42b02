// Command minimapprint previews one floor of an automap directory on the
// terminal.
package main

import (
	"context"
	"flag"
	"image"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-maps/compositor"
	"badc0de.net/pkg/go-tibia-maps/convert"
	"badc0de.net/pkg/go-tibia-maps/imageprint"
	"badc0de.net/pkg/go-tibia-maps/palette"
	"badc0de.net/pkg/go-tibia-maps/paths"
	"badc0de.net/pkg/go-tibia-maps/tileid"
)

var (
	floor    = flag.Int("floor", 7, "floor to print")
	pathView = flag.Bool("path", false, "whether to print the pathfinding layer instead of the visual one")
	x        = flag.Int("x", -1, "left edge of the area to print, in map positions; -1 for the whole floor")
	y        = flag.Int("y", -1, "top edge of the area to print, in map positions; -1 for the whole floor")
	w        = flag.Int("w", 256, "width of the area to print")
	h        = flag.Int("h", 256, "height of the area to print")

	downsize = flag.Bool("downsize", true, "whether to shrink the image to the terminal size")
	col      = flag.Bool("col", true, "whether to use color at all")
	col256   = flag.Bool("col256", false, "whether to use 256 col instead of 24 bit")
	iterm    = flag.Bool("iterm", false, "whether to print with iterm escape code instead of 24 bit")
	rasterm  = flag.Bool("rasterm", false, "whether to print with rasterm (kitty, iterm, sixel)")
	blanks   = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")

	fromDir string
)

// floorSink keeps the one raster it is asked to keep.
type floorSink struct {
	z     int
	layer palette.Layer

	bounds tileid.Bounds
	img    image.Image
}

func (s *floorSink) WriteBounds(b tileid.Bounds) error {
	s.bounds = b
	return nil
}

func (s *floorSink) WriteRaster(z int, l palette.Layer, img image.Image) error {
	if z != s.z || l != s.layer {
		return nil
	}
	// The decoder reuses raster storage across floors.
	cp, err := compositor.FromImages(s.bounds, z, img, img)
	if err != nil {
		return err
	}
	s.img = cp.Visual
	return nil
}

// onlyFloor narrows a tile directory to the tiles of one floor.
type onlyFloor struct {
	paths.TileDir
	z int
}

func (o onlyFloor) TileNames() ([]string, error) {
	names, err := o.TileDir.TileNames()
	if err != nil {
		return nil, err
	}
	var kept []string
	for _, n := range names {
		if id, err := tileid.Parse(n); err == nil && id.Floor == o.z {
			kept = append(kept, n)
		}
	}
	return kept, nil
}

func loadFloor(dir string, z int, l palette.Layer) (image.Image, tileid.Bounds, error) {
	sink := &floorSink{z: z, layer: l}
	d := &convert.Decoder{
		Source:  onlyFloor{TileDir: paths.TileDir{Path: dir}, z: z},
		Rasters: sink,
	}
	if _, err := d.Run(context.Background()); err != nil {
		return nil, tileid.Bounds{}, errors.Wrapf(err, "decoding floor %d of %s", z, dir)
	}
	if sink.img == nil {
		return nil, tileid.Bounds{}, errors.Errorf("floor %d of %s could not be written", z, dir)
	}
	return sink.img, sink.bounds, nil
}

// crop cuts the requested area, given in absolute map positions, out of a
// floor raster.
func crop(img image.Image, b tileid.Bounds) image.Image {
	if *x < 0 || *y < 0 {
		return img
	}
	ox, oy := b.XMin*tileid.Size, b.YMin*tileid.Size
	r := image.Rect(*x-ox, *y-oy, *x-ox+*w, *y-oy+*h).Intersect(img.Bounds())
	if r.Empty() {
		glog.Warningf("area (%d,%d)+%dx%d lies outside the floor", *x, *y, *w, *h)
		return img
	}
	return img.(interface {
		SubImage(image.Rectangle) image.Image
	}).SubImage(r)
}

func main() {
	paths.SetupDirFlag("from_dir", "automap directory to read", &fromDir)
	flagutil.Parse()

	layer := palette.Visual
	if *pathView {
		layer = palette.Path
	}
	img, b, err := loadFloor(fromDir, *floor, layer)
	if err != nil {
		glog.Exitf("error loading floor: %v", err)
	}
	out(crop(img, b))
}

func out(img image.Image) {
	if *downsize {
		if termSize, err := GetTermSize(); err == nil {
			img = imageprint.Fit(img, termSize.WSCol, termSize.WSRow)
		}
	}

	p := &imageprint.Printer{W: os.Stdout, Blanks: *blanks}
	switch {
	case *rasterm:
		p.Mode = imageprint.RasTerm
	case !*col:
		p.Mode = imageprint.NoColor
	case *iterm:
		p.Mode = imageprint.ITerm
	case *col256:
		p.Mode = imageprint.Color256
	default:
		p.Mode = imageprint.TrueColor
	}
	if err := p.Print(img); err != nil {
		glog.Errorf("printing: %v", err)
	}
}
