package compositor

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-maps/marker"
	"badc0de.net/pkg/go-tibia-maps/palette"
	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// Floor is the working state for one floor of a run.
type Floor struct {
	Z      int
	Bounds tileid.Bounds

	Visual *image.RGBA
	Path   *image.RGBA

	// Markers collected for, or to be written to, this floor.
	Markers []marker.Marker
}

// NewFloor allocates rasters of bounds.Width x bounds.Height and clears them
// for floor z.
func NewFloor(b tileid.Bounds, z int) *Floor {
	r := image.Rect(0, 0, b.Width, b.Height)
	f := &Floor{
		Bounds: b,
		Visual: image.NewRGBA(r),
		Path:   image.NewRGBA(r),
	}
	f.Reset(z)
	return f
}

// Reset prepares the floor for reuse on floor z. The rasters keep their
// storage and are painted unexplored; markers are dropped.
func (f *Floor) Reset(z int) {
	f.Z = z
	f.Markers = nil
	fill(f.Visual, palette.VisualUnexplored, palette.Visual)
	fill(f.Path, palette.PathUnexplored, palette.Path)
}

func fill(img *image.RGBA, b byte, l palette.Layer) {
	c, _ := palette.LookupRGBA(b, l)
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
}

// FromImages builds a floor from rasters read back from elsewhere. Both
// images must match the size of the bounds; they are copied.
func FromImages(b tileid.Bounds, z int, visual, path image.Image) (*Floor, error) {
	want := image.Pt(b.Width, b.Height)
	if got := visual.Bounds().Size(); got != want {
		return nil, errors.Errorf("compositor: floor %d visual raster is %v, want %v", z, got, want)
	}
	if got := path.Bounds().Size(); got != want {
		return nil, errors.Errorf("compositor: floor %d path raster is %v, want %v", z, got, want)
	}
	f := &Floor{
		Z:      z,
		Bounds: b,
		Visual: toRGBA(visual),
		Path:   toRGBA(path),
	}
	return f, nil
}

func toRGBA(src image.Image) *image.RGBA {
	r := image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy())
	dst := image.NewRGBA(r)
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
	return dst
}

// Layer returns the raster of one layer.
func (f *Floor) Layer(l palette.Layer) *image.RGBA {
	if l == palette.Path {
		return f.Path
	}
	return f.Visual
}
