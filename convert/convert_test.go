package convert

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-maps/automap"
	"badc0de.net/pkg/go-tibia-maps/compositor"
	"badc0de.net/pkg/go-tibia-maps/marker"
	"badc0de.net/pkg/go-tibia-maps/palette"
	"badc0de.net/pkg/go-tibia-maps/tileid"
	"badc0de.net/pkg/go-tibia-maps/ttesting"
)

// memStore implements every collaborator interface in memory.
type memStore struct {
	mu      sync.Mutex
	tiles   map[string][]byte
	bounds  *tileid.Bounds
	rasters map[string]image.Image
	markers []marker.Marker

	failRasterFloor int
}

func newMemStore() *memStore {
	return &memStore{
		tiles:           make(map[string][]byte),
		rasters:         make(map[string]image.Image),
		failRasterFloor: -1,
	}
}

func (s *memStore) TileNames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for n := range s.tiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *memStore) ReadTile(id tileid.ID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, _ := tileid.FileName(id)
	b, ok := s.tiles[name]
	if !ok {
		return nil, fmt.Errorf("no tile %s", name)
	}
	return b, nil
}

func (s *memStore) WriteTile(id tileid.ID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, err := tileid.FileName(id)
	if err != nil {
		return err
	}
	s.tiles[name] = data
	return nil
}

func (s *memStore) WriteBounds(b tileid.Bounds) error {
	s.bounds = &b
	return nil
}

func (s *memStore) ReadBounds() (tileid.Bounds, error) {
	if s.bounds == nil {
		return tileid.Bounds{}, errors.New("no bounds")
	}
	return *s.bounds, nil
}

func rasterKey(z int, l palette.Layer) string {
	return fmt.Sprintf("%d-%s", z, l)
}

func (s *memStore) WriteRaster(z int, l palette.Layer, img image.Image) error {
	if z == s.failRasterFloor {
		return errors.New("disk full")
	}
	// Sinks must copy: the decoder reuses raster storage.
	src := img.(*image.RGBA)
	cp := image.NewRGBA(src.Bounds())
	copy(cp.Pix, src.Pix)
	s.mu.Lock()
	s.rasters[rasterKey(z, l)] = cp
	s.mu.Unlock()
	return nil
}

func (s *memStore) ReadRaster(z int, l palette.Layer) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.rasters[rasterKey(z, l)]
	if !ok {
		return nil, fmt.Errorf("no raster %s", rasterKey(z, l))
	}
	return img, nil
}

func (s *memStore) WriteMarkers(ms []marker.Marker) error {
	s.markers = append([]marker.Marker(nil), ms...)
	return nil
}

func (s *memStore) ReadMarkers() ([]marker.Marker, error) {
	return append([]marker.Marker(nil), s.markers...), nil
}

func tileFile(t *testing.T, seed byte, ms []marker.Marker) []byte {
	t.Helper()
	known := palette.Known(palette.Visual)
	tile := &automap.Tile{
		Visual: make([]byte, automap.LayerSize),
		Path:   make([]byte, automap.LayerSize),
	}
	for i := range tile.Visual {
		tile.Visual[i] = known[(i+int(seed))%len(known)]
		tile.Path[i] = byte(i/256) ^ seed
	}
	block, err := marker.Encode(ms)
	if err != nil {
		t.Fatal(err)
	}
	tile.MarkerBlock = block
	b, err := tile.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func putTile(t *testing.T, s *memStore, id tileid.ID, data []byte) {
	t.Helper()
	if err := s.WriteTile(id, data); err != nil {
		t.Fatal(err)
	}
}

func mk(x, y, z int, icon marker.Icon, desc string) marker.Marker {
	return marker.Marker{X: x, Y: y, Z: z, Icon: icon, Description: desc}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	src := newMemStore()
	temple := mk(100*256+10, 50*256+20, 7, marker.IconCross, "Temple")
	bank := mk(101*256+200, 51*256+1, 7, marker.IconDollar, "Bank “north”")
	cave := mk(100*256+5, 51*256+5, 8, marker.IconSkull, "Cave")
	putTile(t, src, tileid.ID{X: 100, Y: 50, Floor: 7}, tileFile(t, 1, []marker.Marker{temple, temple}))
	putTile(t, src, tileid.ID{X: 101, Y: 51, Floor: 7}, tileFile(t, 2, []marker.Marker{bank}))
	putTile(t, src, tileid.ID{X: 100, Y: 51, Floor: 8}, tileFile(t, 3, []marker.Marker{cave}))

	mid := newMemStore()
	dec := &Decoder{
		Config:  Config{IncludeMarkers: true, Parallel: 2},
		Source:  src,
		Rasters: mid,
		Markers: mid,
	}
	rep, err := dec.Run(context.Background())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ttesting.AssertEqualInt(t, "decoded tiles", rep.Tiles, 3)
	ttesting.AssertEqualInt(t, "decoded floors", rep.Floors, 2)
	ttesting.AssertEqualInt(t, "decode problems", len(rep.Problems), 0)
	ttesting.AssertDiff(t, "decoded markers", []marker.Marker{cave, temple, bank}, mid.markers)
	ttesting.AssertDiff(t, "bounds", tileid.Bounds{XMin: 100, XMax: 101, YMin: 50, YMax: 51, Floors: []int{7, 8}, Width: 512, Height: 512}, *mid.bounds)

	dst := newMemStore()
	enc := &Encoder{
		Config:  Config{IncludeMarkers: true, Parallel: 2},
		Rasters: mid,
		Markers: mid,
		Sink:    dst,
	}
	rep, err = enc.Run(context.Background())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ttesting.AssertEqualInt(t, "encode problems", len(rep.Problems), 0)
	ttesting.AssertEqualInt(t, "encoded tiles", rep.Tiles, 3)
	ttesting.AssertEqualInt(t, "encoded markers", rep.Markers, 3)

	names, _ := dst.TileNames()
	ttesting.AssertDiff(t, "tile names", []string{"10050007.map", "10051008.map", "10151007.map"}, names)

	// Layers survive byte for byte; the duplicate temple marker is gone.
	for _, name := range names {
		want, _ := automap.Parse(src.tiles[name])
		got, _ := automap.Parse(dst.tiles[name])
		if !bytes.Equal(want.Visual, got.Visual) || !bytes.Equal(want.Path, got.Path) {
			t.Errorf("%s: layers differ after round trip", name)
		}
	}
	got, _ := automap.Parse(dst.tiles["10050007.map"])
	ms, err := marker.Decode(got.MarkerBlock, 7)
	if err != nil {
		t.Fatal(err)
	}
	ttesting.AssertDiff(t, "re-encoded markers", []marker.Marker{temple}, ms)
}

func TestDecodeIsolatesBadTiles(t *testing.T) {
	src := newMemStore()
	good := tileid.ID{X: 10, Y: 10, Floor: 7}
	putTile(t, src, good, tileFile(t, 0, nil))
	putTile(t, src, tileid.ID{X: 11, Y: 10, Floor: 7}, make([]byte, 1000))
	src.tiles["not-a-tile.map"] = nil

	truncated := tileFile(t, 0, []marker.Marker{mk(12*256, 10*256, 7, 0, "x")})
	putTile(t, src, tileid.ID{X: 12, Y: 10, Floor: 7}, truncated[:len(truncated)-1])

	// Missing trailer and an unknown visual byte: warnings only.
	noTrailer := tileFile(t, 0, nil)[:automap.MarkerBlockOffset]
	noTrailer[0] = 0x01
	putTile(t, src, tileid.ID{X: 13, Y: 10, Floor: 7}, noTrailer)

	mid := newMemStore()
	rep, err := (&Decoder{Config: Config{IncludeMarkers: true}, Source: src, Rasters: mid, Markers: mid}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ttesting.AssertEqualInt(t, "tiles decoded", rep.Tiles, 3)
	ttesting.AssertEqualInt(t, "floors", rep.Floors, 1)

	want := map[string]error{
		"not-a-tile.map":    tileid.ErrMalformedIdentifier,
		"(11,10,7)":         automap.ErrBadLayerSize,
		"(12,10,7) markers": marker.ErrTruncatedMarkerBlock,
	}
	dropped := rep.Dropped()
	ttesting.AssertEqualInt(t, "dropped", len(dropped), len(want))
	for _, p := range dropped {
		if !errors.Is(p.Err, want[p.Subject]) {
			t.Errorf("%s: dropped with %v; want %v", p.Subject, p.Err, want[p.Subject])
		}
	}

	var warnings []error
	for _, p := range rep.Problems {
		if !p.Dropped {
			warnings = append(warnings, p.Err)
		}
	}
	ttesting.AssertEqualInt(t, "warnings", len(warnings), 2)
	for _, target := range []error{marker.ErrMissingMarkerBlock, palette.ErrUnknownByte} {
		found := false
		for _, w := range warnings {
			found = found || errors.Is(w, target)
		}
		if !found {
			t.Errorf("no warning wrapping %v", target)
		}
	}
	ttesting.AssertEqualRGBA(t, "unknown byte placeholder", mid.rasters[rasterKey(7, palette.Visual)].At(3*256, 0), palette.NoData)
}

func TestDecodeEmptyTileSet(t *testing.T) {
	src := newMemStore()
	src.tiles["junk"] = nil
	_, err := (&Decoder{Source: src, Rasters: newMemStore()}).Run(context.Background())
	if !errors.Is(err, tileid.ErrEmptyTileSet) {
		t.Errorf("Run = %v; want ErrEmptyTileSet", err)
	}
}

func TestDecodeWithoutMarkers(t *testing.T) {
	src := newMemStore()
	putTile(t, src, tileid.ID{X: 1, Y: 1, Floor: 7}, tileFile(t, 0, []marker.Marker{mk(256, 256, 7, 0, "x")})[:automap.MarkerBlockOffset+3])
	mid := newMemStore()
	rep, err := (&Decoder{Source: src, Rasters: mid}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The broken marker block is never looked at.
	ttesting.AssertEqualInt(t, "problems", len(rep.Problems), 0)
	if mid.markers != nil {
		t.Errorf("markers written with IncludeMarkers off")
	}
}

func TestDecodeFloorSinkFailure(t *testing.T) {
	lost := mk(256+1, 256+1, 6, marker.IconLock, "lost with floor 6")
	kept := mk(256+2, 256+2, 7, marker.IconBag, "kept")
	src := newMemStore()
	putTile(t, src, tileid.ID{X: 1, Y: 1, Floor: 6}, tileFile(t, 0, []marker.Marker{lost}))
	putTile(t, src, tileid.ID{X: 1, Y: 1, Floor: 7}, tileFile(t, 0, []marker.Marker{kept}))
	mid := newMemStore()
	mid.failRasterFloor = 6
	dec := &Decoder{Config: Config{IncludeMarkers: true}, Source: src, Rasters: mid, Markers: mid}
	rep, err := dec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ttesting.AssertEqualInt(t, "floors", rep.Floors, 1)
	ttesting.AssertEqualInt(t, "dropped", len(rep.Dropped()), 1)
	if _, ok := mid.rasters[rasterKey(7, palette.Path)]; !ok {
		t.Errorf("floor 7 not written after floor 6 failed")
	}
	ttesting.AssertDiff(t, "markers", []marker.Marker{kept}, mid.markers)
}

func TestDecodeOnTile(t *testing.T) {
	src := newMemStore()
	for x := 0; x < 3; x++ {
		putTile(t, src, tileid.ID{X: x, Y: 0, Floor: x + 5}, tileFile(t, byte(x), nil))
	}
	var mu sync.Mutex
	seen := 0
	cfg := Config{Parallel: 3, OnTile: func(tileid.ID) {
		mu.Lock()
		seen++
		mu.Unlock()
	}}
	if _, err := (&Decoder{Config: cfg, Source: src, Rasters: newMemStore()}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	ttesting.AssertEqualInt(t, "OnTile calls", seen, 3)
}

func TestDecodeCancelled(t *testing.T) {
	src := newMemStore()
	putTile(t, src, tileid.ID{X: 1, Y: 1, Floor: 7}, tileFile(t, 0, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Decoder{Source: src, Rasters: newMemStore()}).Run(ctx); err != context.Canceled {
		t.Errorf("Run = %v; want context.Canceled", err)
	}
}

func blankFloorStore(t *testing.T, b tileid.Bounds) *memStore {
	t.Helper()
	s := newMemStore()
	s.bounds = &b
	for _, z := range b.Floors {
		f := compositor.NewFloor(b, z)
		s.rasters[rasterKey(z, palette.Visual)] = f.Visual
		s.rasters[rasterKey(z, palette.Path)] = f.Path
	}
	return s
}

func TestEncodeSkipsBlankTiles(t *testing.T) {
	b := tileid.Bounds{XMin: 10, XMax: 12, YMin: 20, YMax: 20, Floors: []int{7}}
	b.Normalize()
	mid := blankFloorStore(t, b)
	mid.rasters[rasterKey(7, palette.Path)].(*image.RGBA).SetRGBA(256+3, 4, color.RGBA{0x40, 0x40, 0x40, 0xFF})
	mid.markers = []marker.Marker{mk(12*256+1, 20*256+1, 7, marker.IconFlag, "flag")}

	dst := newMemStore()
	rep, err := (&Encoder{Config: Config{IncludeMarkers: true}, Rasters: mid, Markers: mid, Sink: dst}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ttesting.AssertEqualInt(t, "problems", len(rep.Problems), 0)
	names, _ := dst.TileNames()
	// 10/20 is blank; 11/20 has an explored position; 12/20 is blank but has a marker.
	ttesting.AssertDiff(t, "written tiles", []string{"01102007.map", "01202007.map"}, names)

	tile, _ := automap.Parse(dst.tiles["01102007.map"])
	ttesting.AssertEqualByte(t, "explored byte", tile.Path[4*256+3], 0x40)
	ttesting.AssertDiff(t, "empty marker block", []byte{0, 0, 0, 0}, tile.MarkerBlock)
}

func TestEncodeIsolatesFailures(t *testing.T) {
	b := tileid.Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 0, Floors: []int{6, 7}}
	b.Normalize()
	mid := blankFloorStore(t, b)
	vis7 := mid.rasters[rasterKey(7, palette.Visual)].(*image.RGBA)
	vis7.SetRGBA(5, 5, color.RGBA{1, 2, 3, 0xFF})       // unmappable in tile 0/0
	vis7.SetRGBA(256+5, 5, color.RGBA{0, 102, 0, 0xFF}) // tree in tile 1/0
	delete(mid.rasters, rasterKey(6, palette.Path))
	mid.markers = []marker.Marker{
		mk(5*256, 0, 7, 0, "outside x"),
		mk(0, 0, 9, 0, "missing floor"),
		mk(256+1, 1, 7, 0, "日本"), // not Windows-1252: drops the markers of tile 1/0
	}

	dst := newMemStore()
	rep, err := (&Encoder{Config: Config{IncludeMarkers: true}, Rasters: mid, Markers: mid, Sink: dst}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ttesting.AssertEqualInt(t, "tiles written", len(dst.tiles), 1)
	ttesting.AssertEqualInt(t, "floors", rep.Floors, 1)
	if _, ok := dst.tiles["00100007.map"]; !ok {
		t.Errorf("tile 1/0 not written after its markers failed")
	}

	dropped := rep.Dropped()
	ttesting.AssertEqualInt(t, "dropped", len(dropped), 5)
	counts := make(map[error]int)
	for _, p := range dropped {
		for _, target := range []error{compositor.ErrOutOfBounds, marker.ErrMarkerOutOfRange, palette.ErrUnmappableColor} {
			if errors.Is(p.Err, target) {
				counts[target]++
			}
		}
	}
	ttesting.AssertEqualInt(t, "markers outside bounds", counts[compositor.ErrOutOfBounds], 2)
	ttesting.AssertEqualInt(t, "unencodable marker", counts[marker.ErrMarkerOutOfRange], 1)
	ttesting.AssertEqualInt(t, "unmappable color", counts[palette.ErrUnmappableColor], 1)
}

func TestEncodeWithoutMarkers(t *testing.T) {
	b := tileid.Bounds{XMin: 3, XMax: 3, YMin: 3, YMax: 3, Floors: []int{0}}
	b.Normalize()
	mid := blankFloorStore(t, b)
	mid.rasters[rasterKey(0, palette.Visual)].(*image.RGBA).SetRGBA(0, 0, color.RGBA{255, 255, 255, 0xFF})
	mid.markers = []marker.Marker{mk(3*256, 3*256, 0, 0, "ignored")}

	dst := newMemStore()
	if _, err := (&Encoder{Rasters: mid, Sink: dst}).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	tile, err := automap.Parse(dst.tiles["00300300.map"])
	if err != nil {
		t.Fatal(err)
	}
	ttesting.AssertEqualInt(t, "marker count", int(binary.LittleEndian.Uint32(tile.MarkerBlock)), 0)
	ttesting.AssertEqualByte(t, "snow", tile.Visual[0], 0xD7)
}

func TestEncodeBadBounds(t *testing.T) {
	s := newMemStore()
	s.bounds = &tileid.Bounds{XMin: 5, XMax: 4, Floors: []int{7}}
	if _, err := (&Encoder{Rasters: s, Sink: newMemStore()}).Run(context.Background()); err == nil {
		t.Errorf("Run accepted inverted bounds")
	}
	if _, err := (&Encoder{Rasters: newMemStore(), Sink: newMemStore()}).Run(context.Background()); err == nil {
		t.Errorf("Run without bounds succeeded")
	}
}

func TestEncodeKeepsLayersWhenMarkersFail(t *testing.T) {
	b := tileid.Bounds{XMin: 126, XMax: 126, YMin: 123, YMax: 123, Floors: []int{7}}
	b.Normalize()
	mid := blankFloorStore(t, b)
	mid.rasters[rasterKey(7, palette.Visual)].(*image.RGBA).SetRGBA(7, 9, color.RGBA{0, 102, 0, 0xFF})
	mid.markers = []marker.Marker{
		mk(126*256+1, 123*256+1, 7, marker.IconStar, "日本"),
		mk(126*256+2, 123*256+2, 7, marker.IconFlag, "fine"),
	}

	dst := newMemStore()
	rep, err := (&Encoder{Config: Config{IncludeMarkers: true}, Rasters: mid, Markers: mid, Sink: dst}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ttesting.AssertEqualInt(t, "tiles written", rep.Tiles, 1)
	ttesting.AssertEqualInt(t, "markers written", rep.Markers, 0)
	dropped := rep.Dropped()
	ttesting.AssertEqualInt(t, "dropped", len(dropped), 1)
	if len(dropped) == 1 && !errors.Is(dropped[0].Err, marker.ErrMarkerOutOfRange) {
		t.Errorf("dropped %v; want ErrMarkerOutOfRange", dropped[0].Err)
	}

	tile, err := automap.Parse(dst.tiles["12612307.map"])
	if err != nil {
		t.Fatal(err)
	}
	ttesting.AssertEqualByte(t, "tree", tile.Visual[9*256+7], 0x0C)
	ttesting.AssertDiff(t, "empty marker block", []byte{0, 0, 0, 0}, tile.MarkerBlock)
}

func TestEncodeDropsNegativeMarkersAlone(t *testing.T) {
	b := tileid.Bounds{XMin: 0, XMax: 0, YMin: 0, YMax: 0, Floors: []int{7}}
	b.Normalize()
	mid := blankFloorStore(t, b)
	mid.rasters[rasterKey(7, palette.Visual)].(*image.RGBA).SetRGBA(1, 1, color.RGBA{0, 102, 0, 0xFF})
	mid.markers = []marker.Marker{
		mk(-5, 10, 7, marker.IconSkull, "west of the world"),
		mk(10, 10, 7, marker.IconFlag, "home"),
	}

	dst := newMemStore()
	rep, err := (&Encoder{Config: Config{IncludeMarkers: true}, Rasters: mid, Markers: mid, Sink: dst}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ttesting.AssertEqualInt(t, "tiles written", rep.Tiles, 1)
	ttesting.AssertEqualInt(t, "markers written", rep.Markers, 1)
	dropped := rep.Dropped()
	ttesting.AssertEqualInt(t, "dropped", len(dropped), 1)
	if len(dropped) == 1 && !errors.Is(dropped[0].Err, compositor.ErrOutOfBounds) {
		t.Errorf("dropped %v; want ErrOutOfBounds", dropped[0].Err)
	}

	tile, err := automap.Parse(dst.tiles["00000007.map"])
	if err != nil {
		t.Fatal(err)
	}
	ms, err := marker.Decode(tile.MarkerBlock, 7)
	if err != nil {
		t.Fatal(err)
	}
	ttesting.AssertDiff(t, "markers", []marker.Marker{mk(10, 10, 7, marker.IconFlag, "home")}, ms)
}
