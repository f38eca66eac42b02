package paths

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// TileDir is a directory of automap tile files. It is a convert.TileSource
// and a convert.TileSink.
type TileDir struct {
	Path string
}

// TileNames lists the tile files in the directory, sorted.
func (d TileDir) TileNames() ([]string, error) {
	names, err := filepath.Glob(filepath.Join(d.Path, "*"+tileid.Extension))
	if err != nil {
		return nil, errors.Wrapf(err, "listing %q", d.Path)
	}
	for i, n := range names {
		names[i] = filepath.Base(n)
	}
	sort.Strings(names)
	return names, nil
}

func (d TileDir) tilePath(id tileid.ID) (string, error) {
	name, err := tileid.FileName(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.Path, name), nil
}

// ReadTile reads one tile file.
func (d TileDir) ReadTile(id tileid.ID) ([]byte, error) {
	p, err := d.tilePath(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	return b, errors.Wrapf(err, "reading tile %q", p)
}

// WriteTile writes one tile file, creating the directory if needed.
func (d TileDir) WriteTile(id tileid.ID, data []byte) error {
	p, err := d.tilePath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return errors.Wrapf(err, "creating %q", d.Path)
	}
	glog.V(2).Infof("writing %s (%d bytes)", p, len(data))
	return errors.Wrapf(os.WriteFile(p, data, 0644), "writing tile %q", p)
}

// RemoveTiles deletes every tile file in the directory, leaving anything
// else alone. A missing directory is not an error.
func (d TileDir) RemoveTiles() error {
	names, err := d.TileNames()
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := os.Remove(filepath.Join(d.Path, n)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %q", n)
		}
	}
	glog.V(1).Infof("removed %d tiles from %s", len(names), d.Path)
	return nil
}
