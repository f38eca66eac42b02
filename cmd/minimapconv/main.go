// Command minimapconv converts the game client's automap tiles into
// per-floor PNG rasters plus markers.json, and back.
//
//	minimapconv -from_dir ~/.local/share/.../minimap -output_dir data
//	minimapconv -from_data data -output_dir minimap
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"

	"badc0de.net/pkg/go-tibia-maps/convert"
	"badc0de.net/pkg/go-tibia-maps/paths"
	"badc0de.net/pkg/go-tibia-maps/tileid"
)

var (
	fromData    = flag.String("from_data", "", "directory of floor PNGs, bounds.json and markers.json to encode into automap tiles")
	outputDir   = flag.String("output_dir", "", "directory to write to")
	markers     = flag.Bool("markers", true, "whether to convert markers")
	parallel    = flag.Int("parallel", 1, "number of floors to process at once")
	progress    = flag.Bool("progress", false, "whether to show a progress bar")
	clearOutput = flag.Bool("clear_output", false, "when encoding, whether to remove existing tiles from output_dir first")

	fromDir string
)

func main() {
	paths.SetupDirFlag("from_dir", "automap directory to decode", &fromDir)
	flagutil.Parse()

	if *outputDir == "" {
		glog.Exit("-output_dir is required")
	}
	fromDirSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "from_dir" {
			fromDirSet = true
		}
	})
	encoding, err := pickDirection(fromDir, *fromData, fromDirSet)
	if err != nil {
		glog.Exit(err)
	}

	cfg := convert.Config{
		IncludeMarkers: *markers,
		Parallel:       *parallel,
	}
	var bar *progressbar.ProgressBar
	if *progress {
		bar = progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
		cfg.OnTile = func(tileid.ID) { bar.Add(1) }
	}

	var rep *convert.Report
	if encoding {
		rep, err = encode(cfg)
	} else {
		rep, err = decode(cfg)
	}
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		glog.Exitf("conversion failed: %v", err)
	}

	dropped := rep.Dropped()
	glog.Infof("%d tiles, %d floors, %d markers; %d problems, %d dropped", rep.Tiles, rep.Floors, rep.Markers, len(rep.Problems), len(dropped))
	glog.Flush()
	if len(dropped) > 0 {
		for _, p := range dropped {
			fmt.Fprintln(os.Stderr, p)
		}
		os.Exit(2)
	}
}

// pickDirection reports whether the run encodes. -from_dir defaults to the
// discovered client directory, so only an explicit -from_dir conflicts
// with -from_data.
func pickDirection(fromDir, fromData string, fromDirSet bool) (bool, error) {
	switch {
	case fromData != "" && fromDirSet && fromDir != "":
		return false, errors.New("-from_dir and -from_data are mutually exclusive")
	case fromData != "":
		return true, nil
	case fromDir == "":
		return false, errors.New("no client minimap directory found; pass -from_dir or -from_data")
	}
	return false, nil
}

func decode(cfg convert.Config) (*convert.Report, error) {
	glog.Infof("decoding %s into %s", fromDir, *outputDir)
	out := paths.MapDir{Path: *outputDir}
	d := &convert.Decoder{
		Config:  cfg,
		Source:  paths.TileDir{Path: fromDir},
		Rasters: out,
		Markers: out,
	}
	return d.Run(context.Background())
}

func encode(cfg convert.Config) (*convert.Report, error) {
	glog.Infof("encoding %s into %s", *fromData, *outputDir)
	sink := paths.TileDir{Path: *outputDir}
	if *clearOutput {
		if err := sink.RemoveTiles(); err != nil {
			return nil, err
		}
	}
	in := paths.MapDir{Path: *fromData}
	e := &convert.Encoder{
		Config:  cfg,
		Rasters: in,
		Markers: in,
		Sink:    sink,
	}
	return e.Run(context.Background())
}
