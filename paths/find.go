// Package paths locates the game client's automap directory and provides
// filesystem implementations of the convert collaborators.
package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/golang/glog"

	"badc0de.net/pkg/go-tibia-maps/tileid"
)

// FindMinimapDir returns the first of the client's usual automap
// directories that contains at least one tile file, or "" if none does.
func FindMinimapDir() string {
	for _, dir := range possibleMinimapDirs() {
		if m, err := filepath.Glob(filepath.Join(dir, "*"+tileid.Extension)); err == nil && len(m) > 0 {
			glog.Infof("paths.FindMinimapDir()=%s", dir)
			return dir
		}
	}
	return ""
}

// possibleMinimapDirs lists where installed clients keep their automap.
func possibleMinimapDirs() []string {
	var dirs []string
	if d := os.Getenv("TIBIA_MINIMAP_DIR"); d != "" {
		dirs = append(dirs, d)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		glog.V(2).Infof("paths: no home directory: %v", err)
		return dirs
	}
	switch runtime.GOOS {
	case "windows":
		if d := os.Getenv("LOCALAPPDATA"); d != "" {
			dirs = append(dirs, filepath.Join(d, "Tibia", "packages", "Tibia", "minimap"))
		}
	case "darwin":
		dirs = append(dirs, filepath.Join(home, "Library", "Application Support", "CipSoft GmbH", "Tibia", "packages", "Tibia", "minimap"))
	default:
		dirs = append(dirs, filepath.Join(home, ".local", "share", "CipSoft GmbH", "Tibia", "packages", "Tibia", "minimap"))
	}
	// Older clients.
	dirs = append(dirs, filepath.Join(home, ".tibia", "Automap"))
	return dirs
}
