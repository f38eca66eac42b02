package paths

import (
	"flag"
)

// SetupDirFlag creates a new string flag with the passed name, defaulting
// to the client's automap directory if FindMinimapDir finds one. If not,
// the flag defaults to an empty string.
func SetupDirFlag(flagName, usage string, flagPtr *string) {
	flag.StringVar(flagPtr, flagName, FindMinimapDir(), usage)
}
