package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/pflag"
)

// Version information, injected at build time via -ldflags.
var (
	gitVersion = "v0.0.0-dev"
	gitCommit  = "unknown"
	buildDate  = "unknown"
)

var versionRequested bool

// GetVersion returns the version string.
func GetVersion() string {
	return gitVersion
}

// AddVersionFlags adds version-related flags to the flagset.
func AddVersionFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&versionRequested, "version", false, "Print version information and quit")
}

// PrintAndExitIfRequested prints version and exits if --version flag is set.
func PrintAndExitIfRequested() {
	if !versionRequested {
		return
	}
	fmt.Printf("%s (commit %s, built %s, %s %s/%s)\n",
		gitVersion, gitCommit, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	os.Exit(0)
}
