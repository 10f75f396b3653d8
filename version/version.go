package version

import (
	"fmt"
	"io"
	"os"
	"runtime"
)

// Package is the overall, canonical project import path under which the
// package was built.
var Package = "github.com/pkgvault/pkgvault"

// Version indicates which version of the binary is running. This is set to
// the latest release tag by hand, always suffixed by "+unknown". During
// build, it will be replaced by the actual version.
var Version = "v0.1.0+unknown"

// FprintVersion outputs the version string to the writer, in the following
// format, followed by a newline:
//
//     <cmd> <project version>
func FprintVersion(w io.Writer) {
	fmt.Fprintln(w, os.Args[0], Package, Version, runtime.Version())
}

// PrintVersion outputs the version information, from Fprint, to stdout.
func PrintVersion() {
	FprintVersion(os.Stdout)
}
