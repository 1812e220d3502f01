package main

import (
	"fmt"
	"runtime"
)

// These variables are set via ldflags during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// versionSummary is logged at startup so saved transcripts can be tied to a build.
func versionSummary() string {
	short := commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s, built %s, %s, %s/%s)", version, short, date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
