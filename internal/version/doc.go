// Package version exposes build metadata for dmgpack.
//
// Version, Commit and BuildTime are injected via -ldflags at release time.
package version
