// Package config defines packaging settings and loads them from defaults,
// an optional YAML file, DMGPACK_* environment variables and CLI flags.
//
// Settings only tune how the disk image tool is invoked and how the volume is
// labelled; they never change the order of pipeline steps.
package config
