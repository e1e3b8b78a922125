// Package volume adds convenience entries to a mounted staging volume,
// currently the Applications shortcut users drag the bundle onto.
package volume
