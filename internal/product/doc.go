// Package product reads the static product metadata file shipped next to
// the application sources. Only the display name is used, to label the volume.
package product
