// Package image contains the value types of the packaging pipeline.
//
// It defines the source bundle, the capacity plan derived from its size,
// the naming rule for the staging image and the final artifact description.
// Nothing here touches the disk image tool; the types are plain values.
package image
