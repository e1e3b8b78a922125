// Package packager turns an application bundle into a compressed disk image.
//
// Run validates the bundle, plans the staging image capacity from a fresh
// measurement, removes stale artifacts, creates and decorates a writable
// staging image, converts it into the final read-only image and always
// removes the staging image before returning. Steps run strictly one after
// another and every external tool call blocks until the tool exits.
package packager
