// Package diskimage drives the macOS disk image utility (hdiutil).
//
// Tool maps the four operations the packager needs (create, attach, detach,
// convert) onto command lines and runs them one at a time through a Runner.
// The mount point printed by attach is extracted by a MountPointParser so the
// matching strategy can change without touching callers. WithMount brackets
// work on an attached image and always detaches afterwards.
package diskimage
