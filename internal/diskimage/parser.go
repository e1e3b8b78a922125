package diskimage

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMountPointNotFound is returned when attach output names no mount point.
// It usually means the tool changed its output format.
var ErrMountPointNotFound = errors.New("mount point not found in attach output")

// MountPointParser extracts the mount point from attach output.
type MountPointParser interface {
	ParseMountPoint(output []byte) (string, error)
}

// MountPointParserFunc adapts a function to MountPointParser.
type MountPointParserFunc func(output []byte) (string, error)

// ParseMountPoint implements MountPointParser.
func (f MountPointParserFunc) ParseMountPoint(output []byte) (string, error) {
	return f(output)
}

// volumesPattern matches a /Volumes/... path at the end of a line.
// Volume names may contain spaces, so the match runs to the end of the line.
var volumesPattern = regexp.MustCompile(`(?m)(/Volumes/[^\t\r\n]+?)[ \t]*\r?$`)

// VolumesParser reads the tab-separated table hdiutil attach prints and
// returns the last /Volumes path in it, which belongs to the mounted partition.
type VolumesParser struct{}

// ParseMountPoint implements MountPointParser.
func (VolumesParser) ParseMountPoint(output []byte) (string, error) {
	matches := volumesPattern.FindAllSubmatch(output, -1)
	if len(matches) == 0 {
		return "", ErrMountPointNotFound
	}

	mountPoint := strings.TrimSpace(string(matches[len(matches)-1][1]))
	if mountPoint == "" {
		return "", ErrMountPointNotFound
	}

	return mountPoint, nil
}
