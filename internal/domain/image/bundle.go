package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultVolumeName labels the mounted volume when nothing else is configured.
	DefaultVolumeName = "Application"

	// stagingSuffix is appended to the output base name to get the staging image path.
	stagingSuffix = "_temp"
)

var (
	// ErrSourceNotFound is returned when the bundle directory does not exist.
	ErrSourceNotFound = errors.New("source bundle not found")
	// ErrSourceNotDirectory is returned when the bundle path is not a directory.
	ErrSourceNotDirectory = errors.New("source bundle is not a directory")
	// ErrOutputRequired is returned when no output path is given.
	ErrOutputRequired = errors.New("output path must be provided")
	// ErrOutputIsSource is returned when the output would overwrite the bundle itself.
	ErrOutputIsSource = errors.New("output path must differ from the source bundle")
)

// SourceBundle is the application directory being packaged.
type SourceBundle struct {
	// Path is the absolute path of the bundle directory.
	Path string
}

// NewSourceBundle resolves path and checks that it is an existing directory.
func NewSourceBundle(path string) (SourceBundle, error) {
	if strings.TrimSpace(path) == "" {
		return SourceBundle{}, fmt.Errorf("%w: empty path", ErrSourceNotFound)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return SourceBundle{}, fmt.Errorf("resolve source path: %w", err)
	}

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return SourceBundle{}, fmt.Errorf("%w: %s", ErrSourceNotFound, abs)
	} else if err != nil {
		return SourceBundle{}, fmt.Errorf("stat source bundle: %w", err)
	}

	if !info.IsDir() {
		return SourceBundle{}, fmt.Errorf("%w: %s", ErrSourceNotDirectory, abs)
	}

	return SourceBundle{Path: abs}, nil
}

// Name returns the base name of the bundle, e.g. "MyApp.app".
func (b SourceBundle) Name() string {
	return filepath.Base(b.Path)
}

// FinalImage describes the compressed artifact handed to users.
type FinalImage struct {
	// Path is the caller-specified output path.
	Path string
	// SizeBytes is the size observed after conversion.
	SizeBytes int64
}

// ResolveOutput returns the absolute output path and rejects paths that collide with the bundle.
func ResolveOutput(bundle SourceBundle, output string) (string, error) {
	if strings.TrimSpace(output) == "" {
		return "", ErrOutputRequired
	}

	abs, err := filepath.Abs(output)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}

	if abs == bundle.Path {
		return "", ErrOutputIsSource
	}

	return abs, nil
}

// StagingPath derives the writable staging image path from the output path:
// same directory, same base name with a "_temp" suffix, same extension.
func StagingPath(output string) string {
	ext := filepath.Ext(output)

	return strings.TrimSuffix(output, ext) + stagingSuffix + ext
}

// VolumeName picks the first non-blank candidate, falling back to DefaultVolumeName.
func VolumeName(candidates ...string) string {
	for _, name := range candidates {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}

	return DefaultVolumeName
}
