package diskimage

import (
	"context"
	"fmt"
	"strconv"
)

const (
	// DefaultBinary is the disk image utility shipped with macOS.
	DefaultBinary = "hdiutil"

	// DefaultFilesystem is the journaled filesystem used for the staging image.
	DefaultFilesystem = "HFS+"
	// DefaultFilesystemArgs tune HFS+ clump sizes for small application volumes.
	DefaultFilesystemArgs = "-c c=64,a=16,e=16"

	// FormatReadWrite is the writable staging image format.
	FormatReadWrite = "UDRW"
	// FormatCompressed is the zlib compressed read-only final format.
	FormatCompressed = "UDZO"

	// MaxCompressionLevel is the strongest zlib level.
	MaxCompressionLevel = 9
)

// CreateRequest describes a new writable staging image.
type CreateRequest struct {
	// Source is the directory whose contents are copied into the image.
	Source string
	// VolumeName is the label shown when the image is mounted.
	VolumeName string
	// Filesystem is passed to -fs.
	Filesystem string
	// FilesystemArgs is passed to -fsargs when not empty.
	FilesystemArgs string
	// CapacityMB is the image size in megabytes.
	CapacityMB int64
	// Path is where the image file is written.
	Path string
}

// ConvertRequest describes the conversion of the staging image into the final one.
type ConvertRequest struct {
	// Source is the staging image path.
	Source string
	// Format is the target image format.
	Format string
	// CompressionLevel is the zlib level, 1 to 9.
	CompressionLevel int
	// Path is the final image path.
	Path string
}

// Mounter attaches and detaches images.
type Mounter interface {
	Attach(ctx context.Context, image string) (string, error)
	Detach(ctx context.Context, mountPoint string) error
}

// Imager is the full set of operations the packaging pipeline depends on.
type Imager interface {
	Mounter

	Create(ctx context.Context, req CreateRequest) error
	Convert(ctx context.Context, req ConvertRequest) error
}

// Tool runs hdiutil sub-commands.
type Tool struct {
	// binary is the executable to run.
	binary string
	// runner executes the commands.
	runner Runner
	// parser extracts the mount point from attach output.
	parser MountPointParser
}

// Option configures a Tool.
type Option func(*Tool)

// WithBinary overrides the hdiutil executable path.
func WithBinary(binary string) Option {
	return func(t *Tool) {
		if binary != "" {
			t.binary = binary
		}
	}
}

// WithParser replaces the default mount point parser.
func WithParser(parser MountPointParser) Option {
	return func(t *Tool) {
		if parser != nil {
			t.parser = parser
		}
	}
}

// NewTool returns a Tool that executes commands through runner.
func NewTool(runner Runner, opts ...Option) *Tool {
	t := &Tool{
		binary: DefaultBinary,
		runner: runner,
		parser: VolumesParser{},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Create builds a writable image from req.Source. Progress goes to the runner's streams.
func (t *Tool) Create(ctx context.Context, req CreateRequest) error {
	args := []string{
		"create",
		"-srcfolder", req.Source,
		"-volname", req.VolumeName,
		"-fs", req.Filesystem,
	}

	if req.FilesystemArgs != "" {
		args = append(args, "-fsargs", req.FilesystemArgs)
	}

	args = append(args,
		"-format", FormatReadWrite,
		"-size", fmt.Sprintf("%dm", req.CapacityMB),
		req.Path,
	)

	if err := t.runner.Run(ctx, t.binary, args...); err != nil {
		return fmt.Errorf("create staging image: %w", err)
	}

	return nil
}

// Attach mounts image read-write without verification or Finder windows and
// returns the discovered mount point.
func (t *Tool) Attach(ctx context.Context, image string) (string, error) {
	output, err := t.runner.Output(ctx, t.binary,
		"attach", image,
		"-readwrite",
		"-noverify",
		"-noautoopen",
	)
	if err != nil {
		return "", fmt.Errorf("attach image: %w", err)
	}

	mountPoint, err := t.parser.ParseMountPoint(output)
	if err != nil {
		return "", fmt.Errorf("attach image %s: %w", image, err)
	}

	return mountPoint, nil
}

// Detach unmounts the volume at mountPoint.
func (t *Tool) Detach(ctx context.Context, mountPoint string) error {
	if err := t.runner.Run(ctx, t.binary, "detach", mountPoint, "-quiet"); err != nil {
		return fmt.Errorf("detach image: %w", err)
	}

	return nil
}

// Convert writes a compressed read-only copy of req.Source to req.Path.
func (t *Tool) Convert(ctx context.Context, req ConvertRequest) error {
	format := req.Format
	if format == "" {
		format = FormatCompressed
	}

	level := req.CompressionLevel
	if level <= 0 || level > MaxCompressionLevel {
		level = MaxCompressionLevel
	}

	args := []string{
		"convert", req.Source,
		"-format", format,
		"-imagekey", "zlib-level=" + strconv.Itoa(level),
		"-o", req.Path,
	}

	if err := t.runner.Run(ctx, t.binary, args...); err != nil {
		return fmt.Errorf("convert image: %w", err)
	}

	return nil
}
