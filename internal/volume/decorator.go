package volume

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/oshokin/dmgpack/internal/logger"
)

const (
	// DefaultLinkName is the name of the shortcut inside the volume.
	DefaultLinkName = "Applications"
	// DefaultLinkTarget is where the shortcut points.
	DefaultLinkTarget = "/Applications"
)

// ErrSymlinkUnsupported is returned when the filesystem cannot create symlinks.
var ErrSymlinkUnsupported = errors.New("filesystem does not support symlinks")

// Decorator creates the installation shortcut on a mounted volume.
type Decorator struct {
	// fs is the filesystem the mount point lives on.
	fs afero.Fs
	// name is the entry created at the volume root.
	name string
	// target is what the entry points to.
	target string
}

// NewDecorator returns a Decorator creating DefaultLinkName → DefaultLinkTarget on fs.
func NewDecorator(fs afero.Fs) *Decorator {
	return &Decorator{
		fs:     fs,
		name:   DefaultLinkName,
		target: DefaultLinkTarget,
	}
}

// Decorate creates the shortcut under mountPoint unless an entry with that name exists.
func (d *Decorator) Decorate(ctx context.Context, mountPoint string) error {
	link := filepath.Join(mountPoint, d.name)

	exists, err := d.exists(link)
	if err != nil {
		return err
	}

	if exists {
		logger.InfoKV(ctx, "Shortcut already present, skipping", "path", link)
		return nil
	}

	linker, ok := d.fs.(afero.Linker)
	if !ok {
		return ErrSymlinkUnsupported
	}

	if err = linker.SymlinkIfPossible(d.target, link); err != nil {
		return fmt.Errorf("create shortcut %s: %w", link, err)
	}

	logger.InfoKV(ctx, "Created shortcut", "path", link, "target", d.target)

	return nil
}

// exists reports whether path is present without following a symlink at path.
func (d *Decorator) exists(path string) (bool, error) {
	var err error

	if lstater, ok := d.fs.(afero.Lstater); ok {
		_, _, err = lstater.LstatIfPossible(path)
	} else {
		_, err = d.fs.Stat(path)
	}

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("inspect %s: %w", path, err)
	}
}
