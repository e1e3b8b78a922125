package sizer

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// Measure returns the total size in bytes of all regular files under root.
// Directories add nothing themselves and symlinks are neither followed nor
// counted, because the disk image tool copies them as links.
// The first unreadable entry aborts the walk.
func Measure(fs afero.Fs, root string) (int64, error) {
	var total int64

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}

		if info.Mode().IsRegular() {
			total += info.Size()
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measure %s: %w", root, err)
	}

	return total, nil
}
