package packager

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-ps"

	"github.com/oshokin/dmgpack/internal/domain/image"
	"github.com/oshokin/dmgpack/internal/logger"
)

// warnConcurrentRuns logs a warning when another packager process is running.
// Runs targeting the same output race on stale artifact removal and creation.
func (p *packager) warnConcurrentRuns(ctx context.Context) {
	if p.otherRuns == nil {
		return
	}

	count, err := p.otherRuns()
	if err != nil {
		logger.DebugKV(ctx, "Unable to list processes", "error", err)
		return
	}

	if count > 0 {
		logger.WarnKV(ctx, "Another packaging run is in progress; runs sharing an output path will collide",
			"processes", count)
	}
}

// warnLowFreeSpace logs a warning when the output directory cannot hold the staging image.
func (p *packager) warnLowFreeSpace(ctx context.Context, dir string, plan image.CapacityPlan) {
	if p.freeSpace == nil {
		return
	}

	free, err := p.freeSpace(dir)
	if err != nil {
		logger.DebugKV(ctx, "Unable to read free disk space", "path", dir, "error", err)
		return
	}

	needed := uint64(plan.CapacityBytes()) //nolint:gosec // Capacity is positive by construction.
	if free < needed {
		logger.WarnKV(ctx, "Low free disk space for the staging image",
			"path", dir,
			"free", humanize.IBytes(free),
			"needed", humanize.IBytes(needed),
		)
	}
}

// countOtherRuns returns how many other processes share this executable's name.
func countOtherRuns() (int, error) {
	processes, err := ps.Processes()
	if err != nil {
		return 0, err
	}

	var (
		self  = os.Getpid()
		name  = filepath.Base(os.Args[0])
		count int
	)

	for _, process := range processes {
		if process.Pid() == self || process.Executable() != name {
			continue
		}

		count++
	}

	return count, nil
}
