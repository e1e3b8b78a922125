package image

import (
	"errors"
	"fmt"
)

const (
	// BytesPerMB is the unit the disk image tool uses for -size ...m.
	BytesPerMB = 1 << 20

	// CapacityMarginMB is reserved on top of the measured content for
	// filesystem metadata and the journal.
	CapacityMarginMB = 50

	// MaxSourceBytes bounds the measured size so the capacity stays well inside int64.
	MaxSourceBytes = 1 << 50
)

// ErrInvalidSize is returned when a measured size cannot be planned for.
var ErrInvalidSize = errors.New("invalid source size")

// CapacityPlan is the capacity derived from a fresh measurement of the bundle.
type CapacityPlan struct {
	// SourceBytes is the measured size of the bundle contents.
	SourceBytes int64
	// CapacityMB is the staging image capacity in whole megabytes.
	CapacityMB int64
}

// PlanCapacity returns ceil(sizeBytes / 1 MiB) + CapacityMarginMB.
func PlanCapacity(sizeBytes int64) (CapacityPlan, error) {
	if sizeBytes < 0 || sizeBytes > MaxSourceBytes {
		return CapacityPlan{}, fmt.Errorf("%w: %d bytes", ErrInvalidSize, sizeBytes)
	}

	wholeMB := (sizeBytes + BytesPerMB - 1) / BytesPerMB

	return CapacityPlan{
		SourceBytes: sizeBytes,
		CapacityMB:  wholeMB + CapacityMarginMB,
	}, nil
}

// CapacityBytes returns the planned capacity in bytes.
func (p CapacityPlan) CapacityBytes() int64 {
	return p.CapacityMB * BytesPerMB
}

// SizeArg renders the capacity the way the disk image tool expects it, e.g. "850m".
func (p CapacityPlan) SizeArg() string {
	return fmt.Sprintf("%dm", p.CapacityMB)
}
