package diskimage

import (
	"context"
	"fmt"

	"github.com/oshokin/dmgpack/internal/logger"
)

// WithMount attaches image, runs body with the mount point and detaches again.
// Detach runs on every exit path once attach succeeded, including a failing or
// panicking body, and it is not cancelled by ctx. The body error takes priority;
// a detach error is returned only when the body succeeded.
func WithMount(
	ctx context.Context,
	mounter Mounter,
	image string,
	body func(ctx context.Context, mountPoint string) error,
) (err error) {
	mountPoint, err := mounter.Attach(ctx, image)
	if err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "mount_point", mountPoint)
	logger.Info(ctx, "Staging image attached")

	defer func() {
		logger.Info(ctx, "Detaching staging image")

		detachErr := mounter.Detach(context.WithoutCancel(ctx), mountPoint)
		if detachErr == nil {
			return
		}

		logger.ErrorKV(ctx, "Detach failed", "error", detachErr)

		if err == nil {
			err = fmt.Errorf("unmount %s: %w", mountPoint, detachErr)
		}
	}()

	return body(ctx, mountPoint)
}
