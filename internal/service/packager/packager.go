package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/oshokin/dmgpack/internal/config"
	"github.com/oshokin/dmgpack/internal/diskimage"
	"github.com/oshokin/dmgpack/internal/domain/image"
	"github.com/oshokin/dmgpack/internal/logger"
	"github.com/oshokin/dmgpack/internal/product"
	"github.com/oshokin/dmgpack/internal/sizer"
	"github.com/oshokin/dmgpack/internal/volume"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// SourcePath is the application bundle directory.
	SourcePath string
	// OutputPath is where the final disk image is written.
	OutputPath string
	// Config tunes tool invocation and the volume label. Defaults apply when nil.
	Config *config.Config
}

// decorator mutates the mounted staging volume.
type decorator interface {
	Decorate(ctx context.Context, mountPoint string) error
}

// packager runs one packaging pipeline.
// It is unexported; callers use Run, which wires the real collaborators.
type packager struct {
	// cfg holds tool settings.
	cfg *config.Config
	// volumeName labels the mounted volume.
	volumeName string
	// fs is used for measuring, stale artifact removal and cleanup.
	fs afero.Fs
	// imager drives the disk image tool.
	imager diskimage.Imager
	// decorator adds the installation shortcut while mounted.
	decorator decorator
	// measure computes the bundle size.
	measure func(fs afero.Fs, root string) (int64, error)
	// freeSpace reports available bytes for the output directory.
	freeSpace func(path string) (uint64, error)
	// otherRuns counts concurrently running packager processes.
	otherRuns func() (int, error)
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "dmgpack")

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	volumeName, err := resolveVolumeName(ctx, cfg)
	if err != nil {
		return err
	}

	pkg := newPackager(cfg, volumeName)

	final, err := pkg.Run(ctx, opts.SourcePath, opts.OutputPath)
	if err != nil {
		return fmt.Errorf("packaging failed: %w", err)
	}

	logger.InfoKV(ctx, "Disk image created",
		"path", final.Path,
		"size", humanize.IBytes(uint64(final.SizeBytes)), //nolint:gosec // File sizes are never negative.
		"volume", volumeName,
	)

	return nil
}

// resolveVolumeName picks the configured label, then the product metadata, then the default.
func resolveVolumeName(ctx context.Context, cfg *config.Config) (string, error) {
	meta, err := product.Load(cfg.ProductFile)
	if err != nil {
		return "", err
	}

	name := image.VolumeName(cfg.VolumeName, meta.VolumeName())
	logger.DebugKV(ctx, "Resolved volume name", "name", name, "product_version", meta.Version)

	return name, nil
}

// newPackager wires the real filesystem and disk image tool.
func newPackager(cfg *config.Config, volumeName string) *packager {
	fs := afero.NewOsFs()

	return &packager{
		cfg:        cfg,
		volumeName: volumeName,
		fs:         fs,
		imager:     diskimage.NewTool(diskimage.NewExecRunner(), diskimage.WithBinary(cfg.Tool)),
		decorator:  volume.NewDecorator(fs),
		measure:    sizer.Measure,
		freeSpace:  diskimage.FreeSpace,
		otherRuns:  countOtherRuns,
	}
}

// Run packages source into output:
// 1) Validate the bundle and output paths.
// 2) Measure the bundle and plan the capacity.
// 3) Remove stale staging and output artifacts.
// 4) Create the writable staging image.
// 5) Mount it, add the shortcut and unmount.
// 6) Convert it into the compressed final image.
// 7) Report the result.
// The staging image is removed on every exit path after validation.
func (p *packager) Run(ctx context.Context, source, output string) (*image.FinalImage, error) {
	// Validation.
	bundle, err := image.NewSourceBundle(source)
	if err != nil {
		return nil, err
	}

	outputPath, err := image.ResolveOutput(bundle, output)
	if err != nil {
		return nil, err
	}

	stagingPath := image.StagingPath(outputPath)
	ctx = logger.WithKV(ctx, "output", outputPath)

	defer p.cleanup(ctx, stagingPath)

	p.warnConcurrentRuns(ctx)

	// Planning.
	plan, err := p.plan(ctx, bundle)
	if err != nil {
		return nil, err
	}

	p.warnLowFreeSpace(ctx, filepath.Dir(outputPath), plan)

	// Stale artifacts.
	for _, path := range []string{stagingPath, outputPath} {
		if err = p.removeIfExists(ctx, path); err != nil {
			return nil, err
		}
	}

	// Staging.
	logger.InfoKV(ctx, "Creating staging image", "path", stagingPath, "capacity", plan.SizeArg())

	err = p.imager.Create(ctx, diskimage.CreateRequest{
		Source:         bundle.Path,
		VolumeName:     p.volumeName,
		Filesystem:     p.cfg.Filesystem,
		FilesystemArgs: p.cfg.FilesystemArgs,
		CapacityMB:     plan.CapacityMB,
		Path:           stagingPath,
	})
	if err != nil {
		return nil, err
	}

	// Decoration.
	logger.Info(ctx, "Mounting staging image")

	if err = diskimage.WithMount(ctx, p.imager, stagingPath, p.decorator.Decorate); err != nil {
		return nil, err
	}

	// Conversion.
	logger.InfoKV(ctx, "Converting to compressed image", "compression_level", p.cfg.CompressionLevel)

	err = p.imager.Convert(ctx, diskimage.ConvertRequest{
		Source:           stagingPath,
		Format:           diskimage.FormatCompressed,
		CompressionLevel: p.cfg.CompressionLevel,
		Path:             outputPath,
	})
	if err != nil {
		p.removePartial(ctx, outputPath)
		return nil, err
	}

	// Report.
	return p.report(ctx, outputPath, plan)
}

// plan measures the bundle and derives the staging capacity.
func (p *packager) plan(ctx context.Context, bundle image.SourceBundle) (image.CapacityPlan, error) {
	logger.InfoKV(ctx, "Measuring bundle", "path", bundle.Path)

	size, err := p.measure(p.fs, bundle.Path)
	if err != nil {
		return image.CapacityPlan{}, err
	}

	plan, err := image.PlanCapacity(size)
	if err != nil {
		return image.CapacityPlan{}, err
	}

	logger.InfoKV(ctx, "Planned staging capacity",
		"bundle_size", humanize.IBytes(uint64(size)), //nolint:gosec // PlanCapacity rejects negative sizes.
		"capacity_mb", plan.CapacityMB,
	)

	return plan, nil
}

// report stats the final image and logs its size against the bundle size.
func (p *packager) report(ctx context.Context, outputPath string, plan image.CapacityPlan) (*image.FinalImage, error) {
	info, err := p.fs.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("stat final image: %w", err)
	}

	final := &image.FinalImage{
		Path:      outputPath,
		SizeBytes: info.Size(),
	}

	kvs := []any{"size", humanize.IBytes(uint64(final.SizeBytes))} //nolint:gosec // File sizes are never negative.
	if plan.SourceBytes > 0 {
		kvs = append(kvs, "ratio", fmt.Sprintf("%.1f%%", float64(final.SizeBytes)*100/float64(plan.SourceBytes)))
	}

	logger.InfoKV(ctx, "Compressed image written", kvs...)

	return final, nil
}

// removeIfExists deletes a stale artifact. An absent path is fine.
func (p *packager) removeIfExists(ctx context.Context, path string) error {
	err := p.fs.Remove(path)

	switch {
	case err == nil:
		logger.InfoKV(ctx, "Removed stale artifact", "path", path)
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("remove stale artifact %s: %w", path, err)
	}
}

// cleanup removes the staging image. Failures are logged and never change the result.
func (p *packager) cleanup(ctx context.Context, stagingPath string) {
	err := p.fs.Remove(stagingPath)

	switch {
	case err == nil:
		logger.DebugKV(ctx, "Removed staging image", "path", stagingPath)
	case errors.Is(err, os.ErrNotExist):
	default:
		logger.WarnKV(ctx, "Unable to remove staging image", "path", stagingPath, "error", err)
	}
}

// removePartial deletes whatever a failed conversion left at the output path.
func (p *packager) removePartial(ctx context.Context, outputPath string) {
	err := p.fs.Remove(outputPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove partial image", "path", outputPath, "error", err)
	}
}
