package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/dmgpack/internal/config"
	"github.com/oshokin/dmgpack/internal/diskimage"
	"github.com/oshokin/dmgpack/internal/logger"
	"github.com/oshokin/dmgpack/internal/product"
	"github.com/oshokin/dmgpack/internal/service/packager"
	"github.com/oshokin/dmgpack/internal/version"
)

// newRootCmd builds the dmgpack command tree.
func newRootCmd() *cobra.Command {
	// configPath is the settings file; the other flags are read through config.Load.
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "dmgpack <source-bundle> <output-image>",
		Short: "Package an application bundle into a compressed disk image",
		Long: `Package an application bundle directory into a single compressed, read-only disk image.

The bundle is measured, copied into a writable staging image with 50 MB of headroom,
given an Applications shortcut while mounted, and converted into a zlib compressed image
at the output path. Any previous image at the output path is replaced. The staging image
is created next to the output and removed afterwards, whether packaging succeeds or not.

Settings come from flags, DMGPACK_* environment variables and the settings file, in that order.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}

			// Arguments are valid from here on; failures are not usage errors.
			cmd.SilenceUsage = true

			applyLogLevel(cfg)

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				SourcePath: args[0],
				OutputPath: args[1],
				Config:     cfg,
			}

			return packager.Run(ctx, options)
		},
	}

	flags := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	flags.StringP("volume-name", "n", "", "volume label, overrides the product metadata name")
	flags.StringP("product-file", "p", product.DefaultFilename, "product metadata file providing the volume label")
	flags.StringP("log-level", "l", config.DefaultLogLevel, "log level: debug, info, warn or error")
	flags.String("tool", diskimage.DefaultBinary, "disk image utility executable")
	flags.String("filesystem", diskimage.DefaultFilesystem, "staging image filesystem")
	flags.Int("compression-level", diskimage.MaxCompressionLevel, "zlib compression level of the final image (1-9)")

	rootCmd.AddCommand(newInitConfigCmd(&configPath))
	version.AttachCobraVersionCommand(rootCmd)

	return rootCmd
}

// newInitConfigCmd writes the built-in settings to the settings file.
func newInitConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default settings to the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Save(*configPath, config.Default()); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Settings written", "path", *configPath)

			return nil
		},
	}
}

// applyLogLevel switches the global logger to the configured level.
func applyLogLevel(cfg *config.Config) {
	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}
}

// Execute runs the dmgpack CLI and exits with status 1 on any error.
func Execute() {
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
