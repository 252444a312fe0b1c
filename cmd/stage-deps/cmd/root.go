package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/stage-deps/internal/config"
	"github.com/oshokin/stage-deps/internal/logger"
	"github.com/oshokin/stage-deps/internal/service/stager"
	"github.com/oshokin/stage-deps/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// sourceRoot overrides the configured source root.
	sourceRoot string
	// logLevel is the minimum level of printed messages.
	logLevel string
	// dryRun reports the plan without copying.
	dryRun bool
	// collectMissing reports every missing source instead of the first one.
	collectMissing bool

	// rootCmd stages toolkit runtime libraries into a build output directory.
	rootCmd = newRootCommand()
)

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stage-deps <dest-dir> <variant> [toolset]",
		Short: "Copy toolkit runtime libraries into a build output directory",
		Long: `Copies the toolkit shared libraries and their debug symbols required at runtime
into the destination directory.

The variant selects debug artifacts when it equals "debug" in any case; any other
value selects release artifacts. The optional toolset token (e.g. v140) is turned
into a toolset identifier by dropping its first character and adding the configured tag.

Artifacts are read from <source-root>/bin. Files already present in the destination
are left untouched. The run stops at the first missing source artifact.`,
		Args:         cobra.RangeArgs(2, 3),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			defer logger.Sync()

			options := &stager.Options{
				ConfigPath:     configPath,
				ConfigRequired: isChanged(cmd.Flags(), "config"),
				DestDir:        args[0],
				Variant:        args[1],
				SourceRoot:     sourceRoot,
				DryRun:         dryRun,
				CollectMissing: collectMissing,
			}

			if len(args) > 2 {
				options.ToolsetToken = args[2]
			}

			_, err := stager.Run(ctx, options)

			return err
		},
	}
}

// Execute runs the stage-deps CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isChanged(flags *pflag.FlagSet, name string) bool {
	flag := flags.Lookup(name)

	return flag != nil && flag.Changed
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&sourceRoot, "source-root", "s", "",
		"toolkit installation root with prebuilt artifacts under bin/ (overrides "+config.SourceRootEnv+")")
	flags.BoolVar(&dryRun, "dry-run", false, "report what would be copied without copying")
	flags.BoolVar(&collectMissing, "collect-missing", false, "check every source before copying and report all missing ones")

	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")
}
