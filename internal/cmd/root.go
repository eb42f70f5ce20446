// Package cmd provides the gem2deb-extension-builder command.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	gem2deb "github.com/contriboss/gem2deb-go"
	"github.com/contriboss/gem2deb-go/internal/config"
	"github.com/contriboss/gem2deb-go/internal/output"
	"github.com/contriboss/gem2deb-go/metadata"
)

// CommandName is the program name shown in usage.
const CommandName = "gem2deb-extension-builder"

var errUsage = errors.New("wrong number of arguments")

// NewRootCmd creates the ROOT DESTDIR command.
func NewRootCmd() *cobra.Command {
	var verboseFlag bool

	loader := config.NewLoader()

	rootCmd := &cobra.Command{
		Use:   CommandName + " ROOT DESTDIR",
		Short: "Build and install the native extensions of a Ruby gem",
		Long: `Builds every native extension of the gem source tree ROOT and installs
the compiled artifacts into DESTDIR under Ruby's vendor arch directory.

Extensions are built one at a time, in order; the first failure stops the run.

Environment:
  DH_RUBY_GEMSPEC          gemspec to use instead of ROOT/*.gemspec
  MAKE                     make program
  GEM2DEB_RUBY             Ruby interpreter (default: ruby)
  GEM2DEB_VENDOR_ARCH_DIR  install directory relative to DESTDIR
                           (default: RbConfig::CONFIG["vendorarchdir"])
  GEM2DEB_CHECK_TOOLS      check build tools before building (default: true)`,
		Args:          usageArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loader.BindFlag("verbose", cmd.Flags().Lookup("verbose"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loader.Load()
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}
			return runBuild(cmd.Context(), cmd, cfg, args[0], args[1])
		},
	}

	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output (env: GEM2DEB_VERBOSE)")

	return rootCmd
}

// usageArgs prints the usage line on stdout for anything but two arguments.
func usageArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 2 {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "usage: %s ROOT DESTDIR\n", CommandName)
	return &ExitError{Code: ExitFailure, Err: errUsage, Printed: true}
}

func runBuild(ctx context.Context, cmd *cobra.Command, cfg *config.Config, root, destdir string) error {
	output.SetupLogging(output.LogConfig{Verbose: cfg.Verbose})
	output.Debug("configuration",
		"gemspec", cfg.Gemspec,
		"ruby", cfg.Ruby,
		"make", cfg.Make,
		"vendor_arch_dir", cfg.VendorArchDir,
	)

	opts := []metadata.Option{metadata.WithRuby(cfg.Ruby)}
	if cfg.Gemspec != "" {
		opts = append(opts, metadata.WithGemspecOverride(cfg.Gemspec))
	}

	md, err := metadata.Resolve(ctx, root, opts...)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	if !md.HasNativeExtensions() {
		output.Debug("no native extensions", "root", root)
		return nil
	}

	builder := gem2deb.NewExtensionBuilder(&gem2deb.BuildConfig{
		RubyPath:      cfg.Ruby,
		MakeProgram:   cfg.Make,
		VendorArchDir: cfg.VendorArchDir,
		Verbose:       cfg.Verbose,
		CheckTools:    cfg.CheckTools,
	})
	builder.Output = cmd.OutOrStdout()

	results, err := builder.BuildAllExtensions(ctx, md, destdir)
	if err != nil {
		if errors.Is(err, gem2deb.ErrUnrecognizedExtensionType) {
			failed := results[len(results)-1].Extension
			fmt.Fprintf(cmd.OutOrStdout(), "Cannot build extension '%s'\n", failed)
			return &ExitError{Code: ExitFailure, Err: err, Printed: true}
		}
		return &ExitError{Code: ExitFailure, Err: err}
	}

	for _, r := range results {
		output.Info("installed extension", "extension", r.Extension, "libraries", len(r.Extensions))
	}
	return nil
}
