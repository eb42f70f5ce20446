package gem2deb

import (
	"context"
	"path/filepath"
	"strings"
)

const (
	rakeCommand = "rake"

	// rakeLoader runs rake from the installed gem when no rake binary is on PATH.
	rakeLoader = `load Gem.bin_path("rake", "rake")`
)

// RakeBuilder handles Rakefile and mkrf_conf.rb based builds.
//
// mkrf_conf scripts generate a Rakefile, so they are run with Ruby first.
// Rake is then invoked with RUBYARCHDIR and RUBYLIBDIR pointing at the
// target, which is how RubyGems tells rake-compiler tasks where to install.
type RakeBuilder struct{}

// Name returns the builder name
func (b *RakeBuilder) Name() string {
	return StrategyRake.String()
}

// Strategy returns StrategyRake
func (b *RakeBuilder) Strategy() Strategy {
	return StrategyRake
}

// RequiredTools returns the tools needed for rake builds. rake itself is
// optional because it can be loaded through RubyGems.
func (b *RakeBuilder) RequiredTools(config *BuildConfig) []ToolRequirement {
	return []ToolRequirement{
		rubyRequirement(config, "Ruby interpreter"),
		{Name: rakeCommand, Optional: true, Purpose: "Rake build tool"},
	}
}

// CheckTools verifies that the configured Ruby is available
func (b *RakeBuilder) CheckTools(config *BuildConfig) error {
	return CheckRequiredTools(b.RequiredTools(config))
}

// Build runs mkrf_conf when present, then rake
func (b *RakeBuilder) Build(ctx context.Context, config *BuildConfig, job *BuildJob) error {
	return runCommonBuild(ctx, config, job, CommonBuildSteps{
		ConfigureFunc: b.runMkrfConf,
		BuildFunc:     b.runRake,
	})
}

// runMkrfConf executes ruby mkrf_conf.rb; it is a no-op for plain Rakefiles
func (b *RakeBuilder) runMkrfConf(ctx context.Context, config *BuildConfig, job *BuildJob) error {
	if !isMkrfConf(job.Extension.Path) {
		return nil
	}
	args := append([]string{job.Extension.Filename()}, config.BuildArgs...)
	return runStep(ctx, config, job, config.rubyProgram(), args...)
}

// runRake compiles and installs the extension in one rake run
func (b *RakeBuilder) runRake(ctx context.Context, config *BuildConfig, job *BuildJob) error {
	args := []string{
		"RUBYARCHDIR=" + job.Target,
		"RUBYLIBDIR=" + job.Target,
	}
	cmd, resolvedArgs := b.determineRakeCommand(config, args)
	return runStep(ctx, config, job, cmd, resolvedArgs...)
}

// determineRakeCommand returns the rake binary on PATH, or Ruby loading rake
// from its gem. args is never modified.
func (b *RakeBuilder) determineRakeCommand(config *BuildConfig, args []string) (string, []string) {
	if path, err := execLookPath(rakeCommand); err == nil {
		return path, append([]string(nil), args...)
	}

	resolved := []string{"-rrubygems", "-e", rakeLoader, "--"}
	resolved = append(resolved, args...)
	return config.rubyProgram(), resolved
}

// isMkrfConf reports whether the build script generates a Rakefile first,
// matching the way ClassifyExtension sorts scripts into StrategyRake.
func isMkrfConf(path string) bool {
	return strings.Contains(strings.ToLower(filepath.Base(path)), mkrfConfMarker)
}
