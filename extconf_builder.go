package gem2deb

import (
	"context"
)

// ExtConfBuilder handles extconf.rb files - the most common Ruby extension build system
type ExtConfBuilder struct{}

// Name returns the builder name
func (b *ExtConfBuilder) Name() string {
	return StrategyExtConf.String()
}

// Strategy returns StrategyExtConf
func (b *ExtConfBuilder) Strategy() Strategy {
	return StrategyExtConf
}

// RequiredTools returns the configured Ruby, a C compiler and make
func (b *ExtConfBuilder) RequiredTools(config *BuildConfig) []ToolRequirement {
	return []ToolRequirement{
		rubyRequirement(config, "Ruby interpreter for extconf.rb"),
		compilerRequirement(),
		makeRequirement(config),
	}
}

// CheckTools verifies that Ruby, a C compiler and make are available
func (b *ExtConfBuilder) CheckTools(config *BuildConfig) error {
	return CheckRequiredTools(b.RequiredTools(config))
}

// Build compiles the extension using the extconf.rb → make → make install workflow
func (b *ExtConfBuilder) Build(ctx context.Context, config *BuildConfig, job *BuildJob) error {
	return runCommonBuild(ctx, config, job, CommonBuildSteps{
		ConfigureFunc: b.runExtConf,
		BuildFunc:     runMake,
		InstallFunc:   runMakeInstall,
	})
}

// runExtConf executes ruby extconf.rb to generate the Makefile
func (b *ExtConfBuilder) runExtConf(ctx context.Context, config *BuildConfig, job *BuildJob) error {
	args := append([]string{job.Extension.Filename()}, config.BuildArgs...)
	return runStep(ctx, config, job, config.rubyProgram(), args...)
}
