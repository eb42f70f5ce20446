package gem2deb

import (
	"context"
	"fmt"
)

// ConfigureBuilder handles autotools-style configure scripts.
//
// The script is run through sh so it does not need its executable bit set,
// which is often lost when gems are unpacked.
type ConfigureBuilder struct{}

// Name returns the builder name
func (b *ConfigureBuilder) Name() string {
	return StrategyConfigure.String()
}

// Strategy returns StrategyConfigure
func (b *ConfigureBuilder) Strategy() Strategy {
	return StrategyConfigure
}

// RequiredTools returns the tools needed for configure builds
func (b *ConfigureBuilder) RequiredTools(config *BuildConfig) []ToolRequirement {
	return []ToolRequirement{
		{Name: "sh", Purpose: "POSIX shell for the configure script"},
		compilerRequirement(),
		makeRequirement(config),
	}
}

// CheckTools verifies that a shell, make and a C compiler are available
func (b *ConfigureBuilder) CheckTools(config *BuildConfig) error {
	return CheckRequiredTools(b.RequiredTools(config))
}

// Build runs configure with the target as prefix, then make and make install
func (b *ConfigureBuilder) Build(ctx context.Context, config *BuildConfig, job *BuildJob) error {
	return runCommonBuild(ctx, config, job, CommonBuildSteps{
		ConfigureFunc: b.runConfigure,
		BuildFunc:     runMake,
		InstallFunc:   runMakeInstall,
	})
}

func (b *ConfigureBuilder) runConfigure(ctx context.Context, config *BuildConfig, job *BuildJob) error {
	args := []string{"./" + job.Extension.Filename(), fmt.Sprintf("--prefix=%s", job.Target)}
	args = append(args, config.BuildArgs...)
	return runStep(ctx, config, job, "sh", args...)
}
