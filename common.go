package gem2deb

import (
	"context"
	"fmt"
)

// StepFunc is one phase of a build: configure, compile or install.
type StepFunc func(ctx context.Context, config *BuildConfig, job *BuildJob) error

// CommonBuildSteps defines the standard 3-step build pattern used by the
// builders.
//
// Ruby extension build systems follow the same shape:
//  1. Configure: Generate build files (ruby extconf.rb, ./configure, mkrf_conf)
//  2. Build: Compile the extension (make, rake)
//  3. Install: Copy the compiled artifacts into the target (make install)
//
// A nil step is skipped.
type CommonBuildSteps struct {
	ConfigureFunc StepFunc
	BuildFunc     StepFunc
	InstallFunc   StepFunc
}

// runCommonBuild executes the standard 3-step build process.
//
// # Process Flow
//
//  1. Call ConfigureFunc to prepare the build
//  2. Call BuildFunc to compile the extension
//  3. Call InstallFunc to install into job.Target
//  4. Mark job.Result successful
//
// If any step fails, processing stops, job.Result.Error is set and the
// error is returned. Output appended by earlier steps stays in job.Result.
//
// # Example
//
//	func (b *MyBuilder) Build(ctx context.Context, config *BuildConfig, job *BuildJob) error {
//	    return runCommonBuild(ctx, config, job, CommonBuildSteps{
//	        ConfigureFunc: b.configure,
//	        BuildFunc:     runMake,
//	        InstallFunc:   runMakeInstall,
//	    })
//	}
func runCommonBuild(ctx context.Context, config *BuildConfig, job *BuildJob, steps CommonBuildSteps) error {
	if job == nil || job.Extension == nil || job.Result == nil {
		return fmt.Errorf("incomplete build job")
	}

	for _, step := range []StepFunc{steps.ConfigureFunc, steps.BuildFunc, steps.InstallFunc} {
		if step == nil {
			continue
		}
		if err := step(ctx, config, job); err != nil {
			job.Result.Error = err
			return err
		}
	}

	job.Result.Success = true
	return nil
}
