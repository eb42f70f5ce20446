package gem2deb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Build tool constants
const (
	makeProgram     = "make"
	nmakeProgram    = "nmake"
	platformWindows = "windows"
	makefileName    = "Makefile"
)

// getMakeProgram returns the make program to run: the configured one, then
// $MAKE, then the platform default.
func getMakeProgram(config *BuildConfig) string {
	if config != nil && config.MakeProgram != "" {
		return config.MakeProgram
	}

	// Check environment variable first
	if makeEnv := os.Getenv("MAKE"); makeEnv != "" {
		return makeEnv
	}

	switch runtime.GOOS {
	case platformWindows:
		return nmakeProgram
	default:
		return makeProgram
	}
}

// hasMakefile reports whether a previous configure step left a Makefile in dir.
func hasMakefile(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, makefileName))
	return err == nil && !info.IsDir()
}

// runMake compiles the extension with the generated Makefile.
func runMake(ctx context.Context, config *BuildConfig, job *BuildJob) error {
	if !hasMakefile(job.Extension.Directory) {
		return fmt.Errorf("makefile not generated in %s", job.Extension.Directory)
	}
	return runStep(ctx, config, job, getMakeProgram(config))
}

// runMakeInstall installs the compiled extension into job.Target.
//
// DESTDIR is forced empty so a DESTDIR exported by the packaging
// environment does not get prepended to the already-staged target.
// sitearchdir and sitelibdir point mkmf-generated Makefiles at the target;
// other Makefiles ignore them.
func runMakeInstall(ctx context.Context, config *BuildConfig, job *BuildJob) error {
	return runStep(ctx, config, job, getMakeProgram(config),
		"install",
		"DESTDIR=",
		"sitearchdir="+job.Target,
		"sitelibdir="+job.Target,
	)
}
