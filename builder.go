package gem2deb

import (
	"context"
	"path/filepath"
	"strings"
)

// Strategy identifies the algorithm used to compile and install one native
// extension. The set is closed: every build script maps to exactly one
// value, and StrategyUnknown is a regular value callers must handle.
type Strategy int

const (
	// StrategyUnknown means the build script matches no known build system.
	StrategyUnknown Strategy = iota
	// StrategyExtConf builds with ruby extconf.rb followed by make.
	StrategyExtConf
	// StrategyConfigure builds with an autotools-style configure script and make.
	StrategyConfigure
	// StrategyRake builds with rake, optionally preceded by mkrf_conf.
	StrategyRake
)

// String returns the builder name for the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyExtConf:
		return "ExtConf"
	case StrategyConfigure:
		return "Configure"
	case StrategyRake:
		return "Rake"
	default:
		return "Unknown"
	}
}

// Lower-case build script name fragments, matched by substring.
const (
	extConfMarker   = "extconf"
	configureMarker = "configure"
	rakefileMarker  = "rakefile"
	mkrfConfMarker  = "mkrf_conf"
)

// ClassifyExtension selects the build strategy for a build script.
//
// Only the base file name is inspected, case-insensitively, and the first
// matching rule wins:
//
//	contains "extconf"               -> StrategyExtConf
//	contains "configure"             -> StrategyConfigure
//	contains "rakefile" or "mkrf_conf" -> StrategyRake
//	anything else                    -> StrategyUnknown
//
// ClassifyExtension does not touch the filesystem.
func ClassifyExtension(path string) Strategy {
	name := strings.ToLower(filepath.Base(path))

	switch {
	case strings.Contains(name, extConfMarker):
		return StrategyExtConf
	case strings.Contains(name, configureMarker):
		return StrategyConfigure
	case strings.Contains(name, rakefileMarker), strings.Contains(name, mkrfConfMarker):
		return StrategyRake
	default:
		return StrategyUnknown
	}
}

// Builder defines the interface that all extension builders must implement.
//
// Each builder is responsible for one Strategy and is registered in a
// BuilderFactory under it.
//
// # Builder Lifecycle
//
//  1. The ExtensionBuilder cleans the extension directory (make clean)
//  2. BuilderFor() picks the builder for the extension's Strategy
//  3. Build() configures, compiles and installs into job.Target
//
// # Output
//
// Builders append every line printed by the tools they run to
// job.Result.Output as they go. When Build returns an error the lines
// gathered so far are still there and are shown to the user.
//
// # Thread Safety
//
// Builder implementations should be stateless. Extensions are built one at
// a time, but the same builder instance is reused for all of them.
type Builder interface {
	// Name returns the human-readable name of this builder.
	//
	// This name is used in error messages and logs.
	// Examples: "ExtConf", "Configure", "Rake"
	Name() string

	// Strategy returns the strategy this builder implements.
	Strategy() Strategy

	// Build compiles the extension and installs its artifacts.
	//
	// This method should:
	//  1. Configure the build (generate Makefile, etc.)
	//  2. Compile the extension
	//  3. Install the compiled artifacts under job.Target
	//
	// Commands run with job.Extension.Directory as their working directory.
	Build(ctx context.Context, config *BuildConfig, job *BuildJob) error
}
