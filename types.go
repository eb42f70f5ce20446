package gem2deb

import "path/filepath"

// Extension is a single native extension build script found in a gem
// source tree.
//
// Extensions are created per build script and discarded once built. They
// carry no state shared with other extensions.
type Extension struct {
	Path      string // Path to the build script (extconf.rb, configure, Rakefile, ...)
	Directory string // Directory containing the build script; builds run here
}

// NewExtension returns the Extension for the build script at path.
func NewExtension(path string) *Extension {
	return &Extension{
		Path:      path,
		Directory: filepath.Dir(path),
	}
}

// Strategy returns the build strategy selected by the script's file name.
func (e *Extension) Strategy() Strategy {
	return ClassifyExtension(e.Path)
}

// Filename returns the base name of the build script.
func (e *Extension) Filename() string {
	return filepath.Base(e.Path)
}

// BuildResult contains the output and status of a build operation.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Output lines captured from every external command, in order
//   - Extensions list of native libraries installed under the target
//   - Error information if the build failed
//
// Output is accumulated while the build runs, so a failed build still
// carries everything the build tools printed up to the failure.
type BuildResult struct {
	Extension  string   // Build script path
	Builder    string   // Name of the builder that ran
	Target     string   // Absolute install directory
	Success    bool     // True if build and install completed without errors
	Output     []string // Lines of output from the build process
	Extensions []string // Installed native libraries, relative to Target
	Error      error    // Error if build failed, nil otherwise
}

// BuildConfig contains configuration for the build process.
//
// Tool selection:
//   - RubyPath: Ruby interpreter used for extconf.rb, mkrf_conf and rake
//   - MakeProgram: make program; empty means $MAKE or the platform default
//
// Install layout:
//   - VendorArchDir: architecture-dependent vendor library directory, relative
//     to the staging root. Empty means ask the Ruby interpreter (RbConfig).
//
// Build behavior:
//   - BuildArgs: extra arguments passed to the configure step
//   - Env: environment variables set for every external command
//   - Verbose: record the command line and working directory of each command
//   - CheckTools: verify required tools are on PATH before building
type BuildConfig struct {
	// Tools
	RubyPath    string
	MakeProgram string

	// Install layout
	VendorArchDir string

	// Build arguments
	BuildArgs []string
	Env       map[string]string

	// Build options
	Verbose    bool
	CheckTools bool
}

// BuildJob is the unit of work handed to a Builder: one extension, the
// directory its artifacts are installed into, and the result accumulator.
type BuildJob struct {
	Extension *Extension
	Target    string
	Result    *BuildResult
}

func (c *BuildConfig) rubyProgram() string {
	if c == nil || c.RubyPath == "" {
		return rubyCommand
	}
	return c.RubyPath
}
