package gem2deb

import (
	"context"
	"fmt"
	"io"

	"github.com/contriboss/gem2deb-go/internal/output"
	"github.com/contriboss/gem2deb-go/metadata"
)

// ExtensionSource supplies the ordered list of build scripts to process.
// *metadata.Metadata implements it.
type ExtensionSource interface {
	NativeExtensions() []string
}

// ExtensionBuilder cleans, builds and installs native extensions into a
// staging directory, one at a time.
//
// Each extension goes through Created → Cleaned → Built+Installed → Done.
// Any failure stops that extension and, in BuildAllExtensions, the whole
// batch; nothing is retried.
type ExtensionBuilder struct {
	Factory *BuilderFactory
	Config  *BuildConfig

	// Output receives every build log line. Defaults to standard output.
	Output io.Writer
}

// NewExtensionBuilder returns an ExtensionBuilder with the standard builders.
func NewExtensionBuilder(config *BuildConfig) *ExtensionBuilder {
	return &ExtensionBuilder{
		Factory: NewBuilderFactory(),
		Config:  config,
	}
}

// Clean runs "make clean" in the extension directory when a previous build
// left a Makefile there. No Makefile means nothing to clean.
func (b *ExtensionBuilder) Clean(ctx context.Context, ext *Extension) error {
	if !hasMakefile(ext.Directory) {
		return nil
	}

	config := b.config()
	res, err := runCommand(ctx, ext.Directory, environment(config), getMakeProgram(config), "clean")
	output.Debug("cleaned extension", "extension", ext.Path, "exit", res.ExitCode)
	if err != nil {
		lines := append([]string{res.Command}, res.Output...)
		b.surface(lines)
		return &BuildFailure{Extension: ext.Path, Builder: "Make", Output: lines, Err: err}
	}
	return nil
}

// BuildAndInstall builds one extension and installs it under destdir.
//
// # Process Flow
//
//  1. Clean the extension directory
//  2. Select the builder; an unrecognized build script is returned as an
//     error wrapping ErrUnrecognizedExtensionType and nothing is built
//  3. Compute target = abs(destdir + vendorarchdir) and create its parents
//  4. Optionally check the builder's tools (BuildConfig.CheckTools)
//  5. Run the builder in the extension directory
//  6. Write the accumulated build log to Output, on success and on failure
//
// Build errors are returned as *BuildFailure wrapping the original error.
// The returned BuildResult is never nil.
func (b *ExtensionBuilder) BuildAndInstall(ctx context.Context, ext *Extension, destdir string) (*BuildResult, error) {
	result := &BuildResult{Extension: ext.Path}

	if err := b.Clean(ctx, ext); err != nil {
		result.Error = err
		return result, err
	}

	builder, err := b.factory().BuilderFor(ext.Path)
	if err != nil {
		output.Error("cannot build extension", "extension", ext.Path)
		result.Error = err
		return result, err
	}
	result.Builder = builder.Name()

	fail := func(err error) (*BuildResult, error) {
		b.surface(result.Output)
		failure := &BuildFailure{
			Extension: ext.Path,
			Builder:   builder.Name(),
			Output:    result.Output,
			Err:       err,
		}
		result.Error = failure
		return result, failure
	}

	config := b.config()

	archdir, err := VendorArchDir(ctx, config)
	if err != nil {
		return fail(err)
	}

	target, err := installTarget(destdir, archdir)
	if err != nil {
		return fail(err)
	}
	result.Target = target

	if config.CheckTools {
		if checker, ok := builder.(ToolChecker); ok {
			if err := checker.CheckTools(config); err != nil {
				return fail(fmt.Errorf("build tools missing: %w", err))
			}
		}
	}

	output.Info("building extension", "extension", ext.Path, "builder", builder.Name(), "target", target)

	job := &BuildJob{Extension: ext, Target: target, Result: result}
	if err := builder.Build(ctx, config, job); err != nil {
		return fail(err)
	}

	b.surface(result.Output)

	libs, err := installedLibraries(target)
	if err != nil {
		output.Warn("could not list installed libraries", "target", target, "error", err)
	}
	result.Extensions = libs

	return result, nil
}

// BuildAllExtensions builds every extension of src, strictly in order.
//
// Each extension is cleaned and then built with BuildAndInstall. The first
// error stops the batch: later extensions are not touched at all.
//
// # Return Values
//
// Returns the results of the extensions processed so far, including the
// failed one, and the first error encountered (if any).
func (b *ExtensionBuilder) BuildAllExtensions(ctx context.Context, src ExtensionSource, destdir string) ([]*BuildResult, error) {
	var results []*BuildResult

	for _, path := range src.NativeExtensions() {
		ext := NewExtension(path)

		if err := b.Clean(ctx, ext); err != nil {
			results = append(results, &BuildResult{Extension: path, Error: err})
			return results, err
		}

		result, err := b.BuildAndInstall(ctx, ext, destdir)
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// BuildAllExtensions builds all extensions of src with the standard builders.
func BuildAllExtensions(ctx context.Context, src ExtensionSource, destdir string, config *BuildConfig) ([]*BuildResult, error) {
	return NewExtensionBuilder(config).BuildAllExtensions(ctx, src, destdir)
}

// BuildAllFromRoot resolves the metadata of root once and builds all of its
// extensions into destdir. Resolution errors are returned before any build
// starts.
func BuildAllFromRoot(ctx context.Context, root, destdir string, config *BuildConfig, opts ...metadata.Option) ([]*BuildResult, error) {
	md, err := metadata.Resolve(ctx, root, opts...)
	if err != nil {
		return nil, err
	}

	output.Debug("resolved metadata", "name", md.Name(), "version", md.Version(), "extensions", len(md.NativeExtensions()))
	return BuildAllExtensions(ctx, md, destdir, config)
}

func (b *ExtensionBuilder) config() *BuildConfig {
	if b.Config == nil {
		return &BuildConfig{}
	}
	return b.Config
}

func (b *ExtensionBuilder) factory() *BuilderFactory {
	if b.Factory == nil {
		return NewBuilderFactory()
	}
	return b.Factory
}

func (b *ExtensionBuilder) surface(lines []string) {
	w := b.Output
	if w == nil {
		w = output.Stdout()
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
