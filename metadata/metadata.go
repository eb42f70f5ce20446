package metadata

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/contriboss/gem2deb-go/internal/output"
)

// testFileExtension is the script extension test files must have to be run.
const testFileExtension = ".rb"

// Metadata is the resolved packaging metadata of one gem source tree.
//
// A Metadata is built once by Resolve and never changes afterwards;
// accessors return copies of slices so callers cannot change it either.
type Metadata struct {
	root       string
	sourceDir  string
	descriptor *Descriptor

	name             string
	version          string
	bindir           string
	executables      []string
	nativeExtensions []string
}

// Option configures Resolve.
type Option func(*options)

type options struct {
	gemspecOverride string
	evaluator       Evaluator
}

// WithGemspecOverride loads the descriptor from path (DH_RUBY_GEMSPEC)
// instead of looking for *.gemspec files. A metadata.yml in the root still
// takes precedence. Relative paths are relative to the root.
func WithGemspecOverride(path string) Option {
	return func(o *options) {
		o.gemspecOverride = path
	}
}

// WithEvaluator sets how executable gemspecs are evaluated.
func WithEvaluator(e Evaluator) Option {
	return func(o *options) {
		o.evaluator = e
	}
}

// WithRuby evaluates gemspecs with the given Ruby interpreter.
func WithRuby(ruby string) Option {
	return WithEvaluator(RubyEvaluator{Ruby: ruby})
}

// Resolve reads the packaging metadata of the gem source tree at root.
//
// Descriptor discovery, first match wins:
//  1. root/metadata.yml, parsed as data
//  2. the WithGemspecOverride path, evaluated
//  3. the single root/*.gemspec, evaluated
//
// More than one *.gemspec fails with ErrAmbiguousDescriptor; a descriptor
// that cannot be loaded fails with ErrDescriptorLoad. In both cases no
// Metadata is returned. Without any descriptor, name and version come from
// the directory name and build scripts are found by scanning the tree.
func Resolve(ctx context.Context, root string, opts ...Option) (*Metadata, error) {
	o := &options{evaluator: RubyEvaluator{}}
	for _, opt := range opts {
		opt(o)
	}

	sourceDir, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	desc, source, err := loadDescriptor(ctx, sourceDir, o)
	if err != nil {
		return nil, err
	}
	output.Debug("package descriptor", "root", root, "source", string(source))

	return newMetadata(root, sourceDir, desc), nil
}

// FromDescriptor builds the Metadata of root from an already loaded
// descriptor, which may be nil. It does not look for descriptor files.
func FromDescriptor(root string, desc *Descriptor) (*Metadata, error) {
	sourceDir, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	return newMetadata(root, sourceDir, desc), nil
}

func newMetadata(root, sourceDir string, desc *Descriptor) *Metadata {
	m := &Metadata{
		root:       root,
		sourceDir:  sourceDir,
		descriptor: normalizeDescriptor(desc),
	}
	desc = m.descriptor

	fallbackName, fallbackVersion := nameAndVersionFrom(sourceDir)
	m.name, m.version = fallbackName, fallbackVersion
	m.bindir = DefaultBindir

	var extensions []string
	if desc != nil {
		if desc.Name != "" {
			m.name = desc.Name
		}
		if desc.Version != "" {
			m.version = desc.Version
		}
		if desc.Bindir != "" {
			m.bindir = desc.Bindir
		}
		extensions = desc.Extensions
	} else {
		extensions = scanExtensions(sourceDir)
	}

	m.nativeExtensions = make([]string, 0, len(extensions))
	for _, ext := range extensions {
		m.nativeExtensions = append(m.nativeExtensions, filepath.Join(root, ext))
	}

	switch {
	case desc != nil && len(desc.Executables) > 0:
		m.executables = append([]string(nil), desc.Executables...)
	case desc != nil && desc.ExecutablesDeclared:
		m.executables = nil
	default:
		m.executables = scanExecutables(sourceDir, m.bindir)
	}

	return m
}

// Root returns the source root as given to Resolve.
func (m *Metadata) Root() string { return m.root }

// SourceDir returns the absolute source root.
func (m *Metadata) SourceDir() string { return m.sourceDir }

// Descriptor returns the package descriptor, or nil when there is none.
// The returned value is a copy.
func (m *Metadata) Descriptor() *Descriptor {
	return cloneDescriptor(m.descriptor)
}

// HasDescriptor reports whether a descriptor was found.
func (m *Metadata) HasDescriptor() bool { return m.descriptor != nil }

// Name returns the gem name. It is never empty.
func (m *Metadata) Name() string { return m.name }

// Version returns the gem version. It is never empty; see VersionIsPlaceholder.
func (m *Metadata) Version() string { return m.version }

// VersionIsPlaceholder reports whether Version is FallbackVersion, i.e. the
// real version is unknown.
func (m *Metadata) VersionIsPlaceholder() bool { return IsFallbackVersion(m.version) }

// IsFallbackVersion reports whether v is the FallbackVersion sentinel.
func IsFallbackVersion(v string) bool { return v == FallbackVersion }

// Homepage returns the descriptor homepage.
func (m *Metadata) Homepage() (string, bool) {
	return m.descriptorString(func(d *Descriptor) string { return d.Homepage })
}

// ShortDescription returns the descriptor summary.
func (m *Metadata) ShortDescription() (string, bool) {
	return m.descriptorString(func(d *Descriptor) string { return d.Summary })
}

// LongDescription returns the descriptor description.
func (m *Metadata) LongDescription() (string, bool) {
	return m.descriptorString(func(d *Descriptor) string { return d.Description })
}

// Dependencies returns the declared dependencies in descriptor order.
func (m *Metadata) Dependencies() []Dependency {
	if m.descriptor == nil {
		return []Dependency{}
	}
	return cloneDependencies(m.descriptor.Dependencies)
}

// TestFiles returns the descriptor's test files that are Ruby scripts,
// sorted.
func (m *Metadata) TestFiles() []string {
	files := []string{}
	if m.descriptor == nil {
		return files
	}
	for _, f := range m.descriptor.TestFiles {
		if strings.HasSuffix(f, testFileExtension) {
			files = append(files, f)
		}
	}
	return files
}

// Files returns the descriptor's file list, sorted.
func (m *Metadata) Files() []string {
	if m.descriptor == nil {
		return []string{}
	}
	return cloneStrings(m.descriptor.Files)
}

// RequirePaths returns the descriptor's require paths.
func (m *Metadata) RequirePaths() []string {
	if m.descriptor == nil {
		return []string{}
	}
	return cloneStrings(m.descriptor.RequirePaths)
}

// Date returns the descriptor date, or the zero time.
func (m *Metadata) Date() time.Time {
	if m.descriptor == nil {
		return time.Time{}
	}
	return m.descriptor.Date
}

// Bindir returns the directory holding executables, relative to the root.
func (m *Metadata) Bindir() string { return m.bindir }

// Executables returns the gem's executables.
//
// With a descriptor listing executables, that list. With a descriptor that
// declares an empty list, nil. Otherwise the entries of Bindir.
func (m *Metadata) Executables() []string {
	if m.executables == nil {
		return nil
	}
	return cloneStrings(m.executables)
}

// NativeExtensions returns the build scripts of the gem's native
// extensions, each joined to the root. With a descriptor the order is the
// descriptor's; without one it is the sorted scan order.
func (m *Metadata) NativeExtensions() []string {
	return cloneStrings(m.nativeExtensions)
}

// HasNativeExtensions reports whether the gem has any native extension.
func (m *Metadata) HasNativeExtensions() bool {
	return len(m.nativeExtensions) > 0
}

func (m *Metadata) descriptorString(field func(*Descriptor) string) (string, bool) {
	if m.descriptor == nil {
		return "", false
	}
	v := field(m.descriptor)
	return v, v != ""
}

// normalizeDescriptor returns a private copy of desc with its file lists
// sorted, so they do not depend on the order upstream listed them in.
func normalizeDescriptor(desc *Descriptor) *Descriptor {
	d := cloneDescriptor(desc)
	if d != nil {
		sort.Strings(d.Files)
		sort.Strings(d.TestFiles)
	}
	return d
}

func cloneDescriptor(desc *Descriptor) *Descriptor {
	if desc == nil {
		return nil
	}
	d := *desc
	d.Dependencies = cloneDependencies(desc.Dependencies)
	d.Files = cloneStrings(desc.Files)
	d.TestFiles = cloneStrings(desc.TestFiles)
	d.Executables = cloneStrings(desc.Executables)
	d.Extensions = cloneStrings(desc.Extensions)
	d.RequirePaths = cloneStrings(desc.RequirePaths)
	return &d
}

func cloneStrings(s []string) []string {
	return append([]string{}, s...)
}

func cloneDependencies(deps []Dependency) []Dependency {
	out := make([]Dependency, len(deps))
	for i, d := range deps {
		out[i] = Dependency{
			Name:         d.Name,
			Type:         d.Type,
			Requirements: cloneStrings(d.Requirements),
		}
	}
	return out
}
