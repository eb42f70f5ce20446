package metadata

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/contriboss/gem2deb-go/internal/output"
)

const (
	// CachedDescriptorFile is the serialized descriptor left by unpacked .gem files.
	CachedDescriptorFile = "metadata.yml"

	// FallbackVersion marks a version that could not be determined and must be
	// fixed by hand. It is not a real version and must not be compared as one.
	FallbackVersion = "0.1.0~FIXME"

	// DefaultBindir is used when the descriptor names no bindir.
	DefaultBindir = "bin"

	extensionDir = "ext"
)

// nameVersionPattern splits "<name>-<version>" source directory names.
// Name and version are both taken from this one pattern.
var nameVersionPattern = regexp.MustCompile(`^(.*)-([0-9.]+)$`)

// descriptorSource tells where a descriptor came from, for logs.
type descriptorSource string

const (
	sourceNone     descriptorSource = "none"
	sourceCached   descriptorSource = "metadata.yml"
	sourceOverride descriptorSource = "override"
	sourceGemspec  descriptorSource = "gemspec"
)

// loadDescriptor finds and loads the descriptor of the source tree at dir.
//
// Priority: metadata.yml, then the override gemspec, then the single
// *.gemspec in dir. Several *.gemspec files are an error. No descriptor at
// all returns (nil, sourceNone, nil).
func loadDescriptor(ctx context.Context, dir string, opts *options) (*Descriptor, descriptorSource, error) {
	cached := filepath.Join(dir, CachedDescriptorFile)
	if info, err := os.Stat(cached); err == nil && !info.IsDir() {
		data, err := os.ReadFile(cached)
		if err != nil {
			return nil, sourceCached, fmt.Errorf("%w: %w", ErrDescriptorLoad, err)
		}
		desc, err := ParseDescriptor(data)
		if err != nil {
			return nil, sourceCached, fmt.Errorf("%w: %s: %w", ErrDescriptorLoad, cached, err)
		}
		return desc, sourceCached, nil
	}

	if opts.gemspecOverride != "" {
		desc, err := opts.evaluator.Evaluate(ctx, dir, opts.gemspecOverride)
		return desc, sourceOverride, err
	}

	gemspecs, err := findGemspecs(dir)
	if err != nil {
		return nil, sourceNone, fmt.Errorf("%w: %w", ErrDescriptorLoad, err)
	}

	switch len(gemspecs) {
	case 0:
		return nil, sourceNone, nil
	case 1:
		desc, err := opts.evaluator.Evaluate(ctx, dir, filepath.Base(gemspecs[0]))
		return desc, sourceGemspec, err
	default:
		names := make([]string, len(gemspecs))
		for i, g := range gemspecs {
			names[i] = filepath.Base(g)
		}
		return nil, sourceNone, fmt.Errorf("%w in %s: %s", ErrAmbiguousDescriptor, dir, strings.Join(names, ", "))
	}
}

// findGemspecs returns the visible regular *.gemspec files in dir. Editor
// lock and backup files (.#foo.gemspec) and directories are not candidates.
func findGemspecs(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.gemspec"))
	if err != nil {
		return nil, err
	}

	var gemspecs []string
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), ".") {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		gemspecs = append(gemspecs, m)
	}
	return gemspecs, nil
}

// nameAndVersionFrom derives a gem name and version from a source directory
// name such as "package-1.2.3". Without a version suffix the whole base
// name is the gem name and the version is FallbackVersion.
func nameAndVersionFrom(dir string) (name, version string) {
	base := filepath.Base(dir)
	if m := nameVersionPattern.FindStringSubmatch(base); m != nil {
		return m[1], m[2]
	}
	return base, FallbackVersion
}

// scanExtensions looks for build scripts when there is no descriptor:
// every extconf.rb in the tree, then every configure and Rakefile under
// ext/. Each group is sorted; paths are relative to dir.
func scanExtensions(dir string) []string {
	var extconfs, others []string

	extconfs = walkFiles(dir, dir, func(name string) bool {
		return name == "extconf.rb"
	})

	extRoot := filepath.Join(dir, extensionDir)
	if info, err := os.Stat(extRoot); err == nil && info.IsDir() {
		others = walkFiles(dir, extRoot, func(name string) bool {
			return name == "configure" || strings.EqualFold(name, "Rakefile")
		})
	}

	return append(extconfs, others...)
}

// walkFiles returns the sorted paths, relative to base, of regular files
// below start whose name satisfies match. Hidden directories are skipped.
func walkFiles(base, start string, match func(name string) bool) []string {
	var found []string

	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() && path != start {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != start && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !match(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil
		}
		found = append(found, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		output.Debug("scanning for build scripts failed", "dir", start, "error", err)
	}

	sort.Strings(found)
	return found
}

// scanExecutables returns the base names of the visible entries in
// dir/bindir, sorted. A missing directory yields an empty list.
func scanExecutables(dir, bindir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, bindir, "*"))
	if err != nil {
		return []string{}
	}

	executables := make([]string, 0, len(matches))
	for _, m := range matches {
		name := filepath.Base(m)
		if strings.HasPrefix(name, ".") {
			continue
		}
		executables = append(executables, name)
	}
	return executables
}
