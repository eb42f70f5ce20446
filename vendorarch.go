package gem2deb

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// rbconfigVendorArchDir prints the interpreter's vendor arch directory,
// e.g. /usr/lib/x86_64-linux-gnu/ruby/vendor_ruby/3.1.0.
const rbconfigVendorArchDir = `print RbConfig::CONFIG["vendorarchdir"]`

var nativeLibraryExtensions = []string{".so", ".bundle", ".dll", ".dylib"}

// VendorArchDir returns the architecture-dependent vendor library directory
// compiled extensions are installed into.
//
// config.VendorArchDir wins when set. Otherwise the Ruby interpreter is
// asked for RbConfig::CONFIG["vendorarchdir"]; an interpreter that does not
// define it is an error, since there is no sensible place to install to.
func VendorArchDir(ctx context.Context, config *BuildConfig) (string, error) {
	if config != nil && config.VendorArchDir != "" {
		return config.VendorArchDir, nil
	}

	ruby := config.rubyProgram()
	answer, err := queryCommand(ctx, ruby, "-rrbconfig", "-e", rbconfigVendorArchDir)
	if err != nil {
		return "", fmt.Errorf("querying vendorarchdir from %s: %w", ruby, err)
	}

	dir := strings.TrimSpace(answer)
	if dir == "" {
		return "", fmt.Errorf("%s does not define RbConfig::CONFIG[\"vendorarchdir\"]", ruby)
	}
	return dir, nil
}

// installTarget computes the absolute install directory for destdir and
// creates every missing parent of it. The target itself is left to the
// build's install step.
func installTarget(destdir, vendorArchDir string) (string, error) {
	target, err := filepath.Abs(filepath.Join(destdir, vendorArchDir))
	if err != nil {
		return "", fmt.Errorf("resolving install target under %s: %w", destdir, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}

	return target, nil
}

// installedLibraries lists the native libraries under target, relative to
// it and sorted. A target the build never created yields nil.
func installedLibraries(target string) ([]string, error) {
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return nil, nil
	}

	var libs []string
	err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isNativeLibrary(path) {
			return nil
		}
		rel, err := filepath.Rel(target, path)
		if err != nil {
			return err
		}
		libs = append(libs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing installed libraries in %s: %w", target, err)
	}

	sort.Strings(libs)
	return libs, nil
}

// isNativeLibrary reports whether path is a compiled extension (.so,
// .bundle, ...), ignoring case.
func isNativeLibrary(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range nativeLibraryExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
