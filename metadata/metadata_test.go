package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type evaluation struct {
	root    string
	gemspec string
}

// fakeEvaluator returns a fixed descriptor and records what it was asked
// to evaluate.
type fakeEvaluator struct {
	desc  *Descriptor
	err   error
	calls []evaluation
}

func (f *fakeEvaluator) Evaluate(_ context.Context, root, gemspec string) (*Descriptor, error) {
	f.calls = append(f.calls, evaluation{root: root, gemspec: gemspec})
	return f.desc, f.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestResolveWithoutDescriptor(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tmp")
	require.NoError(t, os.Mkdir(root, 0o755))

	md, err := Resolve(context.Background(), root, WithEvaluator(&fakeEvaluator{}))
	require.NoError(t, err)

	assert.False(t, md.HasDescriptor())
	assert.Nil(t, md.Descriptor())
	assert.Equal(t, "tmp", md.Name())
	assert.Equal(t, FallbackVersion, md.Version())
	assert.True(t, md.VersionIsPlaceholder())
	assert.Empty(t, md.Dependencies())
	assert.Empty(t, md.TestFiles())
	assert.Equal(t, DefaultBindir, md.Bindir())
	assert.Empty(t, md.Executables())
	assert.False(t, md.HasNativeExtensions())

	_, ok := md.Homepage()
	assert.False(t, ok)
}

func TestResolveNameAndVersionFromDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "package-1.2.3")
	require.NoError(t, os.Mkdir(root, 0o755))

	md, err := Resolve(context.Background(), root, WithEvaluator(&fakeEvaluator{}))
	require.NoError(t, err)

	assert.Equal(t, "package", md.Name())
	assert.Equal(t, "1.2.3", md.Version())
	assert.False(t, md.VersionIsPlaceholder())
}

func TestNameAndVersionFrom(t *testing.T) {
	testCases := []struct {
		dir, name, version string
	}{
		{"/src/package-1.2.3", "package", "1.2.3"},
		{"/src/ruby-foo-bar-0.10", "ruby-foo-bar", "0.10"},
		{"/src/foo-bar", "foo-bar", FallbackVersion},
		{"/src/foo-1.0.rc1", "foo-1.0.rc1", FallbackVersion},
		{"/src/tmp", "tmp", FallbackVersion},
	}
	for _, tc := range testCases {
		t.Run(tc.dir, func(t *testing.T) {
			name, version := nameAndVersionFrom(tc.dir)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.version, version)
		})
	}
}

func TestResolveAmbiguousDescriptor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "foo.gemspec"), "")
	writeFile(t, filepath.Join(root, "foo-ext.gemspec"), "")

	eval := &fakeEvaluator{}
	md, err := Resolve(context.Background(), root, WithEvaluator(eval))
	require.Error(t, err)
	assert.Nil(t, md)
	assert.True(t, errors.Is(err, ErrAmbiguousDescriptor))
	assert.Empty(t, eval.calls, "no gemspec is evaluated when the choice is ambiguous")
}

func TestResolveIgnoresHiddenAndDirectoryGemspecs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "foo.gemspec"), "")
	writeFile(t, filepath.Join(root, ".foo.gemspec"), "")
	writeFile(t, filepath.Join(root, ".#foo.gemspec"), "")
	require.NoError(t, os.Mkdir(filepath.Join(root, "vendor.gemspec"), 0o755))

	eval := &fakeEvaluator{desc: &Descriptor{Name: "foo"}}
	md, err := Resolve(context.Background(), root, WithEvaluator(eval))
	require.NoError(t, err)

	require.Len(t, eval.calls, 1)
	assert.Equal(t, "foo.gemspec", eval.calls[0].gemspec)
	assert.Equal(t, "foo", md.Name())
}

func TestResolveOnlyHiddenGemspec(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".foo.gemspec"), "")

	eval := &fakeEvaluator{}
	md, err := Resolve(context.Background(), root, WithEvaluator(eval))
	require.NoError(t, err)
	assert.Empty(t, eval.calls)
	assert.False(t, md.HasDescriptor())
}

func TestResolveSingleGemspec(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "foo.gemspec"), "")

	eval := &fakeEvaluator{desc: &Descriptor{
		Name:       "foo",
		Version:    "3.0.0",
		Extensions: []string{"ext/b/extconf.rb", "ext/a/extconf.rb"},
	}}
	md, err := Resolve(context.Background(), root, WithEvaluator(eval))
	require.NoError(t, err)

	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, []evaluation{{root: absRoot, gemspec: "foo.gemspec"}}, eval.calls)

	assert.Equal(t, "foo", md.Name())
	assert.Equal(t, "3.0.0", md.Version())
	assert.Equal(t, []string{
		filepath.Join(root, "ext/b/extconf.rb"),
		filepath.Join(root, "ext/a/extconf.rb"),
	}, md.NativeExtensions(), "descriptor order is kept")
}

func TestResolveGemspecLoadError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "foo.gemspec"), "")

	eval := &fakeEvaluator{err: ErrDescriptorLoad}
	_, err := Resolve(context.Background(), root, WithEvaluator(eval))
	assert.True(t, errors.Is(err, ErrDescriptorLoad))
}

func TestResolvePrefersCachedDescriptor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, CachedDescriptorFile), serializedSpec)
	writeFile(t, filepath.Join(root, "other.gemspec"), "")

	eval := &fakeEvaluator{desc: &Descriptor{Name: "other"}}
	md, err := Resolve(context.Background(), root, WithEvaluator(eval), WithGemspecOverride("override.gemspec"))
	require.NoError(t, err)

	assert.Empty(t, eval.calls, "metadata.yml is never evaluated")
	assert.Equal(t, "foo", md.Name())
	assert.Equal(t, "1.2.3", md.Version())
	assert.Equal(t, "exe", md.Bindir())
	assert.Equal(t, []string{"foo"}, md.Executables())
	assert.Equal(t, []string{"test/test_foo.rb"}, md.TestFiles())

	homepage, ok := md.Homepage()
	assert.True(t, ok)
	assert.Equal(t, "https://example.org/foo", homepage)

	summary, _ := md.ShortDescription()
	assert.Equal(t, "Foo does things", summary)
	description, _ := md.LongDescription()
	assert.Equal(t, "A longer description.", description)

	require.Len(t, md.Dependencies(), 2)
	assert.Equal(t, "bar", md.Dependencies()[0].Name)
}

func TestResolveOverrideBeatsGemspec(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.gemspec"), "")
	writeFile(t, filepath.Join(root, "b.gemspec"), "")

	eval := &fakeEvaluator{desc: &Descriptor{Name: "chosen"}}
	md, err := Resolve(context.Background(), root, WithEvaluator(eval), WithGemspecOverride("b.gemspec"))
	require.NoError(t, err)

	require.Len(t, eval.calls, 1)
	assert.Equal(t, "b.gemspec", eval.calls[0].gemspec)
	assert.Equal(t, "chosen", md.Name())
}

func TestResolveCorruptCachedDescriptor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, CachedDescriptorFile), "- not a spec\n")

	_, err := Resolve(context.Background(), root, WithEvaluator(&fakeEvaluator{}))
	assert.True(t, errors.Is(err, ErrDescriptorLoad))
}

func TestResolveFalsyBindirDefaultsToBin(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, CachedDescriptorFile), "name: foo\nbindir: false\n")
	writeFile(t, filepath.Join(root, "bin", "foo"), "#!/usr/bin/ruby\n")

	md, err := Resolve(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "bin", md.Bindir())
	assert.Equal(t, []string{"foo"}, md.Executables())
}

func TestExecutablesDeclaredEmpty(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bin", "tool"), "")

	md, err := FromDescriptor(root, &Descriptor{Name: "foo", ExecutablesDeclared: true})
	require.NoError(t, err)
	assert.Nil(t, md.Executables())
}

func TestExecutablesScannedFromBindir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "exe", "b-tool"), "")
	writeFile(t, filepath.Join(root, "exe", "a-tool"), "")
	writeFile(t, filepath.Join(root, "exe", ".hidden"), "")

	md, err := FromDescriptor(root, &Descriptor{Name: "foo", Bindir: "exe"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-tool", "b-tool"}, md.Executables())
}

func TestTestFilesKeepsRubyScriptsOnly(t *testing.T) {
	md, err := FromDescriptor(t.TempDir(), &Descriptor{
		TestFiles: []string{"test/b_test.rb", "test/data.yml", "test/a_test.rb"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"test/a_test.rb", "test/b_test.rb"}, md.TestFiles())
}

func TestFileListsAreSorted(t *testing.T) {
	desc := &Descriptor{
		Files:     []string{"lib/file2.rb", "README.md", "lib/file1.rb"},
		TestFiles: []string{"test/file2.rb", "test/file1.rb"},
	}
	md, err := FromDescriptor(t.TempDir(), desc)
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md", "lib/file1.rb", "lib/file2.rb"}, md.Files())
	assert.Equal(t, []string{"test/file1.rb", "test/file2.rb"}, md.Descriptor().TestFiles)
	assert.Equal(t, []string{"lib/file2.rb", "README.md", "lib/file1.rb"}, desc.Files, "the caller's descriptor is not modified")
}

func TestDescriptorIsCopied(t *testing.T) {
	md, err := FromDescriptor(t.TempDir(), &Descriptor{Name: "foo", Files: []string{"lib/foo.rb"}})
	require.NoError(t, err)

	d := md.Descriptor()
	d.Files[0] = "changed"
	files := md.Files()
	files[0] = "changed too"

	assert.Equal(t, []string{"lib/foo.rb"}, md.Files())
}

func TestScanExtensionsWithoutDescriptor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ext", "zeta", "extconf.rb"), "")
	writeFile(t, filepath.Join(root, "ext", "alpha", "extconf.rb"), "")
	writeFile(t, filepath.Join(root, "lib", "extconf.rb"), "")
	writeFile(t, filepath.Join(root, "ext", "native", "configure"), "")
	writeFile(t, filepath.Join(root, "ext", "rk", "rakefile"), "")
	writeFile(t, filepath.Join(root, "ext", "RK2", "RAKEFILE"), "")
	writeFile(t, filepath.Join(root, "Rakefile"), "")
	writeFile(t, filepath.Join(root, ".git", "extconf.rb"), "")

	md, err := Resolve(context.Background(), root, WithEvaluator(&fakeEvaluator{}))
	require.NoError(t, err)

	expected := []string{
		"ext/alpha/extconf.rb",
		"ext/zeta/extconf.rb",
		"lib/extconf.rb",
		"ext/RK2/RAKEFILE",
		"ext/native/configure",
		"ext/rk/rakefile",
	}
	var joined []string
	for _, e := range expected {
		joined = append(joined, filepath.Join(root, e))
	}
	assert.Equal(t, joined, md.NativeExtensions())
	assert.True(t, md.HasNativeExtensions())
}

func TestIsFallbackVersion(t *testing.T) {
	assert.True(t, IsFallbackVersion("0.1.0~FIXME"))
	assert.False(t, IsFallbackVersion("0.1.0"))
}
