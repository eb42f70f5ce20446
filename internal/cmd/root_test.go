package cmd

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contriboss/gem2deb-go/internal/output"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(output.SetOutput(io.Discard, io.Discard))
	for _, key := range []string{"DH_RUBY_GEMSPEC", "MAKE", "GEM2DEB_VERBOSE", "GEM2DEB_VENDOR_ARCH_DIR"} {
		t.Setenv(key, "")
	}

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestUsageOnWrongArgumentCount(t *testing.T) {
	for _, args := range [][]string{nil, {"only-root"}, {"a", "b", "c"}} {
		out, err := execute(t, args...)

		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, ExitFailure, exitErr.Code)
		assert.True(t, exitErr.Printed)
		assert.Equal(t, "usage: gem2deb-extension-builder ROOT DESTDIR\n", out)
	}
}

func TestNoExtensionsSucceeds(t *testing.T) {
	out, err := execute(t, t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnrecognizedExtensionExitsOne(t *testing.T) {
	root := t.TempDir()
	spec := "name: foo\nversion: 1.0.0\nextensions:\n- ext/foo/CMakeLists.txt\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "metadata.yml"), []byte(spec), 0o600))

	out, err := execute(t, root, t.TempDir())

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.Equal(t, "Cannot build extension '"+filepath.Join(root, "ext/foo/CMakeLists.txt")+"'\n", out)
}

func TestAmbiguousGemspecExitsOne(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.gemspec", "b.gemspec"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o600))
	}

	_, err := execute(t, root, t.TempDir())

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.False(t, exitErr.Printed)
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "exit status 1", (&ExitError{Code: 1}).Error())
	cause := errors.New("boom")
	err := &ExitError{Code: 1, Err: cause}
	assert.Equal(t, "boom", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestBuildLogsFollowOutputRedirect(t *testing.T) {
	var logs bytes.Buffer
	t.Cleanup(output.SetOutput(io.Discard, &logs))
	t.Setenv("DH_RUBY_GEMSPEC", "")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--verbose", t.TempDir(), t.TempDir()})

	require.NoError(t, root.Execute())
	assert.Contains(t, logs.String(), "no native extensions")
}
