package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		GemspecEnv, "MAKE",
		"GEM2DEB_RUBY", "GEM2DEB_VENDOR_ARCH_DIR", "GEM2DEB_VERBOSE", "GEM2DEB_CHECK_TOOLS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Gemspec)
	assert.Equal(t, "ruby", cfg.Ruby)
	assert.Equal(t, "", cfg.Make)
	assert.Equal(t, "", cfg.VendorArchDir)
	assert.False(t, cfg.Verbose)
	assert.True(t, cfg.CheckTools)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(GemspecEnv, "foo.gemspec")
	t.Setenv("MAKE", "gmake")
	t.Setenv("GEM2DEB_RUBY", "/usr/bin/ruby3.1")
	t.Setenv("GEM2DEB_VENDOR_ARCH_DIR", "/usr/lib/ruby/vendor_ruby/3.1.0")
	t.Setenv("GEM2DEB_CHECK_TOOLS", "false")
	t.Setenv("GEM2DEB_VERBOSE", "true")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "foo.gemspec", cfg.Gemspec)
	assert.Equal(t, "gmake", cfg.Make)
	assert.Equal(t, "/usr/bin/ruby3.1", cfg.Ruby)
	assert.Equal(t, "/usr/lib/ruby/vendor_ruby/3.1.0", cfg.VendorArchDir)
	assert.False(t, cfg.CheckTools)
	assert.True(t, cfg.Verbose)
}

func TestFlagOverridesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEM2DEB_VERBOSE", "false")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--verbose"}))

	loader := NewLoader()
	require.NoError(t, loader.BindFlag("verbose", flags.Lookup("verbose")))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}

func TestBindFlagMissing(t *testing.T) {
	err := NewLoader().BindFlag("verbose", nil)
	assert.Error(t, err)
}
