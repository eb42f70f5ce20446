// Package gem2deb builds the native extensions of a Ruby gem source tree
// and installs them into a Debian package staging directory.
//
// # Supported Build Systems
//
// A build script is classified by its file name (case-insensitive):
//   - extconf.rb - mkmf-generated Makefile (most common)
//   - configure - autotools-style configure script
//   - Rakefile, mkrf_conf.rb - Rake-based builds
//
// Anything else is rejected with ErrUnrecognizedExtensionType.
//
// # Basic Usage
//
// Resolve the gem's metadata and build every extension into destdir:
//
//	md, err := metadata.Resolve(ctx, "/path/to/gem")
//	if err != nil {
//	    return err
//	}
//
//	config := &gem2deb.BuildConfig{
//	    RubyPath: "/usr/bin/ruby",
//	    Verbose:  true,
//	}
//
//	results, err := gem2deb.BuildAllExtensions(ctx, md, "debian/ruby-foo", config)
//
// Extensions are installed under destdir joined with Ruby's vendor arch
// directory (RbConfig::CONFIG["vendorarchdir"]).
//
// # Architecture
//
//	ExtensionBuilder
//	└── BuilderFactory
//	    ├── ExtConfBuilder (extconf.rb)
//	    ├── ConfigureBuilder (configure)
//	    └── RakeBuilder (Rakefile, mkrf_conf.rb)
//
// Extensions are built one at a time, in order. Every command runs with its
// working directory set on the child process; the caller's working
// directory is never changed.
package gem2deb
