// Package metadata resolves the packaging metadata of a Ruby gem source tree.
//
// Resolve finds the gem's descriptor (metadata.yml, a DH_RUBY_GEMSPEC
// override, or the single *.gemspec in the root) and derives from it, or
// from the tree itself when there is none, everything the packaging
// pipeline needs: name, version, dependencies, test files, executables and
// the build scripts of native extensions.
//
// metadata.yml is parsed as data. Gemspecs are Ruby programs; they are only
// ever run through an Evaluator, which by default shells out to ruby.
package metadata
