package metadata

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// gitLsFiles replaces `git ls-files` inside gemspecs with a listing of the
// regular files under the working directory. Unpacked release tarballs are
// not git checkouts, and git may not even be installed in the build chroot.
// Other backtick commands run unchanged.
const gitLsFiles = "module Kernel\n" +
	"  alias_method :gem2deb_backtick, :`\n" +
	"  def `(cmd)\n" +
	"    return gem2deb_backtick(cmd) unless cmd =~ /\\bgit\\s+ls-files\\b/\n" +
	"    sep = cmd =~ /\\s-z\\b/ ? \"\\0\" : \"\\n\"\n" +
	"    files = Dir.glob('**/*', File::FNM_DOTMATCH).select { |f| File.file?(f) && f !~ %r{(\\A|/)\\.git(/|\\z)} }\n" +
	"    files.sort.join(sep)\n" +
	"  end\n" +
	"end\n"

// gemspecToYAML loads the gemspec named by ARGV[0] and prints it as YAML.
// Gem::Specification.load rescues errors in the gemspec and returns nil.
const gemspecToYAML = gitLsFiles +
	`spec = Gem::Specification.load(ARGV[0]) or abort("cannot load gemspec #{ARGV[0]}")
$stdout.write(spec.to_yaml)`

var execCommandContext = exec.CommandContext

// Evaluator turns an executable gemspec into a Descriptor.
//
// Gemspecs are Ruby programs and may run arbitrary code. Evaluating one is
// a trust boundary: it happens only through an Evaluator, only for the
// descriptor sources that need it (the DH_RUBY_GEMSPEC override and a
// *.gemspec in the root), and never for metadata.yml.
type Evaluator interface {
	Evaluate(ctx context.Context, root, gemspec string) (*Descriptor, error)
}

// RubyEvaluator evaluates gemspecs with a Ruby interpreter.
type RubyEvaluator struct {
	// Ruby is the interpreter to run; "ruby" when empty.
	Ruby string
}

// Evaluate runs the gemspec with root as working directory, so relative
// paths and `git ls-files` calls inside it see the source tree, and decodes
// the YAML it serializes to.
func (e RubyEvaluator) Evaluate(ctx context.Context, root, gemspec string) (*Descriptor, error) {
	return EvaluateGemspec(ctx, e.Ruby, root, gemspec)
}

// EvaluateGemspec executes the untrusted gemspec at path with ruby and
// returns the resulting descriptor as plain data.
//
// stdout carries the YAML; stderr (where gemspecs print their warnings) is
// only used in error messages.
func EvaluateGemspec(ctx context.Context, ruby, root, path string) (*Descriptor, error) {
	if ruby == "" {
		ruby = "ruby"
	}

	cmd := execCommandContext(ctx, ruby, "-rrubygems", "-ryaml", "-e", gemspecToYAML, path)
	cmd.Dir = root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%w: evaluating %s: %w", ErrDescriptorLoad, path, err)
		}
		return nil, fmt.Errorf("%w: evaluating %s: %w: %s", ErrDescriptorLoad, path, err, msg)
	}

	desc, err := ParseDescriptor(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDescriptorLoad, path, err)
	}
	return desc, nil
}
