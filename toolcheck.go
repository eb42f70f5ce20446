package gem2deb

import (
	"fmt"
	"strings"
)

// ToolChecker is implemented by builders that can say up front which
// programs they will run.
//
// With BuildConfig.CheckTools set, the ExtensionBuilder asks for them before
// building, so a missing compiler shows up as "gcc (C compiler) not found in
// PATH" rather than as a make error halfway through the log. The failure is
// reported as a BuildFailure like any other.
//
// Requirements depend on the configuration: the Ruby requirement is whatever
// BuildConfig.RubyPath names, not a literal "ruby".
type ToolChecker interface {
	// RequiredTools lists the programs a build with config runs.
	RequiredTools(config *BuildConfig) []ToolRequirement

	// CheckTools returns an error naming every missing required program.
	CheckTools(config *BuildConfig) error
}

// ToolRequirement is one program a build needs. Any of Name or
// Alternatives satisfies it; an Optional requirement never fails a check.
//
//	ToolRequirement{Name: "gcc", Alternatives: []string{"clang", "cc"}, Purpose: "C compiler"}
type ToolRequirement struct {
	Name         string
	Alternatives []string
	Optional     bool
	Purpose      string
}

// CheckToolAvailable reports whether tool can be run, either as a command on
// PATH or as a path to an executable.
func CheckToolAvailable(tool string) error {
	if _, err := execLookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// satisfied reports whether the tool or one of its alternatives is available.
func (r ToolRequirement) satisfied() bool {
	for _, name := range append([]string{r.Name}, r.Alternatives...) {
		if CheckToolAvailable(name) == nil {
			return true
		}
	}
	return false
}

func (r ToolRequirement) describe() string {
	if r.Purpose == "" {
		return r.Name
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.Purpose)
}

// CheckRequiredTools returns nil when every non-optional requirement is
// satisfied. Otherwise the error lists the missing ones:
//
//	make (Build automation tool) not found in PATH
//	missing required tools: ruby3.1 (Ruby interpreter), make (Build automation tool)
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missing []string
	for _, req := range requirements {
		if req.Optional || req.satisfied() {
			continue
		}
		missing = append(missing, req.describe())
	}

	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s not found in PATH", missing[0])
	default:
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}
}

// rubyRequirement is the interpreter a build with config runs.
func rubyRequirement(config *BuildConfig, purpose string) ToolRequirement {
	return ToolRequirement{Name: config.rubyProgram(), Purpose: purpose}
}

// compilerRequirement and makeRequirement are shared by the Makefile based
// builders.
func compilerRequirement() ToolRequirement {
	return ToolRequirement{Name: "gcc", Alternatives: []string{"clang", "cc"}, Purpose: "C compiler"}
}

func makeRequirement(config *BuildConfig) ToolRequirement {
	name := getMakeProgram(config)
	req := ToolRequirement{Name: name, Purpose: "Build automation tool"}
	if name == makeProgram {
		req.Alternatives = []string{"gmake"}
	}
	return req
}
