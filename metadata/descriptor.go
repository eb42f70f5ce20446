package metadata

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Descriptor is the declarative metadata of a gem: what RubyGems calls a
// Gem::Specification, reduced to plain data.
type Descriptor struct {
	Name         string
	Version      string
	Homepage     string
	Summary      string
	Description  string
	Dependencies []Dependency
	Files        []string
	TestFiles    []string
	Executables  []string
	Bindir       string
	Extensions   []string
	RequirePaths []string
	Date         time.Time

	// ExecutablesDeclared is true when the descriptor has an executables
	// entry, even an empty one.
	ExecutablesDeclared bool
}

// Dependency is one gem dependency declaration.
type Dependency struct {
	Name         string
	Type         string   // "runtime" or "development"
	Requirements []string // e.g. ">= 1.2", "< 2"
}

// String renders the dependency the way RubyGems prints it.
func (d Dependency) String() string {
	if len(d.Requirements) == 0 {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", d.Name, strings.Join(d.Requirements, ", "))
}

// rawDescriptor mirrors the YAML layout of a serialized Gem::Specification.
type rawDescriptor struct {
	Name         string          `yaml:"name"`
	Version      rubyVersion     `yaml:"version"`
	Homepage     nullableString  `yaml:"homepage"`
	Summary      nullableString  `yaml:"summary"`
	Description  nullableString  `yaml:"description"`
	Dependencies []rawDependency `yaml:"dependencies"`
	Files        []string        `yaml:"files"`
	TestFiles    []string        `yaml:"test_files"`
	Executables  []string        `yaml:"executables"`
	Bindir       nullableString  `yaml:"bindir"`
	Extensions   []string        `yaml:"extensions"`
	RequirePaths []string        `yaml:"require_paths"`
	Date         rubyTime        `yaml:"date"`
}

type rawDependency struct {
	Name        string          `yaml:"name"`
	Type        nullableString  `yaml:"type"`
	Requirement rubyRequirement `yaml:"requirement"`
}

// ParseDescriptor decodes a YAML-serialized gem specification, as found in
// metadata.yml or printed by Gem::Specification#to_yaml.
//
// Ruby object tags (!ruby/object:Gem::Specification, Gem::Version, ...)
// are ignored; only the data is read. Nothing is executed.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing descriptor: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("parsing descriptor: empty document")
	}

	root := doc.Content[0]
	stripRubyTags(root)
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing descriptor: expected a mapping, got %s", root.ShortTag())
	}

	var raw rawDescriptor
	if err := root.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding descriptor: %w", err)
	}

	desc := &Descriptor{
		Name:                raw.Name,
		Version:             string(raw.Version),
		Homepage:            string(raw.Homepage),
		Summary:             string(raw.Summary),
		Description:         string(raw.Description),
		Files:               raw.Files,
		TestFiles:           raw.TestFiles,
		Executables:         raw.Executables,
		Bindir:              string(raw.Bindir),
		Extensions:          raw.Extensions,
		RequirePaths:        raw.RequirePaths,
		Date:                time.Time(raw.Date),
		ExecutablesDeclared: mappingHasKey(root, "executables"),
	}

	for _, dep := range raw.Dependencies {
		desc.Dependencies = append(desc.Dependencies, Dependency{
			Name:         dep.Name,
			Type:         strings.TrimPrefix(string(dep.Type), ":"),
			Requirements: []string(dep.Requirement),
		})
	}

	return desc, nil
}

// stripRubyTags drops Ruby-specific tags so the generic decoder resolves
// the underlying values.
func stripRubyTags(n *yaml.Node) {
	if strings.HasPrefix(n.Tag, "!ruby/") {
		n.Tag = ""
	}
	for _, c := range n.Content {
		stripRubyTags(c)
	}
}

func mappingHasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

// mappingValue returns the value node stored under key, or nil.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// nullableString decodes null and false as "" (Ruby's falsy values).
type nullableString string

func (s *nullableString) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", value.Line)
	}
	switch value.ShortTag() {
	case "!!null":
		*s = ""
	case "!!bool":
		if strings.EqualFold(value.Value, "false") {
			*s = ""
		} else {
			*s = nullableString(value.Value)
		}
	default:
		*s = nullableString(value.Value)
	}
	return nil
}

// rubyVersion accepts both a plain scalar and a Gem::Version mapping
// ({version: "1.2.3"}).
type rubyVersion string

func (v *rubyVersion) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" {
			*v = ""
			return nil
		}
		*v = rubyVersion(value.Value)
		return nil
	case yaml.MappingNode:
		if inner := mappingValue(value, "version"); inner != nil {
			return v.UnmarshalYAML(inner)
		}
		*v = ""
		return nil
	default:
		return fmt.Errorf("line %d: cannot decode version", value.Line)
	}
}

// rubyRequirement flattens a Gem::Requirement
// ({requirements: [[">=", {version: "0"}]]}) into ">= 0" strings.
type rubyRequirement []string

func (r *rubyRequirement) UnmarshalYAML(value *yaml.Node) error {
	reqs := mappingValue(value, "requirements")
	if reqs == nil || reqs.Kind != yaml.SequenceNode {
		*r = nil
		return nil
	}

	var out []string
	for _, pair := range reqs.Content {
		if pair.Kind != yaml.SequenceNode || len(pair.Content) != 2 {
			return fmt.Errorf("line %d: malformed requirement", pair.Line)
		}
		var version rubyVersion
		if err := version.UnmarshalYAML(pair.Content[1]); err != nil {
			return err
		}
		out = append(out, fmt.Sprintf("%s %s", pair.Content[0].Value, version))
	}
	*r = out
	return nil
}

// rubyTime parses the timestamp formats RubyGems writes. Unparseable dates
// decode as the zero time; a bad date is not worth failing resolution over.
type rubyTime time.Time

var rubyTimeLayouts = []string{
	"2006-01-02 15:04:05.000000000 Z",
	"2006-01-02 15:04:05 Z",
	"2006-01-02 15:04:05.999999999 -07:00",
	time.RFC3339Nano,
	"2006-01-02",
}

func (t *rubyTime) UnmarshalYAML(value *yaml.Node) error {
	*t = rubyTime(time.Time{})
	if value.Kind != yaml.ScalarNode || value.ShortTag() == "!!null" {
		return nil
	}
	for _, layout := range rubyTimeLayouts {
		if parsed, err := time.Parse(layout, value.Value); err == nil {
			*t = rubyTime(parsed.UTC())
			return nil
		}
	}
	return nil
}
