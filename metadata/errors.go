package metadata

import "errors"

var (
	// ErrAmbiguousDescriptor means the source root holds more than one
	// *.gemspec and no metadata.yml or override says which one to use.
	ErrAmbiguousDescriptor = errors.New("more than one .gemspec file")

	// ErrDescriptorLoad means a descriptor was found but could not be read.
	ErrDescriptorLoad = errors.New("cannot load package descriptor")
)
