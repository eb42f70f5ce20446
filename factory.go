package gem2deb

import (
	"fmt"
)

// BuilderFactory manages the registration and selection of extension builders.
//
// The factory maps each Strategy to the Builder that implements it. Build
// scripts are classified with ClassifyExtension and dispatched through the
// map, so adding a build system means one Strategy constant, one case in
// ClassifyExtension and one registered Builder.
//
// # Usage
//
// Create a factory with all standard builders:
//
//	factory := gem2deb.NewBuilderFactory()
//
// Or create an empty factory and register builders explicitly:
//
//	factory := &gem2deb.BuilderFactory{}
//	factory.Register(&gem2deb.ExtConfBuilder{})
//
// # Thread Safety
//
// BuilderFactory is NOT thread-safe for registration.
// Register all builders before use.
type BuilderFactory struct {
	builders map[Strategy]Builder
}

// NewBuilderFactory creates a factory with all standard builders registered:
//  1. ExtConfBuilder - extconf.rb files
//  2. ConfigureBuilder - configure scripts
//  3. RakeBuilder - Rakefile and mkrf_conf.rb
func NewBuilderFactory() *BuilderFactory {
	factory := &BuilderFactory{}

	factory.Register(&ExtConfBuilder{})
	factory.Register(&ConfigureBuilder{})
	factory.Register(&RakeBuilder{})

	return factory
}

// Register adds a builder for its strategy, replacing any earlier one.
// Builders for StrategyUnknown are ignored: unknown scripts are never built.
func (f *BuilderFactory) Register(builder Builder) {
	if builder.Strategy() == StrategyUnknown {
		return
	}
	if f.builders == nil {
		f.builders = make(map[Strategy]Builder)
	}
	f.builders[builder.Strategy()] = builder
}

// BuilderFor returns the builder for the given build script.
//
// The extension path can be a full path (e.g., "ext/myext/extconf.rb")
// or just a filename. Only the base filename is used for matching.
//
// Returns an error wrapping ErrUnrecognizedExtensionType when the script
// classifies as StrategyUnknown or no builder is registered for its strategy.
func (f *BuilderFactory) BuilderFor(extensionFile string) (Builder, error) {
	strategy := ClassifyExtension(extensionFile)
	if strategy == StrategyUnknown {
		return nil, unrecognizedExtension(extensionFile)
	}

	builder, ok := f.builders[strategy]
	if !ok {
		return nil, fmt.Errorf("no %s builder registered: %w", strategy, unrecognizedExtension(extensionFile))
	}
	return builder, nil
}

// ListBuilders returns the registered builders in strategy order.
func (f *BuilderFactory) ListBuilders() []Builder {
	var builders []Builder
	for _, s := range []Strategy{StrategyExtConf, StrategyConfigure, StrategyRake} {
		if b, ok := f.builders[s]; ok {
			builders = append(builders, b)
		}
	}
	return builders
}
