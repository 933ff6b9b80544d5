package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the options object of an App.
type NamedFlagSetOptions interface {
	// Flags returns the option flags grouped by section.
	Flags() cliflag.NamedFlagSets

	// Complete fills in derived values after flags and config are loaded.
	Complete() error

	// Validate checks the completed options.
	Validate() error
}
