package metal

import "github.com/zoobzio/capitan"

// Deprecation and warning signals.
var (
	// DeprecationRaised is emitted when a deprecated behaviour is used.
	DeprecationRaised = capitan.NewSignal(
		"metal.deprecation.raised",
		"Deprecated behaviour used",
	)

	// WarningRaised is emitted for suspicious but tolerated definitions.
	WarningRaised = capitan.NewSignal(
		"metal.warning.raised",
		"Suspicious definition",
	)
)

// Lifecycle signals.
var (
	// ObjectDestroyed is emitted once an object's meta has been torn down.
	ObjectDestroyed = capitan.NewSignal(
		"metal.object.destroyed",
		"Object destroyed and meta released",
	)

	// ComputedClobbered is emitted when a setter-less computed property is
	// replaced by a plain value.
	ComputedClobbered = capitan.NewSignal(
		"metal.computed.clobbered",
		"Computed property replaced by a plain value",
	)
)
