package metal

import "github.com/zoobzio/capitan"

// Field keys for metal events.
var (
	// KeyID identifies a deprecation or warning.
	KeyID = capitan.NewStringKey("id")

	// KeyMessage is the human readable message.
	KeyMessage = capitan.NewStringKey("message")

	// KeyUntil is the version a deprecated behaviour is scheduled to go away.
	KeyUntil = capitan.NewStringKey("until")

	// KeyObject is the inspected object.
	KeyObject = capitan.NewStringKey("object")

	// KeyProperty is the property name involved.
	KeyProperty = capitan.NewStringKey("property")
)
