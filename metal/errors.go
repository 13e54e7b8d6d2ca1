package metal

import (
	"errors"

	"github.com/delaneyj/metal/meta"
)

var (
	// ErrInvalidOperation reports misuse: setting a read-only property or a
	// malformed computed property definition.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnsupportedDependencyPath reports a dependent key using @each more
	// than one level deep.
	ErrUnsupportedDependencyPath = errors.New("unsupported dependency path")

	ErrUseAfterDestroy = meta.ErrUseAfterDestroy
)
