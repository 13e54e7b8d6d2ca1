package meta

import "errors"

// ErrUseAfterDestroy is returned by every mutating Meta operation once the
// meta has been destroyed.
var ErrUseAfterDestroy = errors.New("meta destroyed")
