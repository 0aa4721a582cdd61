package effects

import "errors"

// ErrDisabled is returned once setup has failed. The compositor stays
// disabled for the rest of the session.
var ErrDisabled = errors.New("effects: disabled")
