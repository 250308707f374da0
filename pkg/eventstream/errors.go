package eventstream

import "errors"

// ErrNilHookEvent indicates a nil hook event payload was provided to a publisher.
var ErrNilHookEvent = errors.New("nil hook event")
