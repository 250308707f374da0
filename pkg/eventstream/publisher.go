// Package eventstream mirrors dispatched hook events to an optional stream
// backend. The tap is best effort: publish failures are logged by callers
// and never affect the host.
package eventstream

import "context"

// Publisher publishes hook events to an event stream backend.
type Publisher interface {
	PublishHook(ctx context.Context, event *HookDispatchedEvent) error
	Close() error
}
