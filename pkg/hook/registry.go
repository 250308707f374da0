package hook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/papercomputeco/memhooks/pkg/session"
)

// Options configures an Adapter built by a Factory.
type Options struct {
	// SessionID is used when the host payload carries no session identifier.
	// Plugin instances pass their locally generated session id here.
	SessionID string

	// Getwd resolves the fallback working directory. Defaults to os.Getwd.
	Getwd func() string
}

var (
	processSessionOnce sync.Once
	processSessionID   string
)

// FallbackSessionID returns o.SessionID, or a process-wide id generated on
// first use when none was configured.
func (o Options) FallbackSessionID() string {
	if o.SessionID != "" {
		return o.SessionID
	}
	processSessionOnce.Do(func() {
		processSessionID = session.NewID()
	})
	return processSessionID
}

// FallbackCwd returns cwd when set, otherwise the configured Getwd result.
func (o Options) FallbackCwd(cwd string) string {
	if cwd != "" {
		return cwd
	}
	if o.Getwd != nil {
		if wd := o.Getwd(); wd != "" {
			return wd
		}
	}
	return FallbackCwd("")
}

// Factory builds an Adapter.
type Factory func(opts Options) Adapter

var (
	registryMu sync.RWMutex
	factories  = map[Platform]Factory{}
)

// Register makes a platform adapter available by name. Host packages call it
// from init. Registering the same platform twice panics.
func Register(p Platform, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := factories[p]; dup {
		panic(fmt.Sprintf("hook: adapter for platform %q registered twice", p))
	}
	factories[p] = f
}

// Lookup returns the factory registered for p.
func Lookup(p Platform) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := factories[p]
	return f, ok
}

// New builds the adapter registered for p.
func New(p Platform, opts Options) (Adapter, error) {
	f, ok := Lookup(p)
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %q (available: %v)", p, Platforms())
	}
	return f(opts), nil
}

// Platforms returns the registered platforms, sorted.
func Platforms() []Platform {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Platform, 0, len(factories))
	for p := range factories {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
