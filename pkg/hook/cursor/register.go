package cursor

import "github.com/papercomputeco/memhooks/pkg/hook"

func init() {
	hook.Register(hook.PlatformCursor, func(opts hook.Options) hook.Adapter {
		return New(opts)
	})
}
