package opencode

import "github.com/papercomputeco/memhooks/pkg/hook"

func init() {
	hook.Register(hook.PlatformOpenCode, func(opts hook.Options) hook.Adapter {
		return New(opts)
	})
}
