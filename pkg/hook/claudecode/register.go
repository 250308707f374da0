package claudecode

import "github.com/papercomputeco/memhooks/pkg/hook"

func init() {
	hook.Register(hook.PlatformClaudeCode, func(opts hook.Options) hook.Adapter {
		return New(opts)
	})
}
