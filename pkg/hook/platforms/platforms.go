// Package platforms registers every built-in host adapter with the hook
// registry. Import it for its side effects.
package platforms

import (
	_ "github.com/papercomputeco/memhooks/pkg/hook/claudecode"
	_ "github.com/papercomputeco/memhooks/pkg/hook/cursor"
	_ "github.com/papercomputeco/memhooks/pkg/hook/opencode"
)
