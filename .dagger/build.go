package main

import (
	"fmt"
	"strings"
	"time"

	"dagger/memhooks/internal/dagger"
)

// platforms the memhooks binary ships for. Hooks run on developer machines.
var platforms = []struct{ goos, goarch string }{
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"darwin", "amd64"},
	{"darwin", "arm64"},
}

// Build cross-compiles the memhooks binary and returns a directory laid out
// as <goos>/<goarch>/memhooks. The version and commit are embedded so
// "memhooks version" reports them.
func (m *Memhooks) Build(
	// Version string of build
	// +optional
	// +default="dev"
	version string,

	// Git commit SHA of build
	// +optional
	// +default="HEAD"
	commit string,
) *dagger.Directory {
	const pkg = "github.com/papercomputeco/memhooks/pkg/utils"
	ldflags := strings.Join([]string{
		"-s", "-w",
		fmt.Sprintf("-X '%s.Version=%s'", pkg, version),
		fmt.Sprintf("-X '%s.Sha=%s'", pkg, commit),
		fmt.Sprintf("-X '%s.Buildtime=%s'", pkg, time.Now().UTC().Format(time.RFC3339)),
	}, " ")

	outputs := dag.Directory()
	for _, p := range platforms {
		out := fmt.Sprintf("%s/%s/memhooks", p.goos, p.goarch)
		bin := m.goContainer().
			WithEnvVariable("GOOS", p.goos).
			WithEnvVariable("GOARCH", p.goarch).
			WithExec([]string{"go", "build", "-trimpath", "-ldflags", ldflags, "-o", out, "./cli/memhooks"}).
			File(out)
		outputs = outputs.WithFile(out, bin)
	}
	return outputs
}
