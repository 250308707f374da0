package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/memhooks/internal/dagger"
)

// CheckGoModTidy fails when "go mod tidy" would rewrite go.mod. go.sum is
// generated in the container and only checked against the module proxy.
//
// +check
func (m *Memhooks) CheckGoModTidy(ctx context.Context) (string, error) {
	out, err := m.goContainer().
		WithExec([]string{"cp", "go.mod", "/tmp/go.mod.HEAD"}).
		WithExec([]string{"go", "mod", "tidy"}).
		WithExec([]string{"diff", "-u", "/tmp/go.mod.HEAD", "go.mod"}).
		WithExec([]string{"go", "mod", "verify"}).
		Stdout(ctx)

	var e *dagger.ExecError
	switch {
	case errors.As(err, &e):
		return "", fmt.Errorf("go.mod is not tidy: run 'go mod tidy'\n\n%s%s", e.Stdout, e.Stderr)
	case err != nil:
		return "", fmt.Errorf("checking go.mod: %w", err)
	}

	return out, nil
}
