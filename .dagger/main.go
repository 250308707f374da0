// memhooks CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/memhooks/internal/dagger"
)

// Memhooks is the main module for the memhooks CI/CD pipeline
type Memhooks struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new memhooks CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Memhooks {
	return &Memhooks{
		Source: source,
	}
}

// goContainer returns an Alpine-based Go container with the project source
// mounted. memhooks is pure Go, so CGO stays off.
//
// It is the shared foundation for tests, builds, and linting.
func (m *Memhooks) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", m.Source)
}

// Test runs the memhooks unit tests via "go test"
func (m *Memhooks) Test(ctx context.Context) (string, error) {
	return m.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
