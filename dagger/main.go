// Package main provides a Dagger module for building and deploying Warden.
//
// The module is designed to be used with the Dagger CLI or SDKs to automate
// build and deployment workflows.
package main

import (
	"context"
	"dagger/warden/internal/dagger"
	"fmt"
	"strings"
)

type Warden struct{}

// BuildContainer creates a container image for the project.
func (m *Warden) BuildContainer(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Platform to build for
	// +optional
	// +default="linux/amd64"
	platform *dagger.Platform,
) (*dagger.Container, error) {
	buildPlatform := dagger.Platform("linux/amd64")
	if platform != nil {
		buildPlatform = *platform
	}

	platformArch, err := dag.Containerd().ArchitectureOf(ctx, buildPlatform)
	if err != nil {
		return nil, fmt.Errorf("failed to get architecture: %w", err)
	}

	// The SQLite export driver is pure Go, so the binary builds without cgo
	buildCtr := goContainer(src).
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("GOOS", "linux").
		WithEnvVariable("GOARCH", platformArch).
		WithExec([]string{"apk", "add", "--no-cache", "upx", "ca-certificates"}).
		WithExec([]string{"mkdir", "-p", "/src/bin", "/src/logs", "/src/exports"}).
		WithExec([]string{"go", "build", "-ldflags=-s -w", "-o", "/src/bin/warden", "./cmd/warden"}).
		WithExec([]string{"upx", "--best", "--lzma", "/src/bin/warden"})

	return dag.Container(dagger.ContainerOpts{Platform: buildPlatform}).
		From("gcr.io/distroless/static-debian12:latest").
		WithDirectory("/app/bin", buildCtr.Directory("/src/bin")).
		WithDirectory("/app/logs", buildCtr.Directory("/src/logs")).
		WithDirectory("/app/exports", buildCtr.Directory("/src/exports")).
		WithFile("/etc/ssl/certs/ca-certificates.crt", buildCtr.File("/etc/ssl/certs/ca-certificates.crt")).
		WithWorkdir("/app").
		WithExposedPort(9120).
		WithEntrypoint([]string{"/app/bin/warden"}).
		WithDefaultArgs([]string{"serve", "--migrate"}), nil
}

// Publish the application container after building it for every platform.
func (m *Warden) Publish(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Docker image name (e.g. "username/repo:tag")
	// +required
	imageName string,
	// Platforms to build for (comma-separated, e.g. "linux/amd64,linux/arm64")
	// +optional
	// +default="linux/amd64"
	platforms string,
) (string, error) {
	var platformList []dagger.Platform
	if platforms == "" {
		platformList = []dagger.Platform{"linux/amd64"}
	} else {
		for _, p := range strings.Split(platforms, ",") {
			platformList = append(platformList, dagger.Platform(strings.TrimSpace(p)))
		}
	}

	platformVariants := make([]*dagger.Container, 0, len(platformList))
	for _, platform := range platformList {
		container, err := m.BuildContainer(ctx, src, &platform)
		if err != nil {
			return "", fmt.Errorf("failed to build container for %s: %w", platform, err)
		}
		platformVariants = append(platformVariants, container)
	}

	ref, err := dag.Container().Publish(ctx, imageName, dagger.ContainerPublishOpts{
		PlatformVariants: platformVariants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish image: %w", err)
	}

	return ref, nil
}

// Test runs the unit tests of every package.
func (m *Warden) Test(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
) (string, error) {
	return goContainer(src).
		WithExec([]string{"go", "test", "./..."}).
		Stdout(ctx)
}

// Run a warden command with the given config directory.
func (m *Warden) Run(
	// Source code directory
	// +required
	src *dagger.Directory,
	// Config directory containing warden.toml
	// +required
	configDir *dagger.Directory,
	// Arguments passed to warden, for example "serve" or "migrate run"
	// +optional
	// +default="serve"
	args string,
) *dagger.Container {
	runCtr := goContainer(src).
		WithDirectory("/etc/warden/config", configDir).
		WithEnvVariable("CGO_ENABLED", "0").
		WithExec([]string{"apk", "add", "--no-cache", "ca-certificates"}).
		WithExec([]string{"go", "build", "-o", "/src/bin/warden", "./cmd/warden"})

	return runCtr.WithExec(append([]string{"/src/bin/warden"}, strings.Fields(args)...))
}

// goContainer returns a Go toolchain container with the source mounted.
func goContainer(src *dagger.Directory) *dagger.Container {
	return dag.Container().
		From("golang:1.24.2-alpine").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithDirectory("/src", src).
		WithWorkdir("/src")
}
