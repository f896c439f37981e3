//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

const binaryName = "remote-mcp-server"

// Build builds the server binary for the current or requested platform
func Build() error {
	mg.Deps(Clean)
	fmt.Println("Building remote-mcp-server...")

	goos := getEnv("GOOS", runtime.GOOS)
	goarch := getEnv("GOARCH", runtime.GOARCH)

	executableName := fmt.Sprintf("%s_%s_%s", binaryName, goos, goarch)
	if goos == "windows" {
		executableName += ".exe"
	}

	version := getEnv("VERSION", "0.1.0")
	ldflags := fmt.Sprintf("-w -s -X main.version=%s", version)

	return sh.RunWith(
		map[string]string{
			"CGO_ENABLED": "0",
			"GOOS":        goos,
			"GOARCH":      goarch,
		},
		"go", "build",
		"-o", filepath.Join("dist", executableName),
		"-ldflags", ldflags,
		"./cmd/remote-mcp-server",
	)
}

// BuildAll builds for all supported platforms
func BuildAll() error {
	mg.Deps(Clean)

	platforms := []struct {
		os   string
		arch string
	}{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "amd64"},
		{"darwin", "arm64"},
		{"windows", "amd64"},
	}

	version := getEnv("VERSION", "0.1.0")
	ldflags := fmt.Sprintf("-w -s -X main.version=%s", version)

	for _, p := range platforms {
		fmt.Printf("Building for %s/%s...\n", p.os, p.arch)

		executableName := fmt.Sprintf("%s_%s_%s", binaryName, p.os, p.arch)
		if p.os == "windows" {
			executableName += ".exe"
		}

		err := sh.RunWith(
			map[string]string{
				"CGO_ENABLED": "0",
				"GOOS":        p.os,
				"GOARCH":      p.arch,
			},
			"go", "build",
			"-o", filepath.Join("dist", executableName),
			"-ldflags", ldflags,
			"./cmd/remote-mcp-server",
		)

		if err != nil {
			return fmt.Errorf("failed to build for %s/%s: %w", p.os, p.arch, err)
		}
	}

	return nil
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning build artifacts...")

	matches, err := filepath.Glob(filepath.Join("dist", binaryName+"_*"))
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Test runs the tests
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "./...")
}

// Coverage generates test coverage report
func Coverage() error {
	fmt.Println("Generating coverage report...")
	return sh.RunV("go", "test", "-coverprofile=coverage.out", "./...")
}

// Dev builds for the current platform (development)
func Dev() error {
	mg.Deps(Clean)
	fmt.Println("Building for development...")

	executableName := fmt.Sprintf("%s_%s_%s", binaryName, runtime.GOOS, runtime.GOARCH)
	if runtime.GOOS == "windows" {
		executableName += ".exe"
	}

	return sh.RunV(
		"go", "build",
		"-o", filepath.Join("dist", executableName),
		"./cmd/remote-mcp-server",
	)
}

// ModTidy runs go mod tidy
func ModTidy() error {
	fmt.Println("Running go mod tidy...")
	return sh.RunV("go", "mod", "tidy")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
