//go:build mage

// Package main provides build targets for the projectsteps module using Mage.
//
// Usage:
//
//	mage build    Compile the projectsteps binary to bin/
//	mage test     Run all tests
//	mage cover    Run tests with a coverage profile in bin/
//	mage lint     Run go vet and golangci-lint
//	mage clean    Remove build artifacts
//	mage install  Install projectsteps with go install
//	mage stats    Print line counts per package
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "projectsteps"
	binaryDir  = "bin"
	cmdDir     = "./cmd/projectsteps"
	modulePath = "github.com/mesh-intelligence/projectsteps"
)

// ldflags stamps the version reported by "projectsteps version".
func ldflags() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("-X %s/internal/cli.Version=%s", modulePath, version)
}

// Build compiles the projectsteps binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(),
		"-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// Cover runs all tests and writes bin/coverage.out.
func Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "coverage.out")
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	if err := sh.RunV(binGo, "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm(binaryDir)
}

// Install installs projectsteps with the same version stamp as Build.
func Install() error {
	return sh.RunV(binGo, "install", "-ldflags", ldflags(), cmdDir)
}

// Stats prints production and test line counts per package, then totals.
func Stats() error {
	out, err := sh.Output(binGo, "list", "-f", "{{.ImportPath}}\t{{.Dir}}", "./...")
	if err != nil {
		return err
	}
	var prodTotal, testTotal int
	fmt.Printf("%-50s %8s %8s\n", "package", "prod", "test")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		importPath, dir, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		prod, test, err := packageLines(dir)
		if err != nil {
			return fmt.Errorf("count %s: %w", importPath, err)
		}
		prodTotal += prod
		testTotal += test
		fmt.Printf("%-50s %8d %8d\n", strings.TrimPrefix(importPath, modulePath+"/"), prod, test)
	}
	fmt.Printf("%-50s %8d %8d\n", "total", prodTotal, testTotal)
	return nil
}

// packageLines counts lines in the .go files directly inside dir.
func packageLines(dir string) (prod, test int, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return 0, 0, err
	}
	sort.Strings(files)
	for _, path := range files {
		n, err := countLines(path)
		if err != nil {
			return 0, 0, err
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
	}
	return prod, test, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
