// Package main provides the projectsteps CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/projectsteps/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
