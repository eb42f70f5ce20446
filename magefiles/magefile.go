//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/gem2deb-extension-builder"

// Default target to run when none is specified
var Default = Build

// Build compiles the command into bin/
func Build() error {
	mg.Deps(Vet)
	return sh.RunV("go", "build", "-o", binary, "./cmd/gem2deb-extension-builder")
}

// Test runs the unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build output
func Clean() error {
	return sh.Rm("bin")
}
