//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

const binDir = "bin"

type Build mg.Namespace

// Server builds the neondrive server binary into bin/.
func (Build) Server() error {
	_, err := executeCmd("go", withArgs("build", "-o", binDir+"/neondrive", "."), withStream())
	return err
}

// Desktop builds the native client into bin/.
func (Build) Desktop() error {
	_, err := executeCmd("go", withArgs("build", "-o", binDir+"/neondrive-desktop", "./cmd/desktop"), withStream())
	return err
}

// All builds every binary.
func (Build) All() {
	mg.SerialDeps(Build.Server, Build.Desktop)
}
