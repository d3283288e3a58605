//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Unit runs every package's tests.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Race runs the tests with the race detector, which covers the frame loops and hub.
func (Test) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Profiles validates the bundled tuning profiles.
func (Test) Profiles() error {
	_, err := executeCmd("go", withArgs("run", "./validate", "configs"), withStream())
	return err
}

// All runs vet, the tests and the profile validator.
func (Test) All() error {
	if _, err := executeCmd("go", withArgs("vet", "./...")); err != nil {
		return err
	}
	mg.SerialDeps(Test.Unit, Test.Profiles)
	return nil
}
