//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Server runs the HTTP server on the default port.
func (Run) Server() error {
	fmt.Println("Run server...")
	_, err := executeCmd("go", withArgs("run", ".", "server"), withStream())
	return err
}

// MCP runs the stdio MCP server.
func (Run) MCP() error {
	_, err := executeCmd("go", withArgs("run", ".", "stdio-mcp"), withStream())
	return err
}

// Desktop runs the native client with the classic profile.
func (Run) Desktop() error {
	_, err := executeCmd("go", withArgs("run", "./cmd/desktop", "--config", "classic"), withStream())
	return err
}

// Analyze prints the energy economy of every bundled profile.
func (Run) Analyze() error {
	_, err := executeCmd("go", withArgs("run", "./cmd/analyze", "configs"), withStream())
	return err
}

// Tidy runs go mod tidy in the module root.
func (Run) Tidy() error {
	_, err := executeCmd("go", withArgs("mod", "tidy"), withDir("."))
	return err
}
