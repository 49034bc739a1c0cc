//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds the shader variants and keeps rebuilding them on source changes.
func (Run) Watch() error {
	if _, err := executeCmd("go", withArgs("run", ".", "--config", "pipeline.toml", "--watch"), withStream()); err != nil {
		return err
	}
	return nil
}
