//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles every shader variant declared in pipeline.toml.
func (Build) Shaders() error {
	if _, err := executeCmd("go", withArgs("run", ".", "--config", "pipeline.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the whole test suite.
func (Build) Test() error {
	if _, err := executeCmd("go", withArgs("test", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}
