//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and starts the viewer with config/viewer.toml.
func (Run) Viewer() error {
	mg.Deps(Build.Viewer)
	fmt.Println("Run viewer...")
	_, err := executeCmd("./"+binDir+"/"+viewerName, withArgs("-config", "config/viewer.toml"), withStream())
	return err
}
