// The main package for the archivooor executable.
package main

import (
	"github.com/archivooor/archivooor/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
