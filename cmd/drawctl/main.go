// Command drawctl runs and inspects weekly draws from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(newCLI()).Execute(); err != nil {
		os.Exit(1)
	}
}
