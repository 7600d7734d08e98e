// Command flowtrap discharges unreachability properties of a parameterized
// distributed-system interaction against an external WS1S decision
// procedure. It is a thin cobra wrapper over pkg/flowtrap's Driver: flag
// parsing and process wiring live here; every actual compile/synthesize/
// solve step is delegated to the core package.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
