// Command mc1 compiles signal patches and drives the MiniCollider engine.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/minicollider/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands report their own failures; anything else is a usage error.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
