// Command mailblocks builds, checks and renders email block documents.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mailblocks/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mailblocks:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
