// Command missy runs the chat bot and its maintenance tools.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/missy/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
