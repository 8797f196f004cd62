package main

import (
	"fmt"
	"os"
)

func main() {
	app := newMdxindexApp()
	// Exit codes carried by cli.Exit errors are handled inside Run.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app.Name, err)
		os.Exit(ExitCodeUnknownError)
	}
}
