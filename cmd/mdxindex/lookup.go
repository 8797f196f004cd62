package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var lookupCommand = &cli.Command{
	Name:      "lookup",
	Usage:     "print the record position of a keyword",
	ArgsUsage: "FILE WORD",
	Action: func(c *cli.Context) error {
		if err := requireArgs(c, 2); err != nil {
			return err
		}
		idx, err := openIndex(c)
		if err != nil {
			return err
		}

		pair, err := idx.Lookup(c.Args().Get(1))
		if err != nil {
			return cli.Exit(err, ExitCodeUnknownError)
		}
		fmt.Fprintf(c.App.Writer, "%s\t%d\n", pair.Keyword, pair.Position)
		return nil
	},
}
