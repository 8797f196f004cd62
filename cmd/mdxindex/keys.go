package main

import (
	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"
)

var keysCommand = &cli.Command{
	Name:      "keys",
	Usage:     "list keywords and their record positions",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "print at most `N` keywords (0 for all)",
		},
	},
	Action: func(c *cli.Context) error {
		if err := requireArgs(c, 1); err != nil {
			return err
		}
		idx, err := openIndex(c)
		if err != nil {
			return err
		}

		tbl := table.New("Block", "Keyword", "Position").
			WithHeaderFormatter(color.New(color.FgGreen, color.Underline).SprintfFunc()).
			WithFirstColumnFormatter(color.New(color.FgYellow).SprintfFunc()).
			WithWriter(c.App.Writer)

		limit := c.Int("limit")
		printed := 0
	blocks:
		for b := range idx.Keyword.IndexMates {
			for _, p := range idx.BlockPairs(b) {
				if limit > 0 && printed == limit {
					break blocks
				}
				tbl.AddRow(b, string(p.Keyword), p.Position)
				printed++
			}
		}
		tbl.Print()
		return nil
	},
}
