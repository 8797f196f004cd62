package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"
)

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "print the header and keyword section summary",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the summary as JSON",
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
		summary := idx.Summary()

		if c.Bool("json") {
			data, err := summary.Serialize()
			if err != nil {
				return cli.Exit(err, ExitCodeUnknownError)
			}
			fmt.Fprintln(c.App.Writer, string(data))
			return nil
		}

		tbl := table.New("Field", "Value").
			WithHeaderFormatter(color.New(color.FgGreen, color.Underline).SprintfFunc()).
			WithFirstColumnFormatter(color.New(color.FgYellow).SprintfFunc()).
			WithWriter(c.App.Writer)
		tbl.AddRow("Name", summary.Name)
		tbl.AddRow("Title", summary.Title)
		tbl.AddRow("Engine version", summary.EngineVersion)
		tbl.AddRow("Encoding", summary.Encoding)
		tbl.AddRow("Creation date", summary.CreationDate)
		tbl.AddRow("Encrypted", summary.Encrypted)
		tbl.AddRow("Index blocks", summary.NumIndex)
		tbl.AddRow("Keywords", summary.NumKeyword)
		tbl.AddRow("Record section offset", summary.KeywordSectionEnd)
		tbl.Print()
		return nil
	},
}
