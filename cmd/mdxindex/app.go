package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/op/go-logging"
	"github.com/urfave/cli/v2"

	mdict "github.com/twt-nim/nuo-mdict"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrMdxindex is a parent error for all command errors.
var ErrMdxindex = errors.New("mdxindex")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrMdxindex)

var logFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} %{level:.4s}%{color:reset} %{message}`,
)

func setupLogging(verbose bool) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, logFormat))
	if verbose {
		leveled.SetLevel(logging.DEBUG, "")
	} else {
		leveled.SetLevel(logging.WARNING, "")
	}
	logging.SetBackend(leveled)
}

// requireArgs fails with a flag parse error unless exactly n arguments
// were given.
func requireArgs(c *cli.Context, n int) error {
	if c.Args().Len() != n {
		return cli.Exit(fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrFlagParse, c.Command.Name, n, c.Args().Len()), ExitCodeFlagParseError)
	}
	return nil
}

func decodeOptions(c *cli.Context) *mdict.Options {
	return &mdict.Options{
		TerminatorWidth: c.Int("terminator-width"),
		Workers:         c.Int("workers"),
		VerifyCounts:    !c.Bool("no-verify-counts"),
	}
}

func openIndex(c *cli.Context) (*mdict.Index, error) {
	idx, err := mdict.Open(c.Args().First(), decodeOptions(c))
	if err != nil {
		return nil, cli.Exit(err, ExitCodeUnknownError)
	}
	return idx, nil
}

func newMdxindexApp() *cli.App {
	return &cli.App{
		Name:            filepath.Base(os.Args[0]),
		Usage:           "Decode the keyword index of MDX dictionaries.",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "terminator-width",
				Usage: "keyword terminator width in bytes (1, or 2 for UTF-16 dictionaries)",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "decode up to `N` keyword index blocks concurrently",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "no-verify-counts",
				Usage: "do not check keyword counts against the section header",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "log decoding progress",
				Aliases: []string{"v"},
			},
		},
		Before: func(c *cli.Context) error {
			setupLogging(c.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			infoCommand,
			keysCommand,
			lookupCommand,
			publishCommand,
		},
	}
}
