package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	mdict "github.com/twt-nim/nuo-mdict"
	"github.com/twt-nim/nuo-mdict/indexstore"
)

var publishCommand = &cli.Command{
	Name:      "publish",
	Usage:     "write the keyword index to Redis",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "redis",
			Usage:   "Redis server `ADDR`",
			Value:   "localhost:6379",
			EnvVars: []string{"MDXINDEX_REDIS_ADDR"},
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "key `PREFIX`",
			Value: "mdict",
		},
	},
	Action: func(c *cli.Context) error {
		if err := requireArgs(c, 1); err != nil {
			return err
		}
		path := c.Args().First()
		buf, err := os.ReadFile(path)
		if err != nil {
			return cli.Exit(err, ExitCodeUnknownError)
		}
		idx, err := mdict.DecodeIndex(buf, decodeOptions(c))
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to decode '%s': %w", path, err), ExitCodeUnknownError)
		}

		client := redis.NewClient(&redis.Options{Addr: c.String("redis")})
		defer client.Close()

		fingerprint := indexstore.Fingerprint(buf)
		store := indexstore.NewRedisStore(client, &indexstore.Options{Prefix: c.String("prefix")})
		if err := store.Put(c.Context, fingerprint, idx); err != nil {
			return cli.Exit(err, ExitCodeUnknownError)
		}
		fmt.Fprintf(c.App.Writer, "%s\t%d keywords\n", indexstore.PairsKey(c.String("prefix"), fingerprint), idx.Len())
		return nil
	},
}
