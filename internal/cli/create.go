package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func createCommand() *cli.Command {
	var (
		cfg config
		id  string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "id",
			Aliases:     []string{"i"},
			Usage:       "Memory id; an existing memory with this id is replaced",
			Destination: &id,
		},
	}
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, embedderFlags(&cfg)...)

	return &cli.Command{
		Name:      "create",
		Usage:     "Store a memory",
		ArgsUsage: "<text> (reads stdin when omitted)",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx, c)

			input := strings.Join(c.Args().Slice(), " ")
			if c.Args().Len() == 0 {
				data, err := io.ReadAll(c.Root().Reader)
				if err != nil {
					return goerr.Wrap(err, "failed to read memory from stdin")
				}
				input = strings.TrimRight(string(data), "\r\n")
			}

			store, _, err := cfg.openStore(ctx, c)
			if err != nil {
				return err
			}

			if err := store.CreateMemory(ctx, input, id); err != nil {
				return err
			}

			if id != "" {
				fmt.Fprintf(c.Root().Writer, "Stored memory %q\n", id)
			} else {
				fmt.Fprintf(c.Root().Writer, "Stored memory\n")
			}
			return nil
		},
	}
}
