package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func exportCommand() *cli.Command {
	var (
		cfg    config
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Export file path",
			Destination: &output,
			Required:    true,
		},
	}
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, embedderFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export the database to a single file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx, c)

			_, col, err := cfg.openStore(ctx, c)
			if err != nil {
				return err
			}

			if err := col.Export(output); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Exported %d memories to %s\n", col.Count(), output)
			return nil
		},
	}
}
