package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/becomeliminal/nim-memory/memory"
)

func searchCommand() *cli.Command {
	var (
		cfg    config
		number int64
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "number",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of memories to return",
			Value:       memory.DefaultSearchNumber,
			Sources:     cli.EnvVars("NIM_MEMORY_SEARCH_NUMBER"),
			Destination: &number,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print results as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, embedderFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search memories similar to a query",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx, c)

			if c.Args().Len() == 0 {
				return goerr.New("query is required")
			}
			query := strings.Join(c.Args().Slice(), " ")

			store, _, err := cfg.openStore(ctx, c)
			if err != nil {
				return err
			}

			entries, err := store.SearchMemory(ctx, query, int(number))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(entries); err != nil {
					return goerr.Wrap(err, "failed to encode search results")
				}
				return nil
			}

			if len(entries) == 0 {
				fmt.Fprintln(w, "No relevant memories found")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(w, "%.4f\t%s\t%s\n", e.Score, e.ID, e.Content)
			}
			return nil
		},
	}
}
