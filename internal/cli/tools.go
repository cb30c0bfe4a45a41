package cli

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/becomeliminal/nim-memory/tools"
)

func toolsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "Inspect and call the LLM memory tools",
		Commands: []*cli.Command{
			toolsListCommand(),
			toolsCallCommand(),
		},
	}
}

func toolsListCommand() *cli.Command {
	var anthropicFormat bool

	return &cli.Command{
		Name:  "list",
		Usage: "Print the tool definitions as JSON",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "anthropic",
				Usage:       "Print Anthropic Messages API tool parameters",
				Destination: &anthropicFormat,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			box := tools.NewToolbox(nil)

			var v interface{} = box.Definitions()
			if anthropicFormat {
				v = tools.AnthropicTools(box.Tools())
			}

			enc := json.NewEncoder(c.Root().Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(v); err != nil {
				return goerr.Wrap(err, "failed to encode tool definitions")
			}
			return nil
		},
	}
}

func toolsCallCommand() *cli.Command {
	var cfg config

	flags := append(storeFlags(&cfg), embedderFlags(&cfg)...)

	return &cli.Command{
		Name:      "call",
		Usage:     "Execute a tool with JSON arguments and print its result",
		ArgsUsage: "<tool> [json]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx, c)

			name := c.Args().First()
			if name == "" {
				return goerr.New("tool name is required")
			}
			input := c.Args().Get(1)
			if input == "" {
				input = "{}"
			}

			store, _, err := cfg.openStore(ctx, c)
			if err != nil {
				return err
			}

			result, err := tools.NewToolbox(store).Execute(ctx, name, json.RawMessage(input))
			if err != nil {
				return err
			}

			_, err = c.Root().Writer.Write([]byte(result + "\n"))
			return err
		},
	}
}
