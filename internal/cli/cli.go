package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	return run(ctx, argv, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, argv []string, r io.Reader, w, errW io.Writer) *Error {
	cmd := newApp()
	cmd.Reader = r
	cmd.Writer = w
	cmd.ErrWriter = errW

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "nim-memory",
		Usage: "Semantic memory store for LLM agents",
		Commands: []*cli.Command{
			createCommand(),
			searchCommand(),
			exportCommand(),
			toolsCommand(),
		},
	}
}
