package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/becomeliminal/nim-memory/internal/cli"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Message)
		os.Exit(err.Code)
	}
}
