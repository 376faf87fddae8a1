// Command genbench generates benchmark completions from LLM inference
// backends and writes them as JSONL samples.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// Missing .env is fine; keys can come from the real environment.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:  "genbench",
		Usage: "Generate code benchmark completions from LLM inference backends",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			generateCmd(),
			backendsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
