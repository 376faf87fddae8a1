package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/calebmor/genbench/pkg/backends"
	"github.com/calebmor/genbench/pkg/prompt"
)

var listHeaderStyle = lipgloss.NewStyle().Bold(true)

func backendsCmd() *cli.Command {
	return &cli.Command{
		Name:  "backends",
		Usage: "List available backend kinds and chat template families",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Println(listHeaderStyle.Render("Backends"))
			fmt.Println("  " + strings.Join(backends.Kinds(), "\n  "))
			fmt.Println(listHeaderStyle.Render("Chat template families"))
			fmt.Println("  " + strings.Join(prompt.Families(), "\n  "))

			return nil
		},
	}
}
