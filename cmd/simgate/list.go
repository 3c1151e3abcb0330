package main

import (
	"context"
	"fmt"

	"github.com/simgate/simgate/pkg/cmd"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List the registered node types",
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("simgate").With("action", "list")

			catalog := services.NewCatalog(cmd.NewRegistry(logger))

			fmt.Println("Available Node Types:")
			fmt.Println("=====================")

			for _, summary := range catalog.NodeTypes() {
				fmt.Printf("\n%s - %s\n", summary.Type, summary.Name)
				fmt.Printf("  %s\n", summary.Description)
			}

			return nil
		},
	}
}
