package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/simgate/simgate/pkg/cmd"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func NewDescribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Aliases:   []string{"d"},
		Usage:     "Show the documentation for a node type",
		ArgsUsage: "<type>",
		Action: func(ctx context.Context, command *cli.Command) error {
			nodeType := command.Args().First()
			if nodeType == "" {
				return errors.New("usage: simgate describe <type>")
			}

			logger := log.WithModule("simgate").With("action", "describe")

			catalog := services.NewCatalog(cmd.NewRegistry(logger))

			detail, err := catalog.Describe(ctx, nodeType)
			if err != nil {
				return err
			}

			renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
			if err != nil {
				return fmt.Errorf("failed to build markdown renderer: %w", err)
			}

			out, err := renderer.Render(describeMarkdown(detail))
			if err != nil {
				return fmt.Errorf("failed to render documentation: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}

// describeMarkdown lays a catalog entry out as a markdown document with one
// requirement table per direction.
func describeMarkdown(detail *services.NodeTypeDetail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%s)\n\n", detail.Name, detail.Type)
	fmt.Fprintf(&b, "%s\n\n", detail.Description)

	if len(detail.Authors) > 0 {
		b.WriteString("## Authors\n\n")

		for _, author := range detail.Authors {
			if author.Email != "" {
				fmt.Fprintf(&b, "- %s <%s>\n", author.Name, author.Email)
			} else {
				fmt.Fprintf(&b, "- %s\n", author.Name)
			}
		}

		b.WriteString("\n")
	}

	if detail.Licence != "" {
		fmt.Fprintf(&b, "Licence: %s\n\n", detail.Licence)
	}

	b.WriteString("## Inputs\n\n")
	requirementTable(&b, detail.Inputs)

	b.WriteString("\n## Outputs\n\n")
	requirementTable(&b, detail.Outputs)

	return b.String()
}

func requirementTable(b *strings.Builder, details []services.RequirementDetail) {
	b.WriteString("| Name | Type | Required | Default | Description |\n")
	b.WriteString("|------|------|----------|---------|-------------|\n")

	for _, d := range details {
		required := "yes"
		if d.Optional {
			required = "no"
		}

		def := ""
		if d.Default != nil {
			def = fmt.Sprint(d.Default)
		}

		help := d.Help
		if d.Constraint != "" {
			help = fmt.Sprintf("%s (%s)", help, d.Constraint)
		}

		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", d.Name, d.Type, required, def, help)
	}
}
