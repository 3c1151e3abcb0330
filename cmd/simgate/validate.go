package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/simgate/simgate/pkg/cmd"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/registry"
	"github.com/simgate/simgate/pkg/surface"
	cli "github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate an input document against a node type without running it",
		ArgsUsage: "<type>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "inputs",
				Aliases:  []string{"i"},
				Usage:    "Path to a JSON input document",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			nodeType := command.Args().First()
			if nodeType == "" {
				return errors.New("usage: simgate validate <type> --inputs <file>")
			}

			logger := log.WithModule("simgate").With("action", "validate")

			inputs, err := readInputDocument(command.String("inputs"))
			if err != nil {
				return err
			}

			reg := cmd.NewRegistry(logger)

			// The same gate a submission passes: decode the protocol, check
			// the document against the schema, then bind every value onto
			// the requirement surface.
			node, err := reg.CreateNode(ctx, nodeType, inputs)
			if err != nil {
				return fmt.Errorf("invalid protocol parameters: %w", err)
			}

			if err := registry.ValidateDocument(node.Controls().Schema(), inputs); err != nil {
				return err
			}

			if err := node.Controls().ShowControls(ctx, surface.Document(inputs)); err != nil {
				return err
			}

			if err := node.Controls().ValidateInputs(); err != nil {
				return err
			}

			fmt.Printf("Input document is valid for node type %s.\n", nodeType)

			return nil
		},
	}
}

// readInputDocument loads a JSON object of input values from path.
func readInputDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input document: %w", err)
	}

	var inputs map[string]any
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse input document: %w", err)
	}

	return inputs, nil
}
