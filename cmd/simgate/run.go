package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/simgate/simgate/pkg/cmd"
	"github.com/simgate/simgate/pkg/gateway"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/surface/cliflag"
	"github.com/simgate/simgate/pkg/surface/prompt"
	cli "github.com/urfave/cli/v3"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Run a node locally, binding its inputs from flags",
		ArgsUsage: "<type> [--<input> value ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "interactive",
				Usage: "Collect inputs interactively instead of from flags",
			},
			&cli.StringFlag{
				Name:    "work-dir",
				Usage:   "Directory the engine runs in (a temporary one when empty)",
				Sources: cli.EnvVars("SIMGATE_WORK_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("SIMGATE_LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			args := command.Args().Slice()
			if len(args) == 0 {
				return errors.New("usage: simgate run [--interactive] <type> [--<input> value ...]")
			}

			nodeType := args[0]
			logger := log.WithModule("simgate").With("action", "run", "node_type", nodeType)

			reg := cmd.NewRegistry(logger)

			node, err := reg.CreateNode(ctx, nodeType, nil)
			if err != nil {
				return err
			}

			var collector gateway.ControlSurface
			if command.Bool("interactive") {
				collector = prompt.New(nil, nil)
			} else {
				collector = cliflag.New(args[1:])
			}

			controls := node.Controls()

			if err := controls.ShowControls(ctx, collector); err != nil {
				return err
			}

			if err := controls.ValidateInputs(); err != nil {
				return err
			}

			logger.InfoContext(ctx, "Executing node")

			records, err := node.Execute(ctx, command.String("work-dir"))
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			if err := controls.Validate(); err != nil {
				return err
			}

			outputs, err := controls.OutputValues()
			if err != nil {
				return err
			}

			printRunReport(outputs, records)

			return nil
		},
	}
}

// printRunReport lists the validated outputs and the last value of every
// record series the engine produced.
func printRunReport(outputs map[string]any, records *process.RecordSet) {
	fmt.Println("Run completed.")

	if len(outputs) > 0 {
		fmt.Println("\nOutputs:")

		names := make([]string, 0, len(outputs))
		for name := range outputs {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			fmt.Printf("  %s: %v\n", name, outputs[name])
		}
	}

	if records != nil && records.Len() > 0 {
		fmt.Println("\nRecords:")

		for _, key := range records.Keys() {
			latest, _ := records.Latest(key)
			fmt.Printf("  %s: %d values, last %s\n", key, len(records.Series(key)), latest)
		}
	}
}
