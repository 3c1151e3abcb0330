package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "simgate",
		Usage:                 "Validate and run simulation nodes",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewListCommand(),
			NewDescribeCommand(),
			NewValidateCommand(),
			NewRunCommand(),
			NewWorkerCommand(),
			NewScheduleCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "simgate:", err)
		os.Exit(1)
	}
}
