package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/aws-samples/sample-ManagedAutoScaler/version"
)

func main() {
	os.Exit(Run(os.Args[1:]))
}

// Run sets up the CLI and runs the requested command.
func Run(args []string) int {
	return RunCustom(args, Commands(nil))
}

// RunCustom allows passing a custom command map for the CLI.
func RunCustom(args []string, commands map[string]cli.CommandFactory) int {
	c := &cli.CLI{
		Name:     "managed-autoscaler",
		Version:  version.Get(),
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("managed-autoscaler"),
	}

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err.Error())
		return 1
	}

	return exitCode
}
