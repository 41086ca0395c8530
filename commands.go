package main

import (
	"os"

	"github.com/mitchellh/cli"

	"github.com/aws-samples/sample-ManagedAutoScaler/command"
	"github.com/aws-samples/sample-ManagedAutoScaler/version"
)

// Commands returns the mapping of CLI commands for the autoscaler. The meta
// parameter lets you set meta options for all commands.
func Commands(metaPtr *command.Meta) map[string]cli.CommandFactory {
	if metaPtr == nil {
		metaPtr = new(command.Meta)
	}

	meta := *metaPtr
	if meta.UI == nil {
		meta.UI = &cli.BasicUi{
			Reader:      os.Stdin,
			Writer:      os.Stdout,
			ErrorWriter: os.Stderr,
		}
	}

	return map[string]cli.CommandFactory{
		"scale-up": func() (cli.Command, error) {
			return &command.ScaleUpCommand{
				Meta: meta,
			}, nil
		},
		"scale-down": func() (cli.Command, error) {
			return &command.ScaleDownCommand{
				Meta: meta,
			}, nil
		},
		"init": func() (cli.Command, error) {
			return &command.InitCommand{
				Meta: meta,
			}, nil
		},
		"version": func() (cli.Command, error) {
			ver := version.Version
			rel := version.VersionPrerelease

			return &command.VersionCommand{
				Revision:          version.GitCommit,
				Version:           ver,
				VersionPrerelease: rel,
				UI:                meta.UI,
			}, nil
		},
	}
}
