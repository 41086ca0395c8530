package command

import (
	"bufio"
	"flag"
	"io"

	"github.com/mitchellh/cli"
)

// FlagSetFlags is an enum to define what flags are present in the default
// FlagSet returned by Meta.FlagSet.
type FlagSetFlags uint

const (
	// FlagSetNone returns a FlagSet with no pre-registered flags.
	FlagSetNone FlagSetFlags = 0

	// FlagSetClient marks commands that talk to AWS. Connectivity flags are
	// registered by the commands themselves so they land in the right
	// configuration struct.
	FlagSetClient FlagSetFlags = 1 << iota

	// FlagSetDefault is the default set most commands want.
	FlagSetDefault = FlagSetClient
)

// Meta contains the meta-options and functionality that nearly every command
// inherits.
type Meta struct {
	UI cli.Ui
}

// FlagSet returns a FlagSet with the common flags that every command
// implements. The exact behavior can be configured using the flags
// parameter.
func (m *Meta) FlagSet(n string, fs FlagSetFlags) *flag.FlagSet {
	f := flag.NewFlagSet(n, flag.ContinueOnError)

	// Create an io.Writer that writes to our UI properly for errors. This is
	// kind of a hack, but it does the job. Basically: create a pipe, use a
	// scanner to break it into lines, and output each line to the UI.
	errR, errW := io.Pipe()
	errScanner := bufio.NewScanner(errR)
	go func() {
		for errScanner.Scan() {
			m.UI.Error(errScanner.Text())
		}
	}()
	f.SetOutput(errW)

	return f
}
