package command

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
)

const (
	// DefaultInitName is the default name we use when
	// initializing the example file
	DefaultInitName = "example.hcl"
)

type InitCommand struct {
	Meta
}

// Help provides the help information for the init command.
func (c *InitCommand) Help() string {
	helpText := `
Usage: managed-autoscaler init

  Creates an example autoscaler configuration file that can be used
  as a starting point to customize further. Every value in the
  example can also be supplied through the environment or command
  line flags.
`
	return strings.TrimSpace(helpText)
}

// Synopsis is provides a brief summary of the init command.
func (c *InitCommand) Synopsis() string {
	return "Create an example autoscaler configuration file"
}

// Run triggers the init command to write the example.hcl file out to the
// current directory.
func (c *InitCommand) Run(args []string) int {

	// The command should be used with 0 extra flags.
	if len(args) != 0 {
		c.UI.Error(c.Help())
		return 1
	}

	// Check if the file already exists.
	_, err := os.Stat(DefaultInitName)
	if err != nil && !os.IsNotExist(err) {
		c.UI.Error(fmt.Sprintf("Failed to stat '%s': %v", DefaultInitName, err))
		return 1
	}
	if !os.IsNotExist(err) {
		c.UI.Error(fmt.Sprintf("Configuration file '%s' already exists", DefaultInitName))
		return 1
	}

	// Write the example file to the relative local directory where the
	// autoscaler was invoked from.
	err = ioutil.WriteFile(DefaultInitName, []byte(defaultConfigDocument), 0660)
	if err != nil {
		c.UI.Error(fmt.Sprintf("Failed to write '%s': %v", DefaultInitName, err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Example configuration file written to %s", DefaultInitName))
	return 0
}

var defaultConfigDocument = strings.TrimSpace(`
aws_region = "eu-central-1"
cluster_id = "aurora-prod"
log_level  = "INFO"

scale_up {
  preferred_instance_type = "r6i.32xlarge"
  instance_type_priority  = ["r7i.48xlarge", "r6id.32xlarge"]
  availability_zones      = ["eu-central-1a", "eu-central-1b", "eu-central-1c"]
  fallback_strategy       = "instance-priority"
  db_engine               = "aurora-postgresql"
  reader_tier             = 15
}

scale_down {
  cpu_threshold    = 10
  lookback_minutes = 5
  metric_period    = 60
  schedule_name    = "aurora-cpu-monitor-every-minute"
  schedule_group   = "default"
}

telemetry {
  statsd_address = "127.0.0.1:8125"
}

notification {
  enabled            = true
  cluster_identifier = "aurora-prod"
  sns_topic_arn      = "arn:aws:sns:eu-central-1:000000000000:aurora-scaling"
}
`)
