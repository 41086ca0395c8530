package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	metrics "github.com/armon/go-metrics"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler"
	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/command/base"
	"github.com/aws-samples/sample-ManagedAutoScaler/helper"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
	"github.com/aws-samples/sample-ManagedAutoScaler/version"
)

// ScaleUpCommand is the command structure used to trigger a reader
// provisioning run, either once from the command line or as a long lived
// Lambda handler.
type ScaleUpCommand struct {
	Meta
	args []string
}

// Run triggers a scale-up run by setting up and parsing the configuration
// and then initiating a new runner.
func (c *ScaleUpCommand) Run(args []string) int {

	c.args = args
	conf, lambdaMode := c.parseFlags()
	if conf == nil {
		return 1
	}

	// Set the logging level for the logger.
	logging.SetLevel(conf.LogLevel)

	// Initialize telemetry if this was configured by the user.
	if conf.Telemetry.StatsdAddress != "" {
		sink, statsErr := metrics.NewStatsdSink(conf.Telemetry.StatsdAddress)
		if statsErr != nil {
			c.UI.Error(fmt.Sprintf("unable to setup telemetry correctly: %v", statsErr))
			return 1
		}
		metrics.NewGlobal(metrics.DefaultConfig("managed-autoscaler"), sink)
	}

	if err := base.ValidateConfig(conf); err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if err := base.InitializeClients(conf); err != nil {
		c.UI.Error(fmt.Sprintf("unable to setup the AWS clients: %v", err))
		return 1
	}

	if err := base.InitializeNotifiers(conf); err != nil {
		c.UI.Error(fmt.Sprintf("unable to setup the notifiers: %v", err))
		return 1
	}

	runner := autoscaler.NewScaleUpRunner(conf)

	logging.Info("command/scale_up: running version %v", version.Get())

	if lambdaMode {
		lambda.Start(func(ctx context.Context, event events.CloudWatchEvent) (lambdaResponse, error) {
			logging.Info("command/scale_up: received %v event from %v",
				event.DetailType, event.Source)
			return newLambdaResponse(runner.Run(ctx))
		})
		return 0
	}

	return writeResult(c.UI, runner.Run(context.Background()))
}

func (c *ScaleUpCommand) parseFlags() (*structs.Config, bool) {

	var configPath string
	var lambdaMode bool
	var typePriority, availabilityZones string

	// An empty new config is setup here to allow us to fill this with any
	// passed cli flags for later merging.
	cliConfig := &structs.Config{
		ScaleUp:   &structs.ScaleUp{},
		ScaleDown: &structs.ScaleDown{},
		Telemetry: &structs.Telemetry{},
	}

	flags := c.Meta.FlagSet("scale-up", FlagSetClient)
	flags.Usage = func() { c.UI.Error(c.Help()) }

	flags.StringVar(&configPath, "config", "", "")
	flags.BoolVar(&lambdaMode, "lambda", false, "")

	// Top level configuration flags
	flags.StringVar(&cliConfig.Region, "aws-region", "", "")
	flags.StringVar(&cliConfig.ClusterID, "cluster-id", "", "")
	flags.StringVar(&cliConfig.LogLevel, "log-level", "", "")

	// Scale-up configuration flags
	flags.StringVar(&cliConfig.ScaleUp.PreferredInstanceType, "preferred-instance-type", "", "")
	flags.StringVar(&typePriority, "instance-type-priority", "", "")
	flags.StringVar(&availabilityZones, "availability-zones", "", "")
	flags.StringVar(&cliConfig.ScaleUp.FallbackStrategy, "fallback-strategy", "", "")
	flags.StringVar(&cliConfig.ScaleUp.Engine, "db-engine", "", "")
	flags.IntVar(&cliConfig.ScaleUp.ReaderTier, "reader-tier", 0, "")

	// Scheduler configuration flags
	flags.StringVar(&cliConfig.ScaleDown.ScheduleName, "schedule-name", "", "")
	flags.StringVar(&cliConfig.ScaleDown.ScheduleGroup, "schedule-group", "", "")

	// Telemetry configuration flags
	flags.StringVar(&cliConfig.Telemetry.StatsdAddress, "statsd-address", "", "")

	if err := flags.Parse(c.args); err != nil {
		return nil, false
	}

	cliConfig.ScaleUp.InstanceTypePriority = helper.ParseCommaList(typePriority)
	cliConfig.ScaleUp.AvailabilityZones = helper.ParseCommaList(availabilityZones)

	// Load the default configuration which will be the basis for merging
	// with the supplied configuration file(s), the environment and the cli.
	config := base.DefaultConfig()

	if configPath != "" {
		current, err := base.LoadConfig(configPath)
		if err != nil {
			c.UI.Error(fmt.Sprintf("Error loading configuration from %s: %s", configPath, err))
			return nil, false
		}

		config = config.Merge(current)
	}

	env, err := base.EnvConfig()
	if err != nil {
		c.UI.Error(fmt.Sprintf("Error loading configuration from the environment: %s", err))
		return nil, false
	}

	config = config.Merge(env)
	config = config.Merge(cliConfig)
	return config, lambdaMode
}

// Help provides the help information for the scale-up command.
func (c *ScaleUpCommand) Help() string {
	helpText := `
  Usage: managed-autoscaler scale-up [options]

    Provisions one new Aurora reader in response to an insufficient
    capacity event. The current reader distribution is analyzed, the
    least populated availability zones are preferred, and candidate
    placements are verified against actually available EC2 capacity
    before any instance is created. Configuration comes from config
    files, the environment and the flags below, in that order.

  General Options:

    -config=<path>
      The path to either a single config file or a directory of config
      files used to configure the autoscaler. Files are processed in
      lexicographic order.

    -lambda
      Run as a long lived AWS Lambda handler instead of executing one
      scale-up pass and exiting. This is the mode the deployed function
      uses; invocations arrive as EventBridge events.

    -aws-region=<region>
      The AWS region the Aurora cluster resides in.

    -cluster-id=<id>
      The identifier of the Aurora cluster whose reader pool is managed.

    -log-level=<level>
      Specify the verbosity of the logs. The default is INFO.

  Scale Up Options:

    -preferred-instance-type=<type>
      The instance type tried in every availability zone before any
      fallback type is considered. The default is r6i.32xlarge.

    -instance-type-priority=<type,type>
      A comma separated, ordered list of fallback instance types tried
      when the preferred type has no capacity anywhere.

    -availability-zones=<zone,zone>
      A comma separated list of availability zones readers may be
      placed in.

    -fallback-strategy=<strategy>
      The order fallback candidates are generated in, either
      instance-priority or az-priority. The default is
      instance-priority.

    -db-engine=<engine>
      The database engine new readers are created with. The default is
      aurora-postgresql.

    -reader-tier=<num>
      The promotion tier assigned to new readers. The default of 15
      keeps autoscaled readers last in line for failover promotion.

  Scheduler Options:

    -schedule-name=<name>
      The name of the EventBridge schedule that fires the periodic CPU
      check. A successful scale-up enables this schedule.

    -schedule-group=<group>
      The EventBridge schedule group the schedule lives in. The
      default is default.

  Telemetry Options:

    -statsd-address=<address:port>
      Specifies the address of a statsd server to forward metrics
      to and should include the port.

`
	return strings.TrimSpace(helpText)
}

// Synopsis provides a brief summary of the scale-up command.
func (c *ScaleUpCommand) Synopsis() string {
	return "Provision a new Aurora reader after a capacity failure"
}
