package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	metrics "github.com/armon/go-metrics"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler"
	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/command/base"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
	"github.com/aws-samples/sample-ManagedAutoScaler/version"
)

// ScaleDownCommand is the command structure used to trigger a reader
// removal evaluation, either once from the command line or as a long lived
// Lambda handler.
type ScaleDownCommand struct {
	Meta
	args []string
}

// Run triggers a scale-down evaluation by setting up and parsing the
// configuration and then initiating a new runner.
func (c *ScaleDownCommand) Run(args []string) int {

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

	runner := autoscaler.NewScaleDownRunner(conf)

	logging.Info("command/scale_down: running version %v", version.Get())

	if lambdaMode {
		// The schedule target payload carries no information the runner
		// needs, so it is accepted and ignored whatever its shape.
		lambda.Start(func(ctx context.Context, event json.RawMessage) (lambdaResponse, error) {
			return newLambdaResponse(runner.Run(ctx))
		})
		return 0
	}

	return writeResult(c.UI, runner.Run(context.Background()))
}

func (c *ScaleDownCommand) parseFlags() (*structs.Config, bool) {

	var configPath string
	var lambdaMode bool

	// An empty new config is setup here to allow us to fill this with any
	// passed cli flags for later merging.
	cliConfig := &structs.Config{
		ScaleDown: &structs.ScaleDown{},
		Telemetry: &structs.Telemetry{},
	}

	flags := c.Meta.FlagSet("scale-down", FlagSetClient)
	flags.Usage = func() { c.UI.Error(c.Help()) }

	flags.StringVar(&configPath, "config", "", "")
	flags.BoolVar(&lambdaMode, "lambda", false, "")

	// Top level configuration flags
	flags.StringVar(&cliConfig.Region, "aws-region", "", "")
	flags.StringVar(&cliConfig.ClusterID, "cluster-id", "", "")
	flags.StringVar(&cliConfig.LogLevel, "log-level", "", "")

	// Scale-down configuration flags
	flags.Float64Var(&cliConfig.ScaleDown.CPUThreshold, "cpu-threshold", 0, "")
	flags.IntVar(&cliConfig.ScaleDown.LookbackMinutes, "lookback-minutes", 0, "")
	flags.IntVar(&cliConfig.ScaleDown.MetricPeriod, "metric-period", 0, "")
	flags.StringVar(&cliConfig.ScaleDown.ScheduleName, "schedule-name", "", "")
	flags.StringVar(&cliConfig.ScaleDown.ScheduleGroup, "schedule-group", "", "")

	// Telemetry configuration flags
	flags.StringVar(&cliConfig.Telemetry.StatsdAddress, "statsd-address", "", "")

	if err := flags.Parse(c.args); err != nil {
		return nil, false
	}

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

// Help provides the help information for the scale-down command.
func (c *ScaleDownCommand) Help() string {
	helpText := `
  Usage: managed-autoscaler scale-down [options]

    Evaluates the Aurora reader pool for removal of one idle reader.
    CPU utilization for every reader is aggregated over the lookback
    window; when the pool average sits below the configured threshold
    the most recently created autoscaler owned reader is removed. At
    most one reader is removed per invocation and the cluster writer
    is never considered. Configuration comes from config files, the
    environment and the flags below, in that order.

  General Options:

    -config=<path>
      The path to either a single config file or a directory of config
      files used to configure the autoscaler. Files are processed in
      lexicographic order.

    -lambda
      Run as a long lived AWS Lambda handler instead of executing one
      evaluation and exiting. This is the mode the deployed function
      uses; invocations arrive from the EventBridge schedule.

    -aws-region=<region>
      The AWS region the Aurora cluster resides in.

    -cluster-id=<id>
      The identifier of the Aurora cluster whose reader pool is managed.

    -log-level=<level>
      Specify the verbosity of the logs. The default is INFO.

  Scale Down Options:

    -cpu-threshold=<percent>
      The pool average CPU utilization percentage below which a reader
      is removed. The default is 10.

    -lookback-minutes=<num>
      The length of the utilization window in minutes the pool average
      is computed over. The default is 5.

    -metric-period=<seconds>
      The utilization sampling period in seconds. The default is 60.

    -schedule-name=<name>
      The name of the EventBridge schedule that fires the periodic CPU
      check. The schedule is disabled once no autoscaler owned readers
      remain.

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

// Synopsis provides a brief summary of the scale-down command.
func (c *ScaleDownCommand) Synopsis() string {
	return "Remove an idle Aurora reader when the pool is underutilized"
}
