package base

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/client"
	"github.com/aws-samples/sample-ManagedAutoScaler/helper"
	"github.com/aws-samples/sample-ManagedAutoScaler/notifier"
)

// DefaultConfig returns a default configuration struct with sane defaults.
func DefaultConfig() *structs.Config {

	return &structs.Config{
		LogLevel: "INFO",

		ScaleUp: &structs.ScaleUp{
			PreferredInstanceType: "r6i.32xlarge",
			InstanceTypePriority:  []string{"r7i.48xlarge", "r6id.32xlarge"},
			AvailabilityZones:     []string{"eu-central-1a", "eu-central-1b", "eu-central-1c"},
			FallbackStrategy:      structs.StrategyInstancePriority,
			Engine:                "aurora-postgresql",
			ReaderTier:            15,
		},

		ScaleDown: &structs.ScaleDown{
			CPUThreshold:    10,
			LookbackMinutes: 5,
			MetricPeriod:    60,
			ScheduleName:    "aurora-cpu-monitor-every-minute",
			ScheduleGroup:   "default",
		},

		Telemetry:    &structs.Telemetry{},
		Notification: &structs.Notification{},
	}
}

// EnvConfig builds a sparse configuration from the process environment.
// Lambda deployments carry their entire configuration this way; every
// variable is optional and unset variables leave the merged value alone.
func EnvConfig() (*structs.Config, error) {

	var result *multierror.Error

	config := &structs.Config{
		Region:    os.Getenv("AWS_REGION"),
		ClusterID: os.Getenv("DB_CLUSTER_ID"),
		LogLevel:  os.Getenv("LOG_LEVEL"),

		ScaleUp: &structs.ScaleUp{
			PreferredInstanceType: os.Getenv("PREFERRED_INSTANCE_TYPE"),
			InstanceTypePriority:  helper.ParseCommaList(os.Getenv("INSTANCE_TYPES_PRIORITY")),
			AvailabilityZones:     helper.ParseCommaList(os.Getenv("AVAILABILITY_ZONES")),
			FallbackStrategy:      os.Getenv("FALLBACK_STRATEGY"),
			Engine:                os.Getenv("DB_ENGINE"),
		},

		ScaleDown: &structs.ScaleDown{
			ScheduleName:  os.Getenv("EVENTBRIDGE_SCHEDULE_NAME"),
			ScheduleGroup: os.Getenv("EVENTBRIDGE_SCHEDULE_GROUP"),
		},

		Telemetry: &structs.Telemetry{
			StatsdAddress: os.Getenv("STATSD_ADDRESS"),
		},

		Notification: &structs.Notification{
			ClusterIdentifier:   os.Getenv("NOTIFICATION_CLUSTER_IDENTIFIER"),
			SNSTopicARN:         os.Getenv("SNS_TOPIC_ARN"),
			PagerDutyServiceKey: os.Getenv("PAGERDUTY_SERVICE_KEY"),
		},
	}

	// REGION wins over the runtime provided AWS_REGION when both are set.
	if region := os.Getenv("REGION"); region != "" {
		config.Region = region
	}

	if tier := os.Getenv("AURORA_READER_TIER"); tier != "" {
		v, err := strconv.Atoi(tier)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"AURORA_READER_TIER %q is not a number", tier))
		} else {
			config.ScaleUp.ReaderTier = v
		}
	}

	if threshold := os.Getenv("CPU_THRESHOLD"); threshold != "" {
		v, err := strconv.ParseFloat(threshold, 64)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"CPU_THRESHOLD %q is not a number", threshold))
		} else {
			config.ScaleDown.CPUThreshold = v
		}
	}

	if lookback := os.Getenv("CPU_LOOKBACK_MINUTES"); lookback != "" {
		v, err := strconv.Atoi(lookback)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"CPU_LOOKBACK_MINUTES %q is not a number", lookback))
		} else {
			config.ScaleDown.LookbackMinutes = v
		}
	}

	if period := os.Getenv("CLOUDWATCH_PERIOD"); period != "" {
		v, err := strconv.Atoi(period)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"CLOUDWATCH_PERIOD %q is not a number", period))
		} else {
			config.ScaleDown.MetricPeriod = v
		}
	}

	if enabled := os.Getenv("ENABLE_SNS"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"ENABLE_SNS %q is not a boolean", enabled))
		} else {
			config.Notification.Enabled = v
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, multierror.Prefix(err, "environment:")
	}

	return config, nil
}

// ValidateConfig checks the fully merged configuration for values the
// control loops cannot run without.
func ValidateConfig(config *structs.Config) error {

	var result *multierror.Error

	if config.Region == "" {
		result = multierror.Append(result, fmt.Errorf("aws_region is required"))
	}

	if config.ClusterID == "" {
		result = multierror.Append(result, fmt.Errorf("cluster_id is required"))
	}

	if config.ScaleUp.PreferredInstanceType == "" &&
		len(config.ScaleUp.InstanceTypePriority) == 0 {
		result = multierror.Append(result, fmt.Errorf(
			"at least one of preferred_instance_type or instance_type_priority is required"))
	}

	if len(config.ScaleUp.AvailabilityZones) == 0 {
		result = multierror.Append(result, fmt.Errorf("availability_zones is required"))
	}

	validStrategies := []string{structs.StrategyInstancePriority, structs.StrategyAZPriority}
	if !helper.StringInSlice(config.ScaleUp.FallbackStrategy, validStrategies) {
		result = multierror.Append(result, fmt.Errorf(
			"fallback_strategy must be %s or %s, got %q",
			structs.StrategyInstancePriority, structs.StrategyAZPriority,
			config.ScaleUp.FallbackStrategy))
	}

	if config.ScaleUp.ReaderTier < 0 || config.ScaleUp.ReaderTier > 15 {
		result = multierror.Append(result, fmt.Errorf(
			"reader_tier must be between 0 and 15, got %d", config.ScaleUp.ReaderTier))
	}

	if config.ScaleDown.CPUThreshold <= 0 || config.ScaleDown.CPUThreshold > 100 {
		result = multierror.Append(result, fmt.Errorf(
			"cpu_threshold must be between 0 and 100, got %v", config.ScaleDown.CPUThreshold))
	}

	if config.ScaleDown.LookbackMinutes <= 0 {
		result = multierror.Append(result, fmt.Errorf(
			"lookback_minutes must be positive, got %d", config.ScaleDown.LookbackMinutes))
	}

	if config.ScaleDown.MetricPeriod <= 0 {
		result = multierror.Append(result, fmt.Errorf(
			"metric_period must be positive, got %d", config.ScaleDown.MetricPeriod))
	}

	if config.ScaleDown.ScheduleName == "" {
		result = multierror.Append(result, fmt.Errorf("schedule_name is required"))
	}

	return multierror.Prefix(result.ErrorOrNil(), "config:")
}

// InitializeClients completes the setup process for the AWS service
// clients. Must be called after configuration merging is complete.
func InitializeClients(config *structs.Config) (err error) {

	database, err := client.NewDatabaseClient(config.Region)
	if err != nil {
		return
	}

	capacity, err := client.NewCapacityClient(config.Region)
	if err != nil {
		return
	}

	cloudwatch, err := client.NewMetricsClient(config.Region)
	if err != nil {
		return
	}

	scheduler, err := client.NewSchedulerClient(config.Region)
	if err != nil {
		return
	}

	config.Database = database
	config.Capacity = capacity
	config.Metrics = cloudwatch
	config.Scheduler = scheduler

	return
}

// InitializeNotifiers sets up the configured notification backends and
// stores them on the configuration for the control loops to use. The
// cluster identifier used in notifications defaults to the managed
// cluster.
func InitializeNotifiers(config *structs.Config) error {

	if !config.Notification.Enabled {
		return nil
	}

	if config.Notification.ClusterIdentifier == "" {
		config.Notification.ClusterIdentifier = config.ClusterID
	}

	if config.Notification.SNSTopicARN != "" {
		sns, err := notifier.NewProvider("sns", map[string]string{
			"SNSTopicARN": config.Notification.SNSTopicARN,
			"Region":      config.Region,
		})
		if err != nil {
			return err
		}
		config.Notification.Notifiers = append(config.Notification.Notifiers, sns)
	}

	if config.Notification.PagerDutyServiceKey != "" {
		pd, err := notifier.NewProvider("pagerduty", map[string]string{
			"PagerDutyServiceKey": config.Notification.PagerDutyServiceKey,
		})
		if err != nil {
			return err
		}
		config.Notification.Notifiers = append(config.Notification.Notifiers, pd)
	}

	return nil
}

// LoadConfig loads the configuration at the given path whether the specified
// path is an individual file or a directory of numerous configuration files.
func LoadConfig(path string) (*structs.Config, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if fi.IsDir() {
		return LoadConfigDir(path)
	}

	cleaned := filepath.Clean(path)
	config, err := ParseConfigFile(cleaned)
	if err != nil {
		return nil, fmt.Errorf("Error loading %s: %s", cleaned, err)
	}

	return config, nil
}

// LoadConfigDir loads all the configurations in the given directory
// in lexicographic order.
func LoadConfigDir(dir string) (*structs.Config, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf(
			"configuration path must be a directory: %s", dir)
	}

	var files []string
	err = nil
	for err != io.EOF {
		var fis []os.FileInfo
		fis, err = f.Readdir(128)
		if err != nil && err != io.EOF {
			return nil, err
		}

		for _, fi := range fis {

			// We do not wish to navigate directories.
			if fi.IsDir() {
				continue
			}

			// The autoscaler can only parse HCL, and therefore json files, and
			// so we ignore all other file extensions.
			name := fi.Name()
			skip := true
			if strings.HasSuffix(name, ".hcl") {
				skip = false
			} else if strings.HasSuffix(name, ".json") {
				skip = false
			}
			if skip {
				continue
			}

			path := filepath.Join(dir, name)
			files = append(files, path)
		}
	}

	// If there are no files, there is no need to continue and therefore we
	// exit quickly.
	if len(files) == 0 {
		return &structs.Config{}, nil
	}

	sort.Strings(files)

	var result *structs.Config

	for _, f := range files {
		config, err := ParseConfigFile(f)
		if err != nil {
			return nil, fmt.Errorf("Error loading %s: %s", f, err)
		}

		if result == nil {
			result = config
		} else {
			result = result.Merge(config)
		}
	}

	return result, nil
}
