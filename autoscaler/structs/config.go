package structs

import (
	"github.com/aws-samples/sample-ManagedAutoScaler/notifier"
)

const (
	// StrategyInstancePriority exhausts each fallback instance type across
	// every availability zone before moving to the next type.
	StrategyInstancePriority = "instance-priority"

	// StrategyAZPriority exhausts each availability zone across every
	// fallback instance type before moving to the next zone.
	StrategyAZPriority = "az-priority"
)

// Config is the main configuration struct used to configure the autoscaler
// application.
type Config struct {
	// Region represents the AWS region the Aurora cluster resides in.
	Region string `mapstructure:"aws_region"`

	// ClusterID is the identifier of the Aurora cluster whose reader pool
	// is managed by the autoscaler.
	ClusterID string `mapstructure:"cluster_id"`

	// LogLevel is the level at which the application should log from.
	LogLevel string `mapstructure:"log_level"`

	// ScaleUp is the configuration struct that controls reader provisioning
	// when an insufficient capacity event fires.
	ScaleUp *ScaleUp `mapstructure:"scale_up"`

	// ScaleDown is the configuration struct that controls reader removal
	// driven by the periodic CPU check.
	ScaleDown *ScaleDown `mapstructure:"scale_down"`

	// Telemetry is the configuration struct that controls the telemetry
	// settings.
	Telemetry *Telemetry `mapstructure:"telemetry"`

	// Notification is the configuration struct that controls notifications.
	Notification *Notification `mapstructure:"notification"`

	// Database provides a client to interact with the database instance
	// directory, provisioner and deprovisioner.
	Database DatabaseClient

	// Capacity provides a client used to probe for available compute
	// capacity ahead of provisioning.
	Capacity CapacityClient

	// Metrics provides a client to query utilization telemetry for the
	// reader pool.
	Metrics MetricsClient

	// Scheduler provides a client to manage the periodic CPU check trigger.
	Scheduler SchedulerClient
}

// ScaleUp is the configuration struct for reader provisioning activities.
type ScaleUp struct {
	// PreferredInstanceType is the instance type tried first in every
	// availability zone before any fallback type is considered.
	PreferredInstanceType string `mapstructure:"preferred_instance_type"`

	// InstanceTypePriority is the ordered list of fallback instance types
	// tried when the preferred type has no capacity anywhere.
	InstanceTypePriority []string `mapstructure:"instance_type_priority"`

	// AvailabilityZones is the ordered list of availability zones readers
	// may be placed in. Zones outside this list are never considered.
	AvailabilityZones []string `mapstructure:"availability_zones"`

	// FallbackStrategy selects the order in which fallback candidates are
	// generated, either instance-priority or az-priority.
	FallbackStrategy string `mapstructure:"fallback_strategy"`

	// Engine is the database engine new readers are created with.
	Engine string `mapstructure:"db_engine"`

	// ReaderTier is the promotion tier assigned to new readers. The default
	// of 15 keeps autoscaled readers last in line for failover promotion.
	ReaderTier int `mapstructure:"reader_tier"`
}

// ScaleDown is the configuration struct for reader removal activities.
type ScaleDown struct {
	// CPUThreshold is the pool average CPU utilization percentage below
	// which a reader is removed.
	CPUThreshold float64 `mapstructure:"cpu_threshold"`

	// LookbackMinutes is the length of the telemetry window in minutes that
	// the pool average is computed over.
	LookbackMinutes int `mapstructure:"lookback_minutes"`

	// MetricPeriod is the telemetry sampling period in seconds.
	MetricPeriod int `mapstructure:"metric_period"`

	// ScheduleName is the name of the EventBridge schedule that fires the
	// periodic CPU check.
	ScheduleName string `mapstructure:"schedule_name"`

	// ScheduleGroup is the EventBridge schedule group the schedule lives in.
	ScheduleGroup string `mapstructure:"schedule_group"`
}

// Telemetry is the struct that controls the telemetry configuration. If a
// value is present then telemetry is enabled. Currently statsd is only
// supported for sending telemetry.
type Telemetry struct {
	// StatsdAddress specifies the address of a statsd server to forward
	// metrics to and should include the port.
	StatsdAddress string `mapstructure:"statsd_address"`
}

// Notification is the control struct for autoscaler notifications.
type Notification struct {
	// Enabled indicates whether scaling notifications are sent at all.
	Enabled bool `mapstructure:"enabled"`

	// ClusterIdentifier is a friendly name which is used when sending
	// notifications for easy human identification.
	ClusterIdentifier string `mapstructure:"cluster_identifier"`

	// SNSTopicARN is the ARN of the SNS topic scaling notifications are
	// published to.
	SNSTopicARN string `mapstructure:"sns_topic_arn"`

	// PagerDutyServiceKey is the PD integration key for the Events API v1.
	PagerDutyServiceKey string `mapstructure:"pagerduty_service_key"`

	// Notifiers is where our initialized notification backends are stored so
	// they can be used on the fly when required.
	Notifiers []notifier.Notifier
}

// Merge merges two configurations.
func (c *Config) Merge(b *Config) *Config {
	config := *c

	if b.Region != "" {
		config.Region = b.Region
	}

	if b.ClusterID != "" {
		config.ClusterID = b.ClusterID
	}

	if b.LogLevel != "" {
		config.LogLevel = b.LogLevel
	}

	// Apply the ScaleUp config
	if config.ScaleUp == nil && b.ScaleUp != nil {
		scaleUp := *b.ScaleUp
		config.ScaleUp = &scaleUp
	} else if b.ScaleUp != nil {
		config.ScaleUp = config.ScaleUp.Merge(b.ScaleUp)
	}

	// Apply the ScaleDown config
	if config.ScaleDown == nil && b.ScaleDown != nil {
		scaleDown := *b.ScaleDown
		config.ScaleDown = &scaleDown
	} else if b.ScaleDown != nil {
		config.ScaleDown = config.ScaleDown.Merge(b.ScaleDown)
	}

	// Apply the Telemetry config
	if config.Telemetry == nil && b.Telemetry != nil {
		telemetry := *b.Telemetry
		config.Telemetry = &telemetry
	} else if b.Telemetry != nil {
		config.Telemetry = config.Telemetry.Merge(b.Telemetry)
	}

	// Apply the Notification config
	if config.Notification == nil && b.Notification != nil {
		notification := *b.Notification
		config.Notification = &notification
	} else if b.Notification != nil {
		config.Notification = config.Notification.Merge(b.Notification)
	}

	return &config
}

// Merge is used to merge two ScaleUp configurations together.
func (s *ScaleUp) Merge(b *ScaleUp) *ScaleUp {
	config := *s

	if b.PreferredInstanceType != "" {
		config.PreferredInstanceType = b.PreferredInstanceType
	}

	if len(b.InstanceTypePriority) != 0 {
		config.InstanceTypePriority = b.InstanceTypePriority
	}

	if len(b.AvailabilityZones) != 0 {
		config.AvailabilityZones = b.AvailabilityZones
	}

	if b.FallbackStrategy != "" {
		config.FallbackStrategy = b.FallbackStrategy
	}

	if b.Engine != "" {
		config.Engine = b.Engine
	}

	if b.ReaderTier != 0 {
		config.ReaderTier = b.ReaderTier
	}

	return &config
}

// Merge is used to merge two ScaleDown configurations together.
func (s *ScaleDown) Merge(b *ScaleDown) *ScaleDown {
	config := *s

	if b.CPUThreshold != 0 {
		config.CPUThreshold = b.CPUThreshold
	}

	if b.LookbackMinutes != 0 {
		config.LookbackMinutes = b.LookbackMinutes
	}

	if b.MetricPeriod != 0 {
		config.MetricPeriod = b.MetricPeriod
	}

	if b.ScheduleName != "" {
		config.ScheduleName = b.ScheduleName
	}

	if b.ScheduleGroup != "" {
		config.ScheduleGroup = b.ScheduleGroup
	}

	return &config
}

// Merge is used to merge two Telemetry configurations together.
func (t *Telemetry) Merge(b *Telemetry) *Telemetry {
	config := *t

	if b.StatsdAddress != "" {
		config.StatsdAddress = b.StatsdAddress
	}

	return &config
}

// Merge is used to merge two Notification configurations together.
func (n *Notification) Merge(b *Notification) *Notification {
	config := *n

	if b.Enabled {
		config.Enabled = b.Enabled
	}

	if b.ClusterIdentifier != "" {
		config.ClusterIdentifier = b.ClusterIdentifier
	}

	if b.SNSTopicARN != "" {
		config.SNSTopicARN = b.SNSTopicARN
	}

	if b.PagerDutyServiceKey != "" {
		config.PagerDutyServiceKey = b.PagerDutyServiceKey
	}

	return &config
}
