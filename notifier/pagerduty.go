package notifier

import (
	"fmt"

	"github.com/PagerDuty/go-pagerduty"

	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// PagerDutyProvider contains the required configuration to send PagerDuty
// notifications.
type PagerDutyProvider struct {
	config map[string]string
}

// NewPagerDutyProvider creates the PagerDuty notification provider.
func NewPagerDutyProvider(c map[string]string) (Notifier, error) {

	p := &PagerDutyProvider{
		config: c,
	}

	return p, nil
}

// Name returns the name of the notification endpoint in a lowercase, human
// readable format.
func (p *PagerDutyProvider) Name() string {
	return "pagerduty"
}

// SendNotification will send a notification to PagerDuty using the Event
// library call to create a new incident. Event failures are logged and
// discarded.
func (p *PagerDutyProvider) SendNotification(message Message) {

	// Format the incident description.
	d := fmt.Sprintf("%s %s", message.ClusterIdentifier, message.Subject)

	// Setup the PagerDuty event structure which will then be used to trigger
	// the event call.
	event := pagerduty.Event{
		ServiceKey:  p.config["PagerDutyServiceKey"],
		Type:        "trigger",
		Description: d,
		Details:     message,
	}

	resp, err := pagerduty.CreateEvent(event)
	if err != nil {
		logging.Error("notifier/pagerduty: failed to create event: %v", err)
		return
	}

	logging.Debug("notifier/pagerduty: created incident %v", resp.IncidentKey)
}
