package notifier

import (
	"fmt"
)

// Message is the notifier struct that contains all relevant notification
// information to provide to operators and developers when the autoscaler
// takes, or fails to take, a scaling action.
type Message struct {
	ClusterIdentifier string
	Subject           string
	Body              string
}

// Notifier is the interface to the Notifiers functions. All notifiers are
// expected to implement this set of functions. Sends are best effort;
// backend failures are logged by the provider and never propagate to the
// calling control loop.
type Notifier interface {
	Name() string
	SendNotification(Message)
}

// NewProvider is the factory entrance to the notifications backends.
func NewProvider(t string, c map[string]string) (Notifier, error) {

	var n Notifier
	var err error

	switch t {
	case "sns":
		n, err = NewSNSProvider(c)
	case "pagerduty":
		n, err = NewPagerDutyProvider(c)
	default:
		err = fmt.Errorf("the notifications provider %s is not supported", t)
	}
	return n, err
}
