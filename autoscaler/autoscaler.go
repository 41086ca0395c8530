package autoscaler

import (
	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
	"github.com/aws-samples/sample-ManagedAutoScaler/notifier"
)

// readerNamePrefix is the naming prefix carried by every reader this
// controller creates. It acts as a weak filter when identifying removal
// candidates; the ownership tags remain the only deletion authorization.
const readerNamePrefix = "lambda-aurora-reader-"

// notify fans the message out to every configured notification backend.
// Backends are only initialized when notifications are enabled, so this is
// a natural no-op otherwise. Sends are best effort and never abort the
// calling control loop.
func notify(config *structs.Config, subject, body string) {
	if config.Notification == nil {
		return
	}

	for _, n := range config.Notification.Notifiers {
		logging.Debug("core/autoscaler: sending notification %q via %v",
			subject, n.Name())

		n.SendNotification(notifier.Message{
			ClusterIdentifier: config.Notification.ClusterIdentifier,
			Subject:           subject,
			Body:              body,
		})
	}
}
