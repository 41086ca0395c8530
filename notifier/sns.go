package notifier

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"

	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// SNSProvider contains the required configuration to publish notifications
// to an SNS topic.
type SNSProvider struct {
	config map[string]string
	svc    *sns.SNS
}

// NewSNSProvider creates the SNS notification provider.
func NewSNSProvider(c map[string]string) (Notifier, error) {
	if c["SNSTopicARN"] == "" {
		return nil, fmt.Errorf("sns_topic_arn is required for the sns notification provider")
	}

	sess := session.Must(session.NewSession())
	svc := sns.New(sess, &aws.Config{Region: aws.String(c["Region"])})

	s := &SNSProvider{
		config: c,
		svc:    svc,
	}

	return s, nil
}

// Name returns the name of the notification endpoint in a lowercase, human
// readable format.
func (s *SNSProvider) Name() string {
	return "sns"
}

// SendNotification publishes the message to the configured SNS topic. The
// body is prefixed with a UTC timestamp line so operators can order events
// even when topic delivery is delayed. Publish failures are logged and
// discarded.
func (s *SNSProvider) SendNotification(message Message) {
	body := fmt.Sprintf("Time: %s UTC\nCluster: %s\n\n%s",
		time.Now().UTC().Format("2006-01-02 15:04:05"),
		message.ClusterIdentifier, message.Body)

	params := &sns.PublishInput{
		TopicArn: aws.String(s.config["SNSTopicARN"]),
		Subject:  aws.String(message.Subject),
		Message:  aws.String(body),
	}

	resp, err := s.svc.Publish(params)
	if err != nil {
		logging.Error("notifier/sns: failed to publish notification %q: %v",
			message.Subject, err)
		return
	}

	logging.Debug("notifier/sns: published notification %q with message id %v",
		message.Subject, aws.StringValue(resp.MessageId))
}
