package observability

import "context"

// Publisher is the seam the event pipeline publishes through. The AMQP
// implementation lives in internal/rabbitmq.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

var defaultPublisher Publisher

// SetPublisher installs the process-wide event publisher.
func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

// PublishEvent publishes through the installed publisher. With none
// installed it is a no-op; events are best-effort by design.
func PublishEvent(ctx context.Context, routingKey string, envelope EventEnvelope, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	event := struct {
		EventEnvelope
		Headers map[string]string `json:"headers,omitempty"`
	}{EventEnvelope: envelope, Headers: headers}

	err := defaultPublisher.Publish(ctx, routingKey, event)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
