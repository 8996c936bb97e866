// Package notifier delivers account emails that carry a confirmation or reset link.
//
// Senders either hand the message to a RabbitMQ queue (QueueNotifier), deliver it
// over SMTP (Mailer) or just log it (LogNotifier) when no mail server is configured.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bienesraices/pkg/rabbitmq"

	"github.com/streadway/amqp"
)

const deliveryTimeout = 30 * time.Second

// Kind identifies which account flow a message belongs to.
type Kind string

const (
	KindRegistration  Kind = "registration"
	KindPasswordReset Kind = "password_reset"
)

// Message is the payload of a single notification.
type Message struct {
	Kind  Kind   `json:"kind"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// Validate checks that m can be turned into an email.
func (m Message) Validate() error {
	switch m.Kind {
	case KindRegistration, KindPasswordReset:
	default:
		return fmt.Errorf("unknown notification kind %q", m.Kind)
	}
	if m.Email == "" || m.Token == "" {
		return errors.New("notification requires email and token")
	}
	return nil
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Publisher is the part of the RabbitMQ client the queue notifier needs.
type Publisher interface {
	Publish(queue string, body []byte) error
}

// QueueNotifier publishes messages to a queue for a mail worker to deliver.
type QueueNotifier struct {
	publisher Publisher
	queue     string
}

// NewQueueNotifier creates a QueueNotifier publishing to queue.
func NewQueueNotifier(publisher Publisher, queue string) *QueueNotifier {
	return &QueueNotifier{publisher: publisher, queue: queue}
}

// Send marshals msg to JSON and publishes it.
func (n *QueueNotifier) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := n.publisher.Publish(n.queue, body); err != nil {
		return fmt.Errorf("failed to queue %s notification for %s: %w", msg.Kind, msg.Email, err)
	}
	log.Printf("Queued %s notification for %s", msg.Kind, msg.Email)
	return nil
}

// DeliveryHandler decodes queued messages and hands them to sender.
// Undecodable or invalid payloads and permanent SMTP failures are rejected.
// A transient failure is requeued once; a redelivered message that fails again is dropped.
func DeliveryHandler(sender Sender) rabbitmq.Handler {
	return func(d amqp.Delivery) error {
		var msg Message
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			return rabbitmq.Reject(fmt.Errorf("failed to decode notification: %w", err))
		}
		if err := msg.Validate(); err != nil {
			return rabbitmq.Reject(err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		err := sender.Send(ctx, msg)
		if err != nil && (Permanent(err) || d.Redelivered) {
			return rabbitmq.Reject(err)
		}
		return err
	}
}

// LogNotifier writes the link to the process log instead of sending email.
type LogNotifier struct {
	baseURL string
}

// NewLogNotifier creates a LogNotifier building links against baseURL.
func NewLogNotifier(baseURL string) *LogNotifier {
	return &LogNotifier{baseURL: baseURL}
}

// Send logs the recipient and the link.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	log.Printf("Notification %s for %s: %s", msg.Kind, msg.Email, Link(n.baseURL, msg))
	return nil
}

// Link returns the URL the recipient must open to continue the flow.
func Link(baseURL string, msg Message) string {
	switch msg.Kind {
	case KindPasswordReset:
		return fmt.Sprintf("%s/auth/olvide-password/%s", baseURL, msg.Token)
	default:
		return fmt.Sprintf("%s/auth/confirmar/%s", baseURL, msg.Token)
	}
}
