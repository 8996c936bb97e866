package rabbitmq

import (
	"errors"
	"fmt"
	"testing"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

type recordingAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *recordingAcknowledger) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}
func (a *recordingAcknowledger) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantAck     bool
		wantRequeue bool
	}{
		{"success acks", nil, true, false},
		{"transient error requeues", errors.New("smtp down"), false, true},
		{"rejected error drops", Reject(errors.New("bad payload")), false, false},
		{"wrapped reject drops", fmt.Errorf("decode: %w", Reject(errors.New("bad"))), false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ack := &recordingAcknowledger{}
			settle(amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}, tc.err)

			assert.Equal(t, tc.wantAck, ack.acked)
			assert.Equal(t, !tc.wantAck, ack.nacked)
			assert.Equal(t, tc.wantRequeue, ack.requeue)
		})
	}
}

func TestIsRejected(t *testing.T) {
	assert.True(t, IsRejected(fmt.Errorf("send: %w", Reject(errors.New("550")))))
	assert.False(t, IsRejected(errors.New("timeout")))
	assert.False(t, IsRejected(nil))
}

func TestPublish_WithoutChannel(t *testing.T) {
	c := &Client{}
	assert.Error(t, c.Publish("mail_queue", []byte("{}")))
	assert.Error(t, c.Consume("mail_queue", func(amqp.Delivery) error { return nil }))
}
