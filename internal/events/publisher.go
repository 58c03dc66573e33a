// Package events broadcasts loan lifecycle events. Delivery is fire-and-forget
// with at-most-once semantics; a publish failure never fails the financial
// mutation that produced it.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event types emitted by the lifecycle engine.
const (
	LoanRequested = "LOAN_REQUESTED"
	LoanApproved  = "LOAN_APPROVED"
	LoanRejected  = "LOAN_REJECTED"
	EMIPaid       = "EMI_PAID"
	LoanPreclosed = "LOAN_PRECLOSED"
	LoanDefaulted = "LOAN_DEFAULTED"
)

// Sink receives lifecycle events.
type Sink interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}

type redisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher publishes events onto a Redis pub/sub channel.
func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) Sink {
	return &redisPublisher{client: client, channel: channel, logger: logger}
}

type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func (p *redisPublisher) Publish(ctx context.Context, eventType string, payload interface{}) {
	raw, err := json.Marshal(envelope{Type: eventType, Payload: payload})
	if err != nil {
		p.logger.Warn("event encode failed", zap.String("event", eventType), zap.Error(err))
		return
	}

	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		p.logger.Warn("event publish failed", zap.String("event", eventType), zap.Error(err))
	}
}
