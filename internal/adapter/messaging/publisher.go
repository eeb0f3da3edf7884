package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// publishConn is the part of *nats.Conn the publisher needs.
type publishConn interface {
	Publish(subj string, data []byte) error
}

// Publisher implements ports.EventPublisher.
type Publisher struct {
	conn publishConn
	log  zerolog.Logger
}

// NewPublisher creates an event publisher on conn.
func NewPublisher(conn publishConn, log zerolog.Logger) *Publisher {
	return &Publisher{conn: conn, log: log}
}

// Emit publishes data on subject pattern wrapped as {"pattern","data"}.
func (p *Publisher) Emit(ctx context.Context, pattern string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.Marshal(event{Pattern: pattern, Data: data})
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", pattern, err)
	}
	if err := p.conn.Publish(pattern, b); err != nil {
		return fmt.Errorf("publishing %s: %w", pattern, err)
	}

	p.log.Debug().Str("pattern", pattern).Int("bytes", len(b)).Msg("event emitted")
	return nil
}
