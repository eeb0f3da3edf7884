// Package messaging carries the broker's request/reply surface and outbound
// events over NATS using the NestJS microservice envelope.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-broker/config"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const clientName = "payment-broker"

// Connect dials NATS with reconnects enabled and logs connection state
// changes.
func Connect(cfg config.NATSConfig, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(
		cfg.URL,
		nats.Name(clientName),
		nats.DontRandomize(),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.MaxPingsOutstanding(5),
		nats.PingInterval(10*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", cfg.URL, err)
	}

	log.Info().Str("url", nc.ConnectedUrl()).Msg("connected to NATS")
	return nc, nil
}

// statusConn is the part of *nats.Conn the health check needs.
type statusConn interface {
	Status() nats.Status
}

// HealthCheck implements ports.HealthChecker for the NATS connection.
type HealthCheck struct {
	conn statusConn
}

// NewHealthCheck creates a NATS health checker.
func NewHealthCheck(conn statusConn) *HealthCheck {
	return &HealthCheck{conn: conn}
}

func (h *HealthCheck) Ping(_ context.Context) error {
	if s := h.conn.Status(); s != nats.CONNECTED {
		return errors.New("nats connection is " + s.String())
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "nats"
}
