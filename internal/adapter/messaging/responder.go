package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports"
	"payment-broker/pkg/apperror"
	"payment-broker/pkg/response"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Subjects served by the responder.
const (
	SubjectCreateSession = "create.payment.session"
	SubjectStripeWebhook = "payments.stripe.webhook"
	SubjectSuccess       = "payments.success"
	SubjectCancel        = "payments.cancel"
)

const (
	// DefaultRequestTimeout bounds the handling of a single request.
	DefaultRequestTimeout = 30 * time.Second
	// DefaultMaxInFlight caps the requests a responder handles at once.
	DefaultMaxInFlight = 64
)

// HandlerFunc serves one pattern. data is the raw "data" member of the
// request envelope.
type HandlerFunc func(ctx context.Context, data json.RawMessage) (any, error)

// Responder answers NestJS-style requests on a NATS queue group. Each
// request runs in its own goroutine; at most maxInFlight run at once.
type Responder struct {
	conn        *nats.Conn
	queue       string
	timeout     time.Duration
	maxInFlight int64
	log         zerolog.Logger

	routes map[string]HandlerFunc
	slots  *semaphore.Weighted

	mu      sync.Mutex
	subs    []*nats.Subscription
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// ResponderOption customizes a Responder.
type ResponderOption func(*Responder)

// WithMaxInFlight caps concurrent requests. n <= 0 keeps DefaultMaxInFlight.
func WithMaxInFlight(n int) ResponderOption {
	return func(r *Responder) {
		if n > 0 {
			r.maxInFlight = int64(n)
		}
	}
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) ResponderOption {
	return func(r *Responder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResponder wires the payment service to its subjects. conn may be nil
// when only Handle is used.
func NewResponder(conn *nats.Conn, queue string, svc ports.PaymentService, log zerolog.Logger, opts ...ResponderOption) *Responder {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Responder{
		conn:        conn,
		queue:       queue,
		timeout:     DefaultRequestTimeout,
		maxInFlight: DefaultMaxInFlight,
		log:         log,
		routes:      make(map[string]HandlerFunc),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.slots = semaphore.NewWeighted(r.maxInFlight)

	r.routes[SubjectCreateSession] = func(ctx context.Context, data json.RawMessage) (any, error) {
		var req domain.PaymentSessionRequest
		if err := decodeData(data, &req); err != nil {
			return nil, err
		}
		return svc.CreatePaymentSession(ctx, &req)
	}
	r.routes[SubjectStripeWebhook] = func(ctx context.Context, data json.RawMessage) (any, error) {
		var evt domain.WebhookEvent
		if err := decodeData(data, &evt); err != nil {
			return nil, err
		}
		return svc.HandleWebhook(ctx, &evt)
	}
	r.routes[SubjectSuccess] = func(context.Context, json.RawMessage) (any, error) {
		return domain.PaymentSuccessAck, nil
	}
	r.routes[SubjectCancel] = func(context.Context, json.RawMessage) (any, error) {
		return domain.PaymentCancelAck, nil
	}
	return r
}

// Subjects lists the patterns the responder serves, sorted.
func (r *Responder) Subjects() []string {
	out := make([]string, 0, len(r.routes))
	for s := range r.routes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Start subscribes every subject in the queue group.
func (r *Responder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, subject := range r.Subjects() {
		sub, err := r.conn.QueueSubscribe(subject, r.queue, r.onMessage)
		if err != nil {
			r.unsubscribeLocked()
			return fmt.Errorf("subscribing %s: %w", subject, err)
		}
		r.subs = append(r.subs, sub)
		r.log.Info().Str("subject", subject).Str("queue", r.queue).Msg("listening")
	}
	return nil
}

// Stop drains the subscriptions and waits until every accepted request has
// been answered. If ctx ends first, handlers still running are cancelled and
// ctx's error is returned.
func (r *Responder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	defer r.cancel()

	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			r.log.Warn().Err(err).Str("subject", sub.Subject).Msg("drain failed")
		}
	}
	if err := waitDrained(ctx, subs); err != nil {
		return err
	}

	// Holding every slot means no handler is left running.
	if err := r.slots.Acquire(ctx, r.maxInFlight); err != nil {
		return fmt.Errorf("waiting for in-flight requests: %w", err)
	}
	r.log.Info().Msg("responder stopped")
	return nil
}

// waitDrained returns once no pending message can reach onMessage.
func waitDrained(ctx context.Context, subs []*nats.Subscription) error {
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for {
		draining := false
		for _, sub := range subs {
			if sub.IsValid() {
				draining = true
				break
			}
		}
		if !draining {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("draining subscriptions: %w", ctx.Err())
		case <-tick.C:
		}
	}
}

func (r *Responder) unsubscribeLocked() {
	for _, sub := range r.subs {
		_ = sub.Unsubscribe()
	}
	r.subs = nil
}

// onMessage hands msg to its own goroutine. When every slot is taken it
// blocks, which holds further messages in the subscription's pending buffer.
func (r *Responder) onMessage(msg *nats.Msg) {
	if err := r.slots.Acquire(r.ctx, 1); err != nil {
		r.log.Warn().Str("subject", msg.Subject).Msg("responder stopped, request dropped")
		return
	}
	go func() {
		defer r.slots.Release(1)
		r.serve(msg)
	}()
}

func (r *Responder) serve(msg *nats.Msg) {
	out := r.Handle(r.ctx, msg.Subject, msg.Data)
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(out); err != nil {
		r.log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to send reply")
	}
}

// Handle decodes one request envelope, runs the handler for subject and
// returns the encoded reply. It never fails: errors become an "err" reply.
func (r *Responder) Handle(ctx context.Context, subject string, payload []byte) []byte {
	start := time.Now()

	var req request
	if err := json.Unmarshal(payload, &req); err != nil || (req.Data == nil && req.Pattern == nil) {
		// A payload without the envelope is taken as the data itself.
		req = request{Data: payload}
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	log := r.log.With().Str("subject", subject).Str("message_id", req.ID).Logger()

	var (
		result any
		err    error
	)
	h, ok := r.routes[subject]
	if !ok {
		err = apperror.ErrNoHandler(subject)
	} else {
		hctx, cancel := context.WithTimeout(ctx, r.timeout)
		result, err = r.invoke(hctx, h, req.Data)
		cancel()
	}

	rep := reply{IsDisposed: true, ID: req.ID}
	evt := log.Info()
	if err != nil {
		body := response.FromError(err)
		rep.Err = body
		evt = log.Warn().Err(err).Int("status", body.StatusCode)
		if body.StatusCode >= 500 {
			evt = log.Error().Err(err).Int("status", body.StatusCode)
		}
	} else {
		rep.Response = result
	}
	evt.Dur("latency", time.Since(start)).Msg("message handled")

	b, mErr := json.Marshal(rep)
	if mErr != nil {
		log.Error().Err(mErr).Msg("cannot encode reply")
		b, _ = json.Marshal(reply{Err: response.FromError(mErr), IsDisposed: true, ID: req.ID})
	}
	return b
}

func (r *Responder) invoke(ctx context.Context, h HandlerFunc, data json.RawMessage) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("handler panicked")
			result, err = nil, apperror.InternalError(fmt.Errorf("panic: %v", rec))
		}
	}()
	return h(ctx, data)
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return apperror.Validation("request body is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syn):
			return apperror.Validation("malformed JSON payload")
		case errors.As(err, &typ):
			return apperror.Validation(fmt.Sprintf("%s must be of type %s", typ.Field, typ.Type))
		default:
			return apperror.Validation(err.Error())
		}
	}
	return nil
}
