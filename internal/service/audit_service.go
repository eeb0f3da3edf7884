package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// AuditOptions tunes the audit fan-out. Zero values take the defaults below.
type AuditOptions struct {
	MaxAttempts    int           // per store, default 3
	RetryStep      time.Duration // wait before retry n is n*RetryStep, default 1s
	AttemptTimeout time.Duration // bound on a single store call, default 5s
	QueueSize      int           // default 256
	Workers        int           // default 4
}

func (o AuditOptions) withDefaults() AuditOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryStep <= 0 {
		o.RetryStep = time.Second
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 5 * time.Second
	}
	if o.QueueSize < 0 {
		o.QueueSize = 0
	} else if o.QueueSize == 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// AuditService writes every audit record to an indexed store and an archive
// store. Records are queued and written by background workers; callers never
// wait on storage and never see a storage error.
type AuditService struct {
	indexed ports.IndexedAuditStore
	archive ports.ArchiveAuditStore
	opts    AuditOptions
	log     zerolog.Logger
	now     func() time.Time

	queue    chan domain.AuditRecord
	mu       sync.RWMutex
	closed   bool
	workers  sync.WaitGroup
	overflow sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewAuditService starts the worker pool. Call Drain on shutdown.
func NewAuditService(indexed ports.IndexedAuditStore, archive ports.ArchiveAuditStore, opts AuditOptions, log zerolog.Logger) *AuditService {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	s := &AuditService{
		indexed: indexed,
		archive: archive,
		opts:    opts,
		log:     log,
		now:     time.Now,
		queue:   make(chan domain.AuditRecord, opts.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	s.workers.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go s.worker()
	}
	return s
}

// LogTransaction enqueues rec. When the queue is full the record is written
// by a dedicated goroutine that Drain still waits for.
func (s *AuditService) LogTransaction(rec domain.AuditRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.log.Error().
			Str("tx_id", rec.TransactionID).
			Str("order_id", rec.OrderID).
			Msg("audit: service drained, record dropped")
		return
	}

	select {
	case s.queue <- rec:
	default:
		s.overflow.Add(1)
		go func() {
			defer s.overflow.Done()
			s.write(rec)
		}()
	}
}

// Drain stops intake and waits for queued and in-flight writes. If ctx ends
// first, pending retries are abandoned and ctx.Err() is returned.
func (s *AuditService) Drain(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		s.overflow.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

func (s *AuditService) worker() {
	defer s.workers.Done()
	for rec := range s.queue {
		s.write(rec)
	}
}

// write fans rec out to both stores concurrently. A failure of one store
// does not affect the other.
func (s *AuditService) write(rec domain.AuditRecord) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("tx_id", rec.TransactionID).Msg("audit: write panicked")
		}
	}()

	now := s.now()
	path := domain.ArchivePath(now, rec.TransactionID)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		entry := rec.Indexed(now, s.archive.URL(path))
		s.withRetry("indexed", rec.TransactionID, func(ctx context.Context) error {
			return s.indexed.PutAudit(ctx, &entry)
		})
	}()

	go func() {
		defer wg.Done()
		blob, err := json.MarshalIndent(rec.Archived(now), "", "  ")
		if err != nil {
			s.log.Error().Err(err).Str("tx_id", rec.TransactionID).Msg("audit: cannot encode archive entry")
			return
		}
		s.withRetry("archive", rec.TransactionID, func(ctx context.Context) error {
			return s.archive.PutArchive(ctx, path, blob)
		})
	}()

	wg.Wait()
}

func (s *AuditService) withRetry(target, txID string, fn func(ctx context.Context) error) {
	attempt := 0
	op := func() error {
		attempt++
		ctx, cancel := context.WithTimeout(s.ctx, s.opts.AttemptTimeout)
		defer cancel()
		return fn(ctx)
	}
	notify := func(err error, wait time.Duration) {
		s.log.Warn().Err(err).
			Str("target", target).
			Str("tx_id", txID).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("audit: write failed, retrying")
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: s.opts.RetryStep}, uint64(s.opts.MaxAttempts-1)),
		s.ctx,
	)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		s.log.Error().Err(err).
			Str("target", target).
			Str("tx_id", txID).
			Int("attempts", attempt).
			Msg("audit: all retry attempts exhausted")
		return
	}

	s.log.Debug().Str("target", target).Str("tx_id", txID).Int("attempt", attempt).Msg("audit: written")
}

// linearBackOff waits step, 2*step, 3*step, ... between attempts.
type linearBackOff struct {
	step    time.Duration
	retries int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.retries++
	return time.Duration(b.retries) * b.step
}

func (b *linearBackOff) Reset() {
	b.retries = 0
}
