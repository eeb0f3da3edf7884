package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports/mocks"
	"payment-broker/pkg/apperror"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const sessionPayload = `{"pattern":"create.payment.session","data":{"orderId":"ord-1","paymentMethodId":"rest-1#1"},"id":"req-1"}`

func connectTestServer(t *testing.T) *nats.Conn {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func startResponder(t *testing.T, nc *nats.Conn, svc *mocks.MockPaymentService, opts ...ResponderOption) *Responder {
	t.Helper()
	r := NewResponder(nc, "payments-ms", svc, zerolog.New(io.Discard), opts...)
	require.NoError(t, r.Start())
	require.NoError(t, nc.Flush())
	return r
}

func natsRequest(t *testing.T, nc *nats.Conn, payload string) decodedReply {
	t.Helper()
	msg, err := nc.Request(SubjectCreateSession, []byte(payload), 5*time.Second)
	require.NoError(t, err)
	var out decodedReply
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

// slowSession returns a service stub that takes d per call and records the
// highest number of calls running at once.
func slowSession(d time.Duration, peak *int32) func(context.Context, *domain.PaymentSessionRequest) (*domain.SessionResult, error) {
	var running int32
	return func(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error) {
		n := atomic.AddInt32(&running, 1)
		defer atomic.AddInt32(&running, -1)
		for {
			cur := atomic.LoadInt32(peak)
			if n <= cur || atomic.CompareAndSwapInt32(peak, cur, n) {
				break
			}
		}
		select {
		case <-time.After(d):
			return &domain.SessionResult{Provider: "stripe", OrderID: req.OrderID, URL: "https://checkout/cs_1"}, nil
		case <-ctx.Done():
			return nil, apperror.ErrUpstream("stripe", 0, "", ctx.Err())
		}
	}
}

func TestResponder_OverNATS_HandlesRequestsConcurrently(t *testing.T) {
	nc := connectTestServer(t)
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockPaymentService(ctrl)

	var peak int32
	svc.EXPECT().CreatePaymentSession(gomock.Any(), gomock.Any()).
		DoAndReturn(slowSession(400*time.Millisecond, &peak)).Times(4)

	r := startResponder(t, nc, svc)
	defer r.Stop(context.Background())

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := natsRequest(t, nc, sessionPayload)
			assert.Nil(t, out.Err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), atomic.LoadInt32(&peak))
	assert.Less(t, time.Since(start), 1200*time.Millisecond)
}

func TestResponder_OverNATS_MaxInFlight(t *testing.T) {
	nc := connectTestServer(t)
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockPaymentService(ctrl)

	var peak int32
	svc.EXPECT().CreatePaymentSession(gomock.Any(), gomock.Any()).
		DoAndReturn(slowSession(100*time.Millisecond, &peak)).Times(3)

	r := startResponder(t, nc, svc, WithMaxInFlight(1))
	defer r.Stop(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := natsRequest(t, nc, sessionPayload)
			assert.Nil(t, out.Err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestResponder_OverNATS_StopWaitsForInFlight(t *testing.T) {
	nc := connectTestServer(t)
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockPaymentService(ctrl)

	var peak int32
	svc.EXPECT().CreatePaymentSession(gomock.Any(), gomock.Any()).
		DoAndReturn(slowSession(300*time.Millisecond, &peak))

	r := startResponder(t, nc, svc)

	replies := make(chan decodedReply, 1)
	go func() { replies <- natsRequest(t, nc, sessionPayload) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&peak) == 1 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))

	out := <-replies
	assert.Nil(t, out.Err)
	assert.Equal(t, "req-1", out.ID)

	_, err := nc.Request(SubjectCreateSession, []byte(sessionPayload), 200*time.Millisecond)
	assert.ErrorIs(t, err, nats.ErrNoResponders)
}

func TestResponder_OverNATS_StopDeadlineCancelsHandlers(t *testing.T) {
	nc := connectTestServer(t)
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockPaymentService(ctrl)

	started := make(chan struct{})
	svc.EXPECT().CreatePaymentSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error) {
			close(started)
			<-ctx.Done()
			return nil, apperror.ErrUpstream("stripe", 0, "", ctx.Err())
		})

	r := startResponder(t, nc, svc)

	replies := make(chan decodedReply, 1)
	go func() { replies <- natsRequest(t, nc, sessionPayload) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := r.Stop(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	out := <-replies
	require.NotNil(t, out.Err)
	assert.Equal(t, "UPS_001", out.Err.Code)
}

func TestResponder_StopIsIdempotent(t *testing.T) {
	r, _ := newTestResponder(t)
	assert.NoError(t, r.Stop(context.Background()))
	assert.NoError(t, r.Stop(context.Background()))
}
