package push

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushchat/internal/domain"
)

type fakeRelay struct {
	mu       sync.Mutex
	queues   map[domain.Handle][]domain.Envelope
	acks     map[domain.Handle]int
	fetchErr error
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{queues: map[domain.Handle][]domain.Envelope{}, acks: map[domain.Handle]int{}}
}

func (f *fakeRelay) Register(context.Context, domain.RegistrationBundle) error { return nil }

func (f *fakeRelay) SendEnvelope(_ context.Context, env domain.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[env.To] = append(f.queues[env.To], env)
	return nil
}

func (f *fakeRelay) FetchEnvelopes(_ context.Context, h domain.Handle, limit int) ([]domain.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	q := f.queues[h]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	return append([]domain.Envelope(nil), q...), nil
}

func (f *fakeRelay) AckEnvelopes(_ context.Context, h domain.Handle, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks[h] += count
	f.queues[h] = f.queues[h][count:]
	return nil
}

func TestNewConnection_ResumesOrCreatesState(t *testing.T) {
	fresh := NewConnection(newFakeRelay(), "http://relay", nil, 0, 0)
	st := fresh.State()
	assert.NotEmpty(t, st.Token)
	assert.Equal(t, "http://relay", st.RelayURL)
	assert.Equal(t, []domain.Topic{domain.TopicMessages, domain.TopicLocation}, st.Topics)

	prior := &domain.PushState{Token: "kept", RelayURL: "http://old"}
	resumed := NewConnection(newFakeRelay(), "", prior, 0, 0)
	assert.Equal(t, "kept", resumed.State().Token)
	assert.Equal(t, "http://old", resumed.State().RelayURL)
}

func TestConnection_PollOncePublishesAndAcks(t *testing.T) {
	relay := newFakeRelay()
	ctx := context.Background()
	require.NoError(t, relay.SendEnvelope(ctx, domain.Envelope{ID: "a", To: "alice"}))
	require.NoError(t, relay.SendEnvelope(ctx, domain.Envelope{ID: "b", To: "alice"}))
	require.NoError(t, relay.SendEnvelope(ctx, domain.Envelope{ID: "c", To: "al"}))

	conn := NewConnection(relay, "", nil, time.Millisecond, 0)
	sub := conn.Subscribe()

	n, err := conn.PollOnce(ctx, []domain.Handle{"alice", "al"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, relay.acks["alice"])
	assert.Equal(t, 1, relay.acks["al"])

	for _, want := range []string{"a", "b", "c"} {
		env, err := sub.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, env.ID)
	}
}

func TestConnection_PollOnceLeavesRefusedEnvelopesQueued(t *testing.T) {
	relay := newFakeRelay()
	ctx := context.Background()
	total := DefaultCapacity + 10
	for i := 0; i < total; i++ {
		require.NoError(t, relay.SendEnvelope(ctx, domain.Envelope{ID: strconv.Itoa(i), To: "alice"}))
	}

	conn := NewConnection(relay, "", nil, time.Millisecond, 0)
	sub := conn.Subscribe()

	n, err := conn.PollOnce(ctx, []domain.Handle{"alice"})
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, n)
	assert.Equal(t, DefaultCapacity, relay.acks["alice"])
	assert.Len(t, relay.queues["alice"], 10)

	for i := 0; i < DefaultCapacity; i++ {
		env, err := sub.Recv(ctx)
		require.NoError(t, err, "no envelope may be skipped")
		assert.Equal(t, strconv.Itoa(i), env.ID)
	}

	n, err = conn.PollOnce(ctx, []domain.Handle{"alice"})
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Empty(t, relay.queues["alice"])
	for i := DefaultCapacity; i < total; i++ {
		env, err := sub.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(i), env.ID)
	}
}

func TestConnection_PollOnceAcksNothingWhenFull(t *testing.T) {
	relay := newFakeRelay()
	ctx := context.Background()
	conn := NewConnection(relay, "", nil, time.Millisecond, 0)
	conn.hub = NewHub(1)
	sub := conn.Subscribe()
	require.True(t, conn.hub.Offer(domain.Envelope{ID: "buffered"}))
	require.NoError(t, relay.SendEnvelope(ctx, domain.Envelope{ID: "waiting", To: "alice"}))

	n, err := conn.PollOnce(ctx, []domain.Handle{"alice"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, relay.acks["alice"])
	assert.Len(t, relay.queues["alice"], 1)

	env, err := sub.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "buffered", env.ID)
}

func TestConnection_PollOnceReportsFetchErrors(t *testing.T) {
	relay := newFakeRelay()
	relay.fetchErr = errors.New("down")
	conn := NewConnection(relay, "", nil, time.Millisecond, 0)

	n, err := conn.PollOnce(context.Background(), []domain.Handle{"alice"})
	assert.Zero(t, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch alice")
}

func TestConnection_RunStopsAndClosesHub(t *testing.T) {
	relay := newFakeRelay()
	require.NoError(t, relay.SendEnvelope(context.Background(), domain.Envelope{ID: "a", To: "alice"}))
	conn := NewConnection(relay, "", nil, 5*time.Millisecond, 0)
	sub := conn.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- conn.Run(ctx, func() []domain.Handle { return []domain.Handle{"alice"} }) }()

	env, err := sub.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", env.ID)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	_, err = sub.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
