package push

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushchat/internal/domain"
)

func TestHub_BroadcastsInOrderToEveryReader(t *testing.T) {
	h := NewHub(8)
	a := h.Subscribe()
	b := h.Subscribe()
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		h.Publish(domain.Envelope{ID: id})
	}

	for _, sub := range []*Subscription{a, b} {
		for _, want := range []string{"1", "2", "3"} {
			env, err := sub.Recv(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, env.ID)
		}
	}
}

func TestHub_LaggedReaderIsTold(t *testing.T) {
	h := NewHub(2)
	sub := h.Subscribe()
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3", "4"} {
		h.Publish(domain.Envelope{ID: id})
	}

	_, err := sub.Recv(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLagged))
	var lagged *LaggedError
	require.ErrorAs(t, err, &lagged)
	assert.Equal(t, uint64(2), lagged.Skipped)

	env, err := sub.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", env.ID)
}

func TestHub_OfferIsAllOrNothing(t *testing.T) {
	h := NewHub(1)
	fast := h.Subscribe()
	slow := h.Subscribe()
	ctx := context.Background()

	require.True(t, h.Offer(domain.Envelope{ID: "1"}))
	_, err := fast.Recv(ctx)
	require.NoError(t, err)

	assert.False(t, h.Offer(domain.Envelope{ID: "2"}), "slow reader is still full")

	env, err := slow.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", env.ID, "a refused offer is not reported as lag")

	require.True(t, h.Offer(domain.Envelope{ID: "2"}))
	for _, sub := range []*Subscription{fast, slow} {
		env, err := sub.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2", env.ID)
	}
}

func TestHub_PublishReportsMisses(t *testing.T) {
	h := NewHub(1)
	_ = h.Subscribe()
	assert.True(t, h.Publish(domain.Envelope{ID: "1"}))
	assert.False(t, h.Publish(domain.Envelope{ID: "2"}))
}

func TestHub_CloseDrainsThenErrClosed(t *testing.T) {
	h := NewHub(4)
	sub := h.Subscribe()
	h.Publish(domain.Envelope{ID: "last"})
	h.Close()

	env, err := sub.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "last", env.ID)

	_, err = sub.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	late := h.Subscribe()
	_, err = late.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSubscription_RecvHonoursContext(t *testing.T) {
	h := NewHub(1)
	sub := h.Subscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sub.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubscription_CloseDetaches(t *testing.T) {
	h := NewHub(1)
	sub := h.Subscribe()
	require.Equal(t, 1, h.Subscribers())
	sub.Close()
	sub.Close()
	assert.Equal(t, 0, h.Subscribers())
}

func TestHub_ConcurrentPublish(t *testing.T) {
	h := NewHub(1000)
	sub := h.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Publish(domain.Envelope{ID: "x"})
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 500; i++ {
		_, err := sub.Recv(context.Background())
		require.NoError(t, err)
	}
}
