package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushchat/internal/domain"
	"pushchat/internal/relay"
	"pushchat/internal/services/identity"
	"pushchat/internal/services/registration"
)

func newTestRelay(t *testing.T) (*relay.HTTP, *memoryStore) {
	t.Helper()
	ms := newMemoryStore()
	srv := httptest.NewServer(newServer(ms))
	t.Cleanup(srv.Close)
	return relay.NewHTTP(srv.URL+"/", srv.Client()), ms
}

func TestRelay_RegisterVerifiesSignature(t *testing.T) {
	rc, ms := newTestRelay(t)
	ids := identity.New()
	device, err := ids.NewDevice()
	require.NoError(t, err)
	user, err := ids.NewUser("alice")
	require.NoError(t, err)

	reg := registration.New(rc)
	_, err = reg.Register(context.Background(), domain.PushState{Token: "tok"}, device, []domain.UserIdentity{user})
	require.NoError(t, err)
	stored, ok := ms.registration("alice")
	require.True(t, ok)
	assert.Equal(t, "tok", stored.PushToken)

	forged := reg.Bundle(domain.PushState{Token: "tok"}, device, user)
	forged.PushToken = "stolen"
	err = rc.Register(context.Background(), forged)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRelay_QueueFetchAck(t *testing.T) {
	rc, _ := newTestRelay(t)
	ctx := context.Background()

	for _, id := range []string{"", "e2", "e3"} {
		require.NoError(t, rc.SendEnvelope(ctx, domain.Envelope{ID: id, Topic: domain.TopicMessages, From: "bob", To: "alice"}))
	}

	envs, err := rc.FetchEnvelopes(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.NotEmpty(t, envs[0].ID)
	assert.NotZero(t, envs[0].Timestamp)
	assert.Equal(t, "e2", envs[1].ID)
	assert.Equal(t, domain.Handle("alice"), envs[1].To)

	require.NoError(t, rc.AckEnvelopes(ctx, "alice", 2))
	envs, err = rc.FetchEnvelopes(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "e3", envs[0].ID)

	require.NoError(t, rc.AckEnvelopes(ctx, "alice", 10))
	envs, err = rc.FetchEnvelopes(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestRelay_BadRequests(t *testing.T) {
	srv := httptest.NewServer(newServer(newMemoryStore()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/msg/alice?limit=-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/register", "application/json", strings.NewReader(`{"user_id":""}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/msg/alice/ack", "application/json", strings.NewReader(`nope`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
