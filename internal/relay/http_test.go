package relay_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushchat/internal/domain"
	"pushchat/internal/relay"
)

func TestHTTP_SendFetchAck(t *testing.T) {
	var gotEnv domain.Envelope
	var gotAck struct {
		Count int `json:"count"`
	}
	var gotLimit string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /msg/{handle}", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotEnv))
		assert.Equal(t, "bob", r.PathValue("handle"))
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /msg/{handle}", func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_ = json.NewEncoder(w).Encode([]domain.Envelope{{ID: "e1", To: "bob"}})
	})
	mux.HandleFunc("POST /msg/{handle}/ack", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotAck))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := relay.NewHTTP(srv.URL+"/", srv.Client())
	ctx := context.Background()

	require.NoError(t, c.SendEnvelope(ctx, domain.Envelope{ID: "e1", To: "bob", Payload: []byte("x")}))
	assert.Equal(t, "e1", gotEnv.ID)
	assert.Equal(t, []byte("x"), gotEnv.Payload)

	envs, err := c.FetchEnvelopes(ctx, "bob", 5)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "e1", envs[0].ID)
	assert.Equal(t, "5", gotLimit)

	require.NoError(t, c.AckEnvelopes(ctx, "bob", 1))
	assert.Equal(t, 1, gotAck.Count)
}

func TestHTTP_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, nil)
	err := c.Register(context.Background(), domain.RegistrationBundle{UserID: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay post /register")
	assert.Contains(t, err.Error(), "403")

	_, err = c.FetchEnvelopes(context.Background(), "bob", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay get /msg/bob")
}
