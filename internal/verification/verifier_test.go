package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteverifyServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		ok := r.PostForm.Get("secret") == "s3cret" && r.PostForm.Get("response") == "good"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": ok})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTurnstile_PassAndFail(t *testing.T) {
	srv := siteverifyServer(t, http.StatusOK)
	v := NewTurnstile("s3cret", srv.URL, time.Second, nil)

	ok, err := v.Verify(context.Background(), "good", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(context.Background(), "forged", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTurnstile_EmptyTokenRejectedWithoutCall(t *testing.T) {
	v := NewTurnstile("s3cret", "http://127.0.0.1:1", time.Second, nil)
	ok, err := v.Verify(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTurnstile_DisabledWithoutSecret(t *testing.T) {
	v := NewTurnstile("", "http://127.0.0.1:1", time.Second, nil)
	assert.False(t, v.Enabled())

	ok, err := v.Verify(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTurnstile_ServerError(t *testing.T) {
	srv := siteverifyServer(t, http.StatusBadGateway)
	v := NewTurnstile("s3cret", srv.URL, time.Second, nil)

	ok, err := v.Verify(context.Background(), "good", "")
	assert.Error(t, err)
	assert.False(t, ok)
}
