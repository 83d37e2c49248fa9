package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))

		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-alice",
			"token_type":   "bearer",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPasswordGrant_Success(t *testing.T) {
	srv := newTokenServer(t)
	g := NewPasswordGrant(srv.URL+"/token", srv.Client())

	token, err := g.Exchange(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", token)
}

func TestPasswordGrant_Rejected(t *testing.T) {
	srv := newTokenServer(t)
	g := NewPasswordGrant(srv.URL+"/token", srv.Client())

	_, err := g.Exchange(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialsRejected)
}

func TestPasswordGrant_Unreachable(t *testing.T) {
	srv := newTokenServer(t)
	url := srv.URL
	srv.Close()

	_, err := NewPasswordGrant(url+"/token", nil).Exchange(context.Background(), "alice", "s3cret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsRejected)
}
