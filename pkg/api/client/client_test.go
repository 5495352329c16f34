package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginDecodesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":"u1","name":"Ada","role":"user"},"tokens":{"access_token":"a","refresh_token":"r","expires_in":900}}`))
	}))
	defer srv.Close()

	cli, err := New(srv.URL)
	require.NoError(t, err)
	sess, err := cli.Login(context.Background(), "ada@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, "a", sess.Tokens.AccessToken)
	assert.EqualValues(t, 900, sess.Tokens.ExpiresIn)
}

func TestErrorsCarryStatusAndKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/invitations/inv-1/accept", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGone)
		_, _ = w.Write([]byte(`{"error":"expired: invitation inv-1","kind":"expired"}`))
	}))
	defer srv.Close()

	cli, err := New(srv.URL)
	require.NoError(t, err)
	_, err = cli.RespondInvitation(context.Background(), "tok", "inv-1", "accept")
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusGone, apiErr.Status)
	assert.Equal(t, "expired", apiErr.Kind)
}

func TestRespondInvitationRejectsUnknownAction(t *testing.T) {
	cli, err := New("localhost:4000")
	require.NoError(t, err)
	_, err = cli.RespondInvitation(context.Background(), "tok", "inv-1", "ignore")
	require.Error(t, err)
}

func TestDiscoverPassesLimitAndUnwraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/discover", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"people":[{"id":"u2","name":"Bob","skills":["go"]}]}`))
	}))
	defer srv.Close()

	cli, err := New(srv.URL)
	require.NoError(t, err)
	people, err := cli.Discover(context.Background(), "tok", 5)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Bob", people[0].Name)
}

func TestUnmatchAcceptsNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"m1","is_active":false}`))
	}))
	defer srv.Close()

	cli, err := New(srv.URL)
	require.NoError(t, err)
	require.NoError(t, cli.Unmatch(context.Background(), "tok", "m1"))
}
