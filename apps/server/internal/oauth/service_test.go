package oauth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repomark/apps/server/internal/oauth"
)

// ─── Stubs ────────────────────────────────────────────────────────────────────

type memStates struct {
	mu     sync.Mutex
	states map[string]bool
}

func newMemStates() *memStates { return &memStates{states: map[string]bool{}} }

func (m *memStates) Save(_ context.Context, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = true
	return nil
}

func (m *memStates) Consume(_ context.Context, state string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.states[state]
	delete(m.states, state)
	return ok, nil
}

// tokenServer stands in for github.com/login/oauth/access_token.
func tokenServer(t *testing.T, validCode string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != validCode || r.PostForm.Get("client_id") != "client-id" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "gho_exchanged",
			"token_type":   "bearer",
			"scope":        "repo",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, states oauth.StateStore) *oauth.Service {
	t.Helper()
	srv := tokenServer(t, "good-code")
	return oauth.NewService(oauth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      "https://auth.example.test/authorize",
		TokenURL:     srv.URL,
	}, states, slog.Default())
}

// ─── LoginURL ────────────────────────────────────────────────────────────────

func TestLoginURL_CarriesClientAndStoredState(t *testing.T) {
	states := newMemStates()
	svc := newService(t, states)

	raw, err := svc.LoginURL(context.Background())
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "auth.example.test", u.Host)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "repo", q.Get("scope"))
	require.NotEmpty(t, q.Get("state"))
	assert.True(t, states.states[q.Get("state")])
}

// ─── Exchange ────────────────────────────────────────────────────────────────

func TestExchange_ReturnsAccessToken(t *testing.T) {
	svc := newService(t, nil)

	tok, err := svc.Exchange(context.Background(), "good-code", "")

	require.NoError(t, err)
	assert.Equal(t, "gho_exchanged", tok)
}

func TestExchange_MissingCode(t *testing.T) {
	svc := newService(t, nil)

	_, err := svc.Exchange(context.Background(), "", "")

	assert.ErrorIs(t, err, oauth.ErrMissingCode)
}

func TestExchange_RejectedCode(t *testing.T) {
	svc := newService(t, nil)

	_, err := svc.Exchange(context.Background(), "bad-code", "")

	var exErr *oauth.ExchangeError
	assert.ErrorAs(t, err, &exErr)
}

func TestExchange_IssuedState_ConsumedOnce(t *testing.T) {
	states := newMemStates()
	svc := newService(t, states)
	require.NoError(t, states.Save(context.Background(), "s1"))

	_, err := svc.Exchange(context.Background(), "good-code", "s1")
	require.NoError(t, err)

	_, err = svc.Exchange(context.Background(), "good-code", "s1")
	assert.ErrorIs(t, err, oauth.ErrUnknownState)
}

func TestExchange_StateIgnoredWithoutStore(t *testing.T) {
	svc := newService(t, nil)

	_, err := svc.Exchange(context.Background(), "good-code", "anything")

	assert.NoError(t, err)
}

func TestExchange_MissingStateWithStore_Rejected(t *testing.T) {
	states := newMemStates()
	svc := newService(t, states)
	require.NoError(t, states.Save(context.Background(), "s1"))

	tok, err := svc.Exchange(context.Background(), "good-code", "")

	assert.ErrorIs(t, err, oauth.ErrUnknownState)
	assert.Empty(t, tok)
	assert.True(t, states.states["s1"], "issued state must survive a stateless callback")
}
