package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	mocks "github.com/twpol/personalmissioncontrol/internal/mocks/auth"
)

// tokenEndpointStub records refresh-token grant requests and serves a
// configurable response.
type tokenEndpointStub struct {
	mu       sync.Mutex
	calls    int
	lastForm map[string]string

	status   int
	response map[string]any
}

func (s *tokenEndpointStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.calls++
		s.lastForm = map[string]string{}
		for k := range r.PostForm {
			s.lastForm[k] = r.PostForm.Get(k)
		}
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		_ = json.NewEncoder(w).Encode(s.response)
	}
}

func (s *tokenEndpointStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *tokenEndpointStub) form() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastForm
}

type gateFixture struct {
	gate     *TokenGate
	accounts *mocks.MemoryAccountStore
	stub     *tokenEndpointStub
	now      time.Time
}

func newGateFixture(t *testing.T, stub *tokenEndpointStub) *gateFixture {
	t.Helper()

	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	accounts := mocks.NewMemoryAccountStore()
	gate := NewTokenGate(TokenGateOptions{
		Endpoints: map[string]TokenEndpoint{
			"microsoft": {
				ClientID:     "client-1",
				ClientSecret: "secret-1",
				TokenURL:     server.URL,
			},
		},
		HTTPClient: server.Client(),
		Now:        func() time.Time { return now },
	})
	return &gateFixture{gate: gate, accounts: accounts, stub: stub, now: now}
}

func (f *gateFixture) acctCtx() *AccountContext {
	principal := domainauth.Principal{Identities: []domainauth.Identity{
		{Scheme: "microsoft", Subject: "user-1"},
	}}
	return NewAccountContext(f.accounts, principal)
}

func (f *gateFixture) storeAccount(t *testing.T, props domainauth.TokenProperties) {
	t.Helper()
	require.NoError(t, f.accounts.Put(context.Background(), "microsoft:user-1", props))
}

func TestTokenGate_FreshToken_NoNetworkCall(t *testing.T) {
	stub := &tokenEndpointStub{status: http.StatusOK}
	f := newGateFixture(t, stub)

	props := domainauth.TokenProperties{
		domainauth.PropAccessToken:  "tok-fresh",
		domainauth.PropRefreshToken: "refresh-1",
	}
	props.SetExpiresAt(f.now.Add(time.Hour))
	f.storeAccount(t, props)

	creds, ok := f.gate.Credentials(context.Background(), f.acctCtx(), "microsoft")

	require.True(t, ok)
	assert.Equal(t, "tok-fresh", creds.AccessToken)
	assert.Equal(t, "Bearer", creds.TokenType)
	assert.Equal(t, 0, stub.callCount())
}

func TestTokenGate_MissingExpiryMetadata_PermissivelyValid(t *testing.T) {
	cases := map[string]domainauth.TokenProperties{
		"no expiry": {
			domainauth.PropAccessToken:  "tok",
			domainauth.PropRefreshToken: "refresh-1",
		},
		"no refresh token": {
			domainauth.PropAccessToken: "tok",
			domainauth.PropExpiresAt:   "2000-01-01T00:00:00Z",
		},
		"neither": {
			domainauth.PropAccessToken: "tok",
		},
	}

	for name, props := range cases {
		t.Run(name, func(t *testing.T) {
			stub := &tokenEndpointStub{status: http.StatusOK}
			f := newGateFixture(t, stub)
			f.storeAccount(t, props)

			creds, ok := f.gate.Credentials(context.Background(), f.acctCtx(), "microsoft")

			require.True(t, ok)
			assert.Equal(t, "tok", creds.AccessToken)
			assert.Equal(t, 0, stub.callCount())
		})
	}
}

func TestTokenGate_NearExpiry_RefreshesAndPersists(t *testing.T) {
	stub := &tokenEndpointStub{
		status: http.StatusOK,
		response: map[string]any{
			"access_token":  "tok-new",
			"refresh_token": "refresh-new",
			"expires_in":    3600,
		},
	}
	f := newGateFixture(t, stub)

	props := domainauth.TokenProperties{
		domainauth.PropAccessToken:  "tok-old",
		domainauth.PropRefreshToken: "refresh-old",
	}
	props.SetExpiresAt(f.now.Add(2 * time.Minute))
	f.storeAccount(t, props)

	creds, ok := f.gate.Credentials(context.Background(), f.acctCtx(), "microsoft")

	require.True(t, ok)
	assert.Equal(t, "tok-new", creds.AccessToken)
	assert.Equal(t, 1, stub.callCount())

	form := stub.form()
	assert.Equal(t, "client-1", form["client_id"])
	assert.Equal(t, "secret-1", form["client_secret"])
	assert.Equal(t, "refresh_token", form["grant_type"])
	assert.Equal(t, "refresh-old", form["refresh_token"])

	stored, err := f.accounts.Get(context.Background(), "microsoft:user-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-new", stored.AccessToken())
	assert.Equal(t, "refresh-new", stored.RefreshToken())

	expiresAt, hasExpiry := stored.ExpiresAt()
	require.True(t, hasExpiry)
	assert.WithinDuration(t, f.now.Add(time.Hour), expiresAt, time.Second)

	// The stored token is now fresh, so an immediate second call must not
	// hit the endpoint again.
	creds, ok = f.gate.Credentials(context.Background(), f.acctCtx(), "microsoft")
	require.True(t, ok)
	assert.Equal(t, "tok-new", creds.AccessToken)
	assert.Equal(t, 1, stub.callCount())
}

func TestTokenGate_RefreshWithoutLifetime_KeepsOldExpiry(t *testing.T) {
	stub := &tokenEndpointStub{
		status: http.StatusOK,
		response: map[string]any{
			"access_token":  "tok-new",
			"refresh_token": "refresh-new",
		},
	}
	f := newGateFixture(t, stub)

	props := domainauth.TokenProperties{
		domainauth.PropAccessToken:  "tok-old",
		domainauth.PropRefreshToken: "refresh-old",
	}
	oldExpiry := f.now.Add(time.Minute)
	props.SetExpiresAt(oldExpiry)
	f.storeAccount(t, props)

	_, ok := f.gate.Credentials(context.Background(), f.acctCtx(), "microsoft")
	require.True(t, ok)

	stored, err := f.accounts.Get(context.Background(), "microsoft:user-1")
	require.NoError(t, err)
	expiresAt, hasExpiry := stored.ExpiresAt()
	require.True(t, hasExpiry)
	assert.WithinDuration(t, oldExpiry, expiresAt, time.Second)
}

func TestTokenGate_RefreshRejected_DeletesAccount(t *testing.T) {
	stub := &tokenEndpointStub{
		status:   http.StatusBadRequest,
		response: map[string]any{"error": "invalid_grant"},
	}
	f := newGateFixture(t, stub)

	props := domainauth.TokenProperties{
		domainauth.PropAccessToken:  "tok-old",
		domainauth.PropRefreshToken: "refresh-old",
	}
	props.SetExpiresAt(f.now.Add(time.Minute))
	f.storeAccount(t, props)

	creds, ok := f.gate.Credentials(context.Background(), f.acctCtx(), "microsoft")

	assert.False(t, ok)
	assert.Empty(t, creds.AccessToken)
	assert.Equal(t, 1, stub.callCount())

	_, err := f.accounts.Get(context.Background(), "microsoft:user-1")
	assert.Equal(t, mocks.ErrNotFound, err)
}

func TestTokenGate_MalformedResponse_DeletesAccount(t *testing.T) {
	stub := &tokenEndpointStub{
		status:   http.StatusOK,
		response: map[string]any{"access_token": "tok-new"}, // no refresh_token
	}
	f := newGateFixture(t, stub)

	props := domainauth.TokenProperties{
		domainauth.PropAccessToken:  "tok-old",
		domainauth.PropRefreshToken: "refresh-old",
	}
	props.SetExpiresAt(f.now.Add(time.Minute))
	f.storeAccount(t, props)

	_, ok := f.gate.Credentials(context.Background(), f.acctCtx(), "microsoft")

	assert.False(t, ok)
	_, err := f.accounts.Get(context.Background(), "microsoft:user-1")
	assert.Equal(t, mocks.ErrNotFound, err)
}

func TestTokenGate_UnknownScheme(t *testing.T) {
	stub := &tokenEndpointStub{status: http.StatusOK}
	f := newGateFixture(t, stub)

	_, ok := f.gate.Credentials(context.Background(), f.acctCtx(), "exist")

	assert.False(t, ok)
	assert.Equal(t, 0, stub.callCount())
}

func TestTokenGate_AbsentAccount_SoftMiss(t *testing.T) {
	stub := &tokenEndpointStub{status: http.StatusOK}
	f := newGateFixture(t, stub)

	_, ok := f.gate.Credentials(context.Background(), f.acctCtx(), "microsoft")

	assert.False(t, ok)
	assert.Equal(t, 0, stub.callCount())
}

func TestTokenGate_ConcurrentRequests_SingleRefresh(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// Hold the exchange open long enough for all requests to pile up.
		time.Sleep(50 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "tok-new",
			"refresh_token": "refresh-new",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(server.Close)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	accounts := mocks.NewMemoryAccountStore()
	gate := NewTokenGate(TokenGateOptions{
		Endpoints: map[string]TokenEndpoint{
			"microsoft": {ClientID: "c", ClientSecret: "s", TokenURL: server.URL},
		},
		HTTPClient: server.Client(),
		Now:        func() time.Time { return now },
	})

	props := domainauth.TokenProperties{
		domainauth.PropAccessToken:  "tok-old",
		domainauth.PropRefreshToken: "refresh-old",
	}
	props.SetExpiresAt(now.Add(time.Minute))
	require.NoError(t, accounts.Put(context.Background(), "microsoft:user-1", props))

	principal := domainauth.Principal{Identities: []domainauth.Identity{
		{Scheme: "microsoft", Subject: "user-1"},
	}}
	acctCtx := NewAccountContext(accounts, principal)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := gate.Credentials(context.Background(), acctCtx, "microsoft")
			results[i] = ok
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "request %d should get credentials", i)
	}
	// The exchange must have been collapsed into a single call.
	assert.Equal(t, int32(1), calls.Load())
}
