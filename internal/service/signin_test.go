package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	apperrors "github.com/twpol/personalmissioncontrol/internal/errors"
	mocks "github.com/twpol/personalmissioncontrol/internal/mocks/auth"
)

// mockPrincipalStore is a test helper for principal store error paths.
type mockPrincipalStore struct {
	getFunc    func(context.Context, string) (domainauth.Principal, error)
	saveFunc   func(context.Context, string, domainauth.Principal) error
	deleteFunc func(context.Context, string) error
}

func (m *mockPrincipalStore) Get(ctx context.Context, id string) (domainauth.Principal, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domainauth.Principal{}, nil
}

func (m *mockPrincipalStore) Save(ctx context.Context, id string, p domainauth.Principal) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, id, p)
	}
	return nil
}

func (m *mockPrincipalStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func newSignInFixture() (*SignInService, *mocks.MemoryAccountStore, *mocks.MemoryPrincipalStore) {
	accounts := mocks.NewMemoryAccountStore()
	principals := mocks.NewMemoryPrincipalStore()
	svc := NewSignInService(SignInServiceOptions{Principals: principals})
	return svc, accounts, principals
}

func microsoftIdentity() domainauth.Identity {
	return domainauth.Identity{
		Scheme:  "microsoft",
		Subject: "user-1",
		Name:    "Test User",
		Email:   "test.user@example.com",
	}
}

func bearerProps(token string) domainauth.TokenProperties {
	return domainauth.TokenProperties{
		domainauth.PropAccessToken: token,
		domainauth.PropTokenType:   "Bearer",
	}
}

func TestSignInService_Authenticate_EmptySession(t *testing.T) {
	svc, _, _ := newSignInFixture()

	principal := svc.Authenticate(context.Background(), "")

	assert.Empty(t, principal.Identities)
}

func TestSignInService_Authenticate_MissingState(t *testing.T) {
	svc, _, _ := newSignInFixture()

	principal := svc.Authenticate(context.Background(), "session-1")

	assert.Empty(t, principal.Identities)
}

func TestSignInService_Authenticate_CorruptState(t *testing.T) {
	principals := &mockPrincipalStore{
		getFunc: func(context.Context, string) (domainauth.Principal, error) {
			return domainauth.Principal{}, errors.New("unmarshal failed")
		},
	}
	svc := NewSignInService(SignInServiceOptions{Principals: principals})

	principal := svc.Authenticate(context.Background(), "session-1")

	assert.Empty(t, principal.Identities)
}

func TestSignInService_Authenticate_RoundTrip(t *testing.T) {
	svc, accountStore, _ := newSignInFixture()
	ctx := context.Background()

	acctCtx := NewAccountContext(accountStore, domainauth.Principal{})
	require.NoError(t, svc.SignIn(ctx, "session-1", acctCtx, microsoftIdentity(), bearerProps("tok-1")))

	principal := svc.Authenticate(ctx, "session-1")

	require.Len(t, principal.Identities, 1)
	assert.Equal(t, "microsoft", principal.Identities[0].Scheme)
	assert.Equal(t, "user-1", principal.Identities[0].Subject)
}

func TestSignInService_SignIn_ValidationErrors(t *testing.T) {
	svc, accountStore, _ := newSignInFixture()
	ctx := context.Background()
	acctCtx := NewAccountContext(accountStore, domainauth.Principal{})

	err := svc.SignIn(ctx, "", acctCtx, microsoftIdentity(), bearerProps("tok"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	err = svc.SignIn(ctx, "session-1", acctCtx, domainauth.Identity{Scheme: "microsoft"}, bearerProps("tok"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSignInService_SignIn_CommitsAccount(t *testing.T) {
	svc, accountStore, _ := newSignInFixture()
	ctx := context.Background()
	acctCtx := NewAccountContext(accountStore, domainauth.Principal{})

	require.NoError(t, svc.SignIn(ctx, "session-1", acctCtx, microsoftIdentity(), bearerProps("tok-1")))

	props, err := accountStore.Get(ctx, "microsoft:user-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", props.AccessToken())
}

func TestSignInService_SignInThenSignOut_RemovesBoth(t *testing.T) {
	svc, accountStore, _ := newSignInFixture()
	ctx := context.Background()
	acctCtx := NewAccountContext(accountStore, domainauth.Principal{})

	require.NoError(t, svc.SignIn(ctx, "session-1", acctCtx, microsoftIdentity(), bearerProps("tok-1")))
	require.NoError(t, svc.SignOut(ctx, "session-1", acctCtx, "microsoft:user-1"))

	principal := svc.Authenticate(ctx, "session-1")
	assert.Empty(t, principal.Identities)

	_, err := accountStore.Get(ctx, "microsoft:user-1")
	assert.Equal(t, mocks.ErrNotFound, err)
}

func TestSignInService_TwoProviders_Independent(t *testing.T) {
	svc, accountStore, _ := newSignInFixture()
	ctx := context.Background()
	acctCtx := NewAccountContext(accountStore, domainauth.Principal{})

	existIdentity := domainauth.Identity{Scheme: "exist", Subject: "user-9"}

	require.NoError(t, svc.SignIn(ctx, "session-1", acctCtx, microsoftIdentity(), bearerProps("tok-ms")))
	require.NoError(t, svc.SignIn(ctx, "session-1", acctCtx, existIdentity, bearerProps("tok-ex")))

	principal := svc.Authenticate(ctx, "session-1")
	require.Len(t, principal.Identities, 2)

	// Signing out one provider leaves the other untouched.
	require.NoError(t, svc.SignOut(ctx, "session-1", acctCtx, "microsoft:user-1"))

	principal = svc.Authenticate(ctx, "session-1")
	require.Len(t, principal.Identities, 1)
	assert.Equal(t, "exist", principal.Identities[0].Scheme)

	_, err := accountStore.Get(ctx, "exist:user-9")
	assert.NoError(t, err)
}

func TestSignInService_ReSignIn_SingleIdentity(t *testing.T) {
	svc, accountStore, _ := newSignInFixture()
	ctx := context.Background()
	acctCtx := NewAccountContext(accountStore, domainauth.Principal{})

	require.NoError(t, svc.SignIn(ctx, "session-1", acctCtx, microsoftIdentity(), bearerProps("tok-old")))
	require.NoError(t, svc.SignIn(ctx, "session-1", acctCtx, microsoftIdentity(), bearerProps("tok-new")))

	principal := svc.Authenticate(ctx, "session-1")
	require.Len(t, principal.Identities, 1)

	props, err := accountStore.Get(ctx, "microsoft:user-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-new", props.AccessToken())
}

func TestSignInService_SignOut_AbsentAccountIsNoOp(t *testing.T) {
	svc, accountStore, _ := newSignInFixture()
	ctx := context.Background()
	acctCtx := NewAccountContext(accountStore, domainauth.Principal{})

	err := svc.SignOut(ctx, "session-1", acctCtx, "microsoft:never-signed-in")

	assert.NoError(t, err)
}

func TestSignInService_SignIn_PrincipalSaveError(t *testing.T) {
	principals := &mockPrincipalStore{
		saveFunc: func(context.Context, string, domainauth.Principal) error {
			return errors.New("store down")
		},
	}
	svc := NewSignInService(SignInServiceOptions{Principals: principals})
	accountStore := mocks.NewMemoryAccountStore()
	acctCtx := NewAccountContext(accountStore, domainauth.Principal{})

	err := svc.SignIn(context.Background(), "session-1", acctCtx, microsoftIdentity(), bearerProps("tok"))

	require.Error(t, err)
	// The account must not be committed when the principal save failed.
	_, getErr := accountStore.Get(context.Background(), "microsoft:user-1")
	assert.Equal(t, mocks.ErrNotFound, getErr)
}

func TestSignInService_SignOutAll(t *testing.T) {
	svc, accountStore, _ := newSignInFixture()
	ctx := context.Background()
	acctCtx := NewAccountContext(accountStore, domainauth.Principal{})

	require.NoError(t, svc.SignIn(ctx, "session-1", acctCtx, microsoftIdentity(), bearerProps("tok-ms")))
	require.NoError(t, svc.SignIn(ctx, "session-1", acctCtx, domainauth.Identity{Scheme: "exist", Subject: "u"}, bearerProps("tok-ex")))

	require.NoError(t, svc.SignOutAll(ctx, "session-1", acctCtx))

	assert.Empty(t, svc.Authenticate(ctx, "session-1").Identities)
	ids, err := accountStore.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
