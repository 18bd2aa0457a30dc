package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	mocks "github.com/twpol/personalmissioncontrol/internal/mocks/auth"
)

func TestAccountContext_Load_SoftMiss(t *testing.T) {
	store := mocks.NewMemoryAccountStore()
	acctCtx := NewAccountContext(store, domainauth.Principal{})

	props, ok := acctCtx.Load(context.Background(), "microsoft:missing")

	assert.False(t, ok)
	assert.Nil(t, props)
}

func TestAccountContext_Load_CachesWithinRequest(t *testing.T) {
	store := mocks.NewMemoryAccountStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "microsoft:user-1", bearerProps("tok-1")))

	acctCtx := NewAccountContext(store, domainauth.Principal{})

	props, ok := acctCtx.Load(ctx, "microsoft:user-1")
	require.True(t, ok)
	assert.Equal(t, "tok-1", props.AccessToken())

	// A store-side change is not observed within the same request scope.
	require.NoError(t, store.Put(ctx, "microsoft:user-1", bearerProps("tok-2")))

	props, ok = acctCtx.Load(ctx, "microsoft:user-1")
	require.True(t, ok)
	assert.Equal(t, "tok-1", props.AccessToken())
}

func TestAccountContext_Set_PersistsAndCaches(t *testing.T) {
	store := mocks.NewMemoryAccountStore()
	ctx := context.Background()
	acctCtx := NewAccountContext(store, domainauth.Principal{})

	require.NoError(t, acctCtx.Set(ctx, "exist:user-9", bearerProps("tok-ex")))

	stored, err := store.Get(ctx, "exist:user-9")
	require.NoError(t, err)
	assert.Equal(t, "tok-ex", stored.AccessToken())

	cached, ok := acctCtx.Load(ctx, "exist:user-9")
	require.True(t, ok)
	assert.Equal(t, "tok-ex", cached.AccessToken())
}

func TestAccountContext_Remove_AbsentIsNoOp(t *testing.T) {
	store := mocks.NewMemoryAccountStore()
	acctCtx := NewAccountContext(store, domainauth.Principal{})

	assert.NoError(t, acctCtx.Remove(context.Background(), "microsoft:missing"))
}

func TestAccountContext_Remove_EvictsCache(t *testing.T) {
	store := mocks.NewMemoryAccountStore()
	ctx := context.Background()
	acctCtx := NewAccountContext(store, domainauth.Principal{})

	require.NoError(t, acctCtx.Set(ctx, "microsoft:user-1", bearerProps("tok")))
	require.NoError(t, acctCtx.Remove(ctx, "microsoft:user-1"))

	_, ok := acctCtx.Load(ctx, "microsoft:user-1")
	assert.False(t, ok)
}

func TestAccountContext_AccountIDFor(t *testing.T) {
	principal := domainauth.Principal{Identities: []domainauth.Identity{
		{Scheme: "microsoft", Subject: "user-1"},
	}}
	acctCtx := NewAccountContext(mocks.NewMemoryAccountStore(), principal)

	id, ok := acctCtx.AccountIDFor("microsoft")
	require.True(t, ok)
	assert.Equal(t, "microsoft:user-1", id)

	_, ok = acctCtx.AccountIDFor("exist")
	assert.False(t, ok)
}
