package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/token"
)

func TestAccessTokenAuthenticator(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("issue and verify", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewAccessTokenAuthenticator(f.deps())

		raw, err := a.IssueToken(ctx, f.user.AuthID(), "cli")
		require.NoError(t, err)

		stored, err := f.store.FindIdentitiesByOwner(ctx, f.user.AuthID(), TypeAccessToken)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, token.Hash(raw), stored[0].Secret)
		assert.Equal(t, "cli", stored[0].Name)

		res := a.Attempt(ctx, Credentials{CredentialToken: raw})
		require.True(t, res.OK(), res.Reason())
		assert.Equal(t, stored[0].ID, a.CurrentIdentity().ID)

		attempts := f.attempts.All()
		require.Len(t, attempts, 1)
		assert.Equal(t, AttemptTypeAccessToken, attempts[0].IDType)
		assert.NotEqual(t, raw, attempts[0].Identifier)
	})

	t.Run("missing and unknown", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewAccessTokenAuthenticator(f.deps())

		assert.ErrorIs(t, a.Check(ctx, Credentials{}).Err(), ErrNoToken)
		assert.ErrorIs(t, a.Check(ctx, Credentials{CredentialToken: "nope"}).Err(), ErrBadToken)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewAccessTokenAuthenticator(f.deps(), WithAccessTokenTTL(time.Hour))
		raw, err := a.IssueToken(ctx, f.user.AuthID(), "")
		require.NoError(t, err)

		f.clock.Advance(time.Hour)
		assert.ErrorIs(t, a.Check(ctx, Credentials{CredentialToken: raw}).Err(), ErrOldToken)
	})

	t.Run("idle expiry resets on use", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewAccessTokenAuthenticator(f.deps(), WithAccessTokenIdleLifetime(2*time.Hour))
		raw, err := a.IssueToken(ctx, f.user.AuthID(), "")
		require.NoError(t, err)

		f.clock.Advance(90 * time.Minute)
		require.True(t, a.Check(ctx, Credentials{CredentialToken: raw}).OK())
		f.clock.Advance(90 * time.Minute)
		require.True(t, a.Check(ctx, Credentials{CredentialToken: raw}).OK())
		f.clock.Advance(3 * time.Hour)
		assert.ErrorIs(t, a.Check(ctx, Credentials{CredentialToken: raw}).Err(), ErrOldToken)
	})

	t.Run("revoke", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewAccessTokenAuthenticator(f.deps())
		raw, err := a.IssueToken(ctx, f.user.AuthID(), "")
		require.NoError(t, err)

		assert.ErrorIs(t, a.RevokeAccessToken(ctx, "other", raw), ErrIdentityNotFound)
		require.NoError(t, a.RevokeAccessToken(ctx, f.user.AuthID(), raw))
		assert.ErrorIs(t, a.Check(ctx, Credentials{CredentialToken: raw}).Err(), ErrBadToken)
	})
}

func TestAccessTokenAuthenticator_RevokedDuringCheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	store := &raceStore{MemoryStore: f.store}
	deps := f.deps()
	deps.Store = store
	a := NewAccessTokenAuthenticator(deps)

	raw, err := a.IssueToken(ctx, f.user.AuthID(), "cli")
	require.NoError(t, err)
	store.onResolve = func() {
		require.NoError(t, a.RevokeAccessToken(ctx, f.user.AuthID(), raw))
	}

	assert.ErrorIs(t, a.Check(ctx, Credentials{CredentialToken: raw}).Err(), ErrBadToken)

	_, err = f.store.FindIdentityByTypeAndSecret(ctx, TypeAccessToken, token.Hash(raw))
	assert.ErrorIs(t, err, ErrIdentityNotFound, "revoked token must not be written back")
	assert.ErrorIs(t, a.Check(ctx, Credentials{CredentialToken: raw}).Err(), ErrBadToken)
}
