package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHMACAuthenticator_CheckMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		creds Credentials
		want  error
	}{
		{name: "nil bundle", creds: nil, want: ErrNoToken},
		{name: "empty bundle", creds: Credentials{}, want: ErrNoToken},
		{name: "empty token", creds: Credentials{CredentialToken: "", CredentialBody: "x"}, want: ErrNoToken},
		{name: "no separator", creds: Credentials{CredentialToken: "abc123", CredentialBody: "bar"}, want: ErrBadToken},
		{name: "empty public part", creds: Credentials{CredentialToken: ":deadbeef"}, want: ErrBadToken},
		{name: "empty signature", creds: Credentials{CredentialToken: "abc123:"}, want: ErrBadToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &MockCredentialStore{}
			a := NewHMACAuthenticator(Dependencies{Store: store})

			res := a.Check(context.Background(), tt.creds)

			assert.False(t, res.OK())
			assert.ErrorIs(t, res.Err(), tt.want)
			store.AssertNotCalled(t, "FindIdentityByTypeAndSecret", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, store.Calls)
		})
	}
}

func TestHMACAuthenticator_Check(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unknown public key", func(t *testing.T) {
		t.Parallel()
		store := &MockCredentialStore{}
		store.On("FindIdentityByTypeAndSecret", mock.Anything, TypeHMAC, "abc123").
			Return(nil, ErrIdentityNotFound).Once()

		a := NewHMACAuthenticator(Dependencies{Store: store})
		res := a.Check(ctx, Credentials{CredentialToken: "abc123:lasdkjflksjdflksjdf", CredentialBody: "bar"})

		assert.ErrorIs(t, res.Err(), ErrBadToken)
		assert.Equal(t, "auth.bad_token", res.ReasonKey())
		store.AssertExpectations(t)
	})

	t.Run("wrong signature", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps())
		key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "foo")
		require.NoError(t, err)

		res := a.Check(ctx, Credentials{
			CredentialToken: SignRequest(key.Secret, "not-the-secret", []byte("bar")),
			CredentialBody:  "bar",
		})
		assert.ErrorIs(t, res.Err(), ErrBadToken)

		res = a.Check(ctx, Credentials{
			CredentialToken: SignRequest(key.Secret, key.Secret2, []byte("bar")),
			CredentialBody:  "baz",
		})
		assert.ErrorIs(t, res.Err(), ErrBadToken)
	})

	t.Run("stale after last use", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps())
		key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "foo")
		require.NoError(t, err)

		stored, err := f.store.FindIdentityByTypeAndSecret(ctx, TypeHMAC, key.Secret)
		require.NoError(t, err)
		lastUsed := f.clock.Now().Add(-DefaultUnusedTokenLifetime - time.Hour)
		stored.LastUsedAt = &lastUsed
		require.NoError(t, f.store.SaveIdentity(ctx, stored))

		res := a.Check(ctx, Credentials{
			CredentialToken: SignRequest(key.Secret, key.Secret2, []byte("bar")),
			CredentialBody:  "bar",
		})
		assert.ErrorIs(t, res.Err(), ErrOldToken)
	})

	t.Run("stale when never used since issuance", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps(), WithUnusedTokenLifetime(24*time.Hour))
		key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "foo")
		require.NoError(t, err)

		f.clock.Advance(25 * time.Hour)
		res := a.Check(ctx, Credentials{
			CredentialToken: SignRequest(key.Secret, key.Secret2, []byte("bar")),
			CredentialBody:  "bar",
		})
		assert.ErrorIs(t, res.Err(), ErrOldToken)
	})

	t.Run("hard expiry", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps())
		key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "foo")
		require.NoError(t, err)

		stored, err := f.store.FindIdentityByTypeAndSecret(ctx, TypeHMAC, key.Secret)
		require.NoError(t, err)
		exp := f.clock.Now().Add(time.Minute)
		stored.Expires = &exp
		require.NoError(t, f.store.SaveIdentity(ctx, stored))

		f.clock.Advance(time.Minute)
		res := a.Check(ctx, Credentials{
			CredentialToken: SignRequest(key.Secret, key.Secret2, []byte("bar")),
			CredentialBody:  "bar",
		})
		assert.ErrorIs(t, res.Err(), ErrOldToken)
	})

	t.Run("success stamps last use without logging in", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps())
		key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "foo")
		require.NoError(t, err)

		f.clock.Advance(time.Hour)
		res := a.Check(ctx, Credentials{
			CredentialToken: SignRequest(key.Secret, key.Secret2, []byte("bar")),
			CredentialBody:  "bar",
		})
		require.True(t, res.OK(), res.Reason())
		assert.Equal(t, f.user.AuthID(), res.Subject().AuthID())
		assert.Equal(t, key.ID, res.Identity().ID)
		assert.Empty(t, res.Identity().Secret2)

		stored, err := f.store.FindIdentityByTypeAndSecret(ctx, TypeHMAC, key.Secret)
		require.NoError(t, err)
		require.NotNil(t, stored.LastUsedAt)
		assert.True(t, stored.LastUsedAt.Equal(f.clock.Now()))

		assert.False(t, a.LoggedIn())
		assert.Empty(t, f.attempts.All())
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		t.Parallel()
		store := &MockCredentialStore{}
		store.On("FindIdentityByTypeAndSecret", mock.Anything, TypeHMAC, "abc").
			Return(nil, errors.New("connection refused")).Once()

		a := NewHMACAuthenticator(Dependencies{Store: store})
		res := a.Check(ctx, Credentials{CredentialToken: "abc:def"})
		assert.ErrorIs(t, res.Err(), ErrAuthUnavailable)
		store.AssertExpectations(t)
	})

	t.Run("last use save failure still succeeds", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		identity := NewIdentity(f.user.AuthID(), TypeHMAC, f.clock.Now())
		identity.Secret = "pub"
		identity.Secret2 = "priv"

		store := &MockCredentialStore{}
		store.On("FindIdentityByTypeAndSecret", mock.Anything, TypeHMAC, "pub").Return(identity, nil).Once()
		store.On("FindSubjectByID", mock.Anything, f.user.AuthID()).Return(f.user, nil).Once()
		store.On("TouchIdentity", mock.Anything, identity.ID, f.clock.Now()).Return(errors.New("read only")).Once()

		a := NewHMACAuthenticator(Dependencies{Store: store, Clock: f.clock})
		res := a.Check(ctx, Credentials{CredentialToken: SignRequest("pub", "priv", []byte("b")), CredentialBody: "b"})
		assert.True(t, res.OK())
		store.AssertExpectations(t)
	})
}

func TestHMACAuthenticator_ManyKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := NewHMACAuthenticator(f.deps())

	keys := make([]*Identity, 5)
	for i := range keys {
		k, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "key")
		require.NoError(t, err)
		keys[i] = k
	}

	for _, k := range keys {
		res := a.Check(ctx, Credentials{
			CredentialToken: SignRequest(k.Secret, k.Secret2, []byte("payload")),
			CredentialBody:  "payload",
		})
		require.True(t, res.OK(), res.Reason())
		assert.Equal(t, f.user.AuthID(), res.Subject().AuthID())
		assert.Equal(t, k.ID, res.Identity().ID)
	}

	// A valid signature under one key does not verify under another.
	res := a.Check(ctx, Credentials{
		CredentialToken: SignRequest(keys[0].Secret, keys[1].Secret2, []byte("payload")),
		CredentialBody:  "payload",
	})
	assert.ErrorIs(t, res.Err(), ErrBadToken)
}

func TestHMACAuthenticator_Attempt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("failure is recorded with public key only", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps())

		res := a.Attempt(ctx, Credentials{CredentialToken: "abc123:lsakdjfljsdflkajsfd", CredentialBody: "bar"})
		assert.ErrorIs(t, res.Err(), ErrBadToken)

		attempts := f.attempts.All()
		require.Len(t, attempts, 1)
		assert.Equal(t, AttemptTypeHMAC, attempts[0].IDType)
		assert.Equal(t, "abc123", attempts[0].Identifier)
		assert.NotContains(t, attempts[0].Identifier, "lsakdjfljsdflkajsfd")
		assert.False(t, attempts[0].Success)
		assert.Empty(t, attempts[0].UserID)
	})

	t.Run("malformed is still recorded", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps())

		a.Attempt(ctx, Credentials{CredentialToken: "nocolon"})
		a.Attempt(ctx, Credentials{})
		assert.Len(t, f.attempts.All(), 2)
	})

	t.Run("success logs in and records", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps())
		key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "foo")
		require.NoError(t, err)

		reqCtx := WithClientInfo(ctx, "10.0.0.1", "curl/8")
		res := a.Attempt(reqCtx, Credentials{
			CredentialToken: SignRequest(key.Secret, key.Secret2, []byte("bar")),
			CredentialBody:  "bar",
		})
		require.True(t, res.OK(), res.Reason())

		assert.True(t, a.LoggedIn())
		assert.Equal(t, f.user.AuthID(), a.User().AuthID())
		require.NotNil(t, a.CurrentIdentity())
		assert.Equal(t, key.ID, a.CurrentIdentity().ID)
		assert.Empty(t, a.CurrentIdentity().Secret2)

		attempts := f.attempts.All()
		require.Len(t, attempts, 1)
		assert.True(t, attempts[0].Success)
		assert.Equal(t, f.user.AuthID(), attempts[0].UserID)
		assert.Equal(t, "10.0.0.1", attempts[0].IP)
		assert.Equal(t, "curl/8", attempts[0].UserAgent)

		require.NoError(t, a.Logout(ctx))
		assert.False(t, a.LoggedIn())
		assert.Nil(t, a.CurrentIdentity())
	})

	t.Run("attempt log failure does not change result", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		deps := f.deps()
		deps.Attempts = AttemptLoggerFunc(func(context.Context, LoginAttempt) error {
			return errors.New("log down")
		})
		a := NewHMACAuthenticator(deps)
		key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "foo")
		require.NoError(t, err)

		res := a.Attempt(ctx, Credentials{
			CredentialToken: SignRequest(key.Secret, key.Secret2, nil),
		})
		assert.True(t, res.OK())
	})
}

func TestHMACAuthenticator_KeyManagement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("secret stored encrypted", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps(), WithKeyCipher(reversingCipher{}))
		key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "ci")
		require.NoError(t, err)
		assert.Equal(t, "ci", key.Name)
		assert.Len(t, key.Secret, 32)
		assert.Len(t, key.Secret2, 64)

		stored, err := f.store.FindIdentityByTypeAndSecret(ctx, TypeHMAC, key.Secret)
		require.NoError(t, err)
		assert.NotEqual(t, key.Secret2, stored.Secret2)
		assert.Equal(t, "enc:"+reverse(key.Secret2), stored.Secret2)

		res := a.Check(ctx, Credentials{
			CredentialToken: SignRequest(key.Secret, key.Secret2, []byte("x")),
			CredentialBody:  "x",
		})
		assert.True(t, res.OK(), res.Reason())
	})

	t.Run("revoke", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := NewHMACAuthenticator(f.deps())
		key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "foo")
		require.NoError(t, err)

		assert.ErrorIs(t, a.RevokeHMACKey(ctx, "someone-else", key.Secret), ErrIdentityNotFound)
		require.NoError(t, a.RevokeHMACKey(ctx, f.user.AuthID(), key.Secret))

		res := a.Check(ctx, Credentials{
			CredentialToken: SignRequest(key.Secret, key.Secret2, nil),
		})
		assert.ErrorIs(t, res.Err(), ErrBadToken)
	})
}

func TestHMACAuthenticator_RevokedDuringCheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	store := &raceStore{MemoryStore: f.store}
	deps := f.deps()
	deps.Store = store
	a := NewHMACAuthenticator(deps)

	key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "ci")
	require.NoError(t, err)
	store.onResolve = func() {
		require.NoError(t, a.RevokeHMACKey(ctx, f.user.AuthID(), key.Secret))
	}

	creds := Credentials{CredentialToken: SignRequest(key.Secret, key.Secret2, []byte("b")), CredentialBody: "b"}
	res := a.Check(ctx, creds)
	assert.ErrorIs(t, res.Err(), ErrBadToken)

	_, err = f.store.FindIdentityByTypeAndSecret(ctx, TypeHMAC, key.Secret)
	assert.ErrorIs(t, err, ErrIdentityNotFound, "revoked key must not be written back")
	assert.ErrorIs(t, a.Check(ctx, creds).Err(), ErrBadToken)
}

func TestHMACAuthenticator_TouchKeepsConcurrentChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	store := &raceStore{MemoryStore: f.store}
	deps := f.deps()
	deps.Store = store
	a := NewHMACAuthenticator(deps)

	key, err := a.GenerateHMACKey(ctx, f.user.AuthID(), "ci")
	require.NoError(t, err)
	store.onResolve = func() {
		stored, err := f.store.FindIdentityByTypeAndSecret(ctx, TypeHMAC, key.Secret)
		require.NoError(t, err)
		stored.ForceReset = true
		require.NoError(t, f.store.SaveIdentity(ctx, stored))
	}

	res := a.Check(ctx, Credentials{CredentialToken: SignRequest(key.Secret, key.Secret2, nil)})
	require.True(t, res.OK(), res.Reason())

	stored, err := f.store.FindIdentityByTypeAndSecret(ctx, TypeHMAC, key.Secret)
	require.NoError(t, err)
	assert.True(t, stored.ForceReset)
	require.NotNil(t, stored.LastUsedAt)
	assert.True(t, stored.LastUsedAt.Equal(f.clock.Now()))
}
