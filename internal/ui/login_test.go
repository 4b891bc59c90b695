package ui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramops/bagdesk/internal/identity"
	"github.com/ramops/bagdesk/internal/prefs"
)

func TestLoginUppercasesBadge(t *testing.T) {
	m := newTestModel(t, nil, &fakeAuth{})
	require.Equal(t, screenLogin, m.current)
	require.Equal(t, loginBadge, m.login.focus)

	m = update(t, m, runes("ram0"))
	m = update(t, m, runes("42"))
	require.Equal(t, "RAM042", m.login.inputs[loginBadge].Value())
}

func TestLoginPrefillsLastBadge(t *testing.T) {
	m := New(Options{LastBadge: " ram042 "})
	require.Equal(t, "RAM042", m.login.inputs[loginBadge].Value())
	require.Equal(t, loginPassword, m.login.focus)
}

func TestLoginEnterMovesToEmptyPassword(t *testing.T) {
	auth := &fakeAuth{}
	m := newTestModel(t, nil, auth)
	m = update(t, m, runes("ram042"))

	m, _ = updateCmd(t, m, enterKey)
	require.Equal(t, loginPassword, m.login.focus)
	require.False(t, m.login.busy)
	require.Empty(t, auth.attempts)
}

func TestLoginBadCredentials(t *testing.T) {
	auth := &fakeAuth{err: identity.ErrInvalidCredentials}
	m := newTestModel(t, nil, auth)
	m = update(t, m, runes("ram042"))
	m = update(t, m, tabKey)
	m = update(t, m, runes("hunter2"))

	m, cmd := updateCmd(t, m, enterKey)
	require.True(t, m.login.busy)
	require.Contains(t, m.View(), "Connexion...")

	m, _ = run(t, m, cmd)
	require.Equal(t, screenLogin, m.current)
	require.False(t, m.login.busy)
	require.Equal(t, msgBadCredentials, m.login.err)
	require.Empty(t, m.login.inputs[loginPassword].Value())
	require.Equal(t, "RAM042", m.login.inputs[loginBadge].Value())
	require.Contains(t, m.View(), "Identifiants incorrects.")
	require.Equal(t, []string{"RAM042"}, auth.attempts)
}

func TestLoginSuccessOpensSearch(t *testing.T) {
	auth := &fakeAuth{}
	m := newTestModel(t, newFakeAPI(), auth)
	t.Cleanup(func() { m.shutdown() })

	m = update(t, m, runes("ram042"))
	m = update(t, m, tabKey)
	m = update(t, m, runes("hunter2"))
	m, cmd := updateCmd(t, m, enterKey)
	m, _ = run(t, m, cmd)

	require.Equal(t, screenVoyages, m.current)
	require.Empty(t, m.history)
	require.Equal(t, "ram042@ram.test", m.principal.Email)

	saved, err := prefs.Load(m.prefsPath)
	require.NoError(t, err)
	require.Equal(t, "RAM042", saved.LastBadge)
}

func TestLoginStaleResultDropped(t *testing.T) {
	auth := &fakeAuth{}
	m := newTestModel(t, nil, auth)
	m.login.busy = true

	m = update(t, m, signInMsg{gen: m.gen + 1, badge: "RAM042", principal: identity.Principal{Email: "ram042@ram.test"}})
	require.Equal(t, screenLogin, m.current)
	require.True(t, m.login.busy)
}

func TestSignOutReturnsToLogin(t *testing.T) {
	auth := &fakeAuth{}
	m := newTestModel(t, nil, auth)
	m, _ = signedIn(m, "ram042@ram.test", screenAdmin)
	m.lastBadge = "RAM042"

	m = update(t, m, runes("O"))
	require.Equal(t, screenLogin, m.current)
	require.Equal(t, 1, auth.signOuts)
	require.Empty(t, m.principal.Email)
	require.Equal(t, "RAM042", m.login.inputs[loginBadge].Value())
}
