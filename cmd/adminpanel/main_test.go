package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/adminpanel/internal/secrets"
)

// isolate points config, sessions and logs at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("ADMINPANEL_CONFIG", filepath.Join(home, "config.toml"))
	t.Setenv("ADMINPANEL_TOKEN", "")
	return home
}

func TestRunWithoutTokenReturnsError(t *testing.T) {
	home := isolate(t)

	err := run(nil)
	require.ErrorContains(t, err, "no API token")
	_, statErr := os.Stat(filepath.Join(home, ".local", "share", "adminpanel", "adminpanel.log"))
	require.NoError(t, statErr)
}

func TestRunRejectsExpiredToken(t *testing.T) {
	isolate(t)
	// {"alg":"HS256"} . {"exp":1} . sig
	t.Setenv("ADMINPANEL_TOKEN", "eyJhbGciOiJIUzI1NiJ9.eyJleHAiOjF9.c2ln")

	require.ErrorContains(t, run(nil), "expired")
}

func TestLogoutForgetsSessions(t *testing.T) {
	isolate(t)
	vault, err := secrets.Open("")
	require.NoError(t, err)
	require.NoError(t, vault.Put("default", secrets.Session{Token: "a"}))
	require.NoError(t, vault.Put("staging", secrets.Session{Token: "b"}))

	require.NoError(t, run([]string{"logout"}))
	names, err := vault.Profiles()
	require.NoError(t, err)
	require.Equal(t, []string{"staging"}, names)

	require.NoError(t, run([]string{"logout", "-all"}))
	names, err = vault.Profiles()
	require.NoError(t, err)
	require.Empty(t, names)
}
