package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminAndVerifyLogin(t *testing.T) {
	svc, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, svc.EnsureAdmin())

	id, err := svc.VerifyLogin(DefaultAdminUser, DefaultAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminUser, id.Username)
	assert.Equal(t, RoleAdmin, id.Role)
	assert.True(t, id.Admin())

	// Seeding is idempotent.
	require.NoError(t, svc.EnsureAdmin())
	_, err = svc.VerifyLogin(DefaultAdminUser, DefaultAdminPassword)
	assert.NoError(t, err)
}

func TestVerifyLoginFailuresAreUniform(t *testing.T) {
	svc, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, svc.EnsureAdmin())

	_, err = svc.VerifyLogin("admin", "wrong")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.VerifyLogin("nobody", "whatever")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.VerifyLogin("", "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCreateAndLoginNewAccount(t *testing.T) {
	dir := t.TempDir()
	svc, err := New(dir)
	require.NoError(t, err)

	acc, err := svc.Create(" MLopez ", "Marta Lopez", "user", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "mlopez", acc.Username)
	assert.Equal(t, RoleUser, acc.Role)
	assert.NotEqual(t, "s3cret", acc.PasswordHash)

	id, err := svc.VerifyLogin("mlopez", "s3cret")
	require.NoError(t, err)
	assert.False(t, id.Admin())

	// Duplicate usernames are rejected, not merged.
	_, err = svc.Create("mlopez", "Other", "admin", "x")
	assert.ErrorIs(t, err, ErrAccountExists)

	// The account survives a reload from disk.
	svc2, err := New(dir)
	require.NoError(t, err)
	_, err = svc2.VerifyLogin("mlopez", "s3cret")
	assert.NoError(t, err)
}

func TestCreateRequiresUsername(t *testing.T) {
	svc, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = svc.Create("   ", "Anon", "user", "pw")
	assert.ErrorIs(t, err, ErrUsernameRequired)
}

func TestLegacyPlaintextPasswordsMigrateOnLoad(t *testing.T) {
	dir := t.TempDir()
	legacy := "username,full_name,role,password,status\nadmin,Administrator,ADMIN,oldpw,ACTIVE\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte(legacy), 0o644))

	svc, err := New(dir)
	require.NoError(t, err)

	id, err := svc.VerifyLogin("admin", "oldpw")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, id.Role)

	// The rewritten file carries hashes, not the plaintext password.
	b, err := os.ReadFile(filepath.Join(dir, "accounts.csv"))
	require.NoError(t, err)
	content := string(b)
	assert.True(t, strings.HasPrefix(content, strings.Join(accountFields, ",")))
	assert.NotContains(t, content, "oldpw")
}
