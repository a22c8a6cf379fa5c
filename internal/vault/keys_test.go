package vault

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

// ---- gating ----

func TestKeyService_AllOperationsGatedWhileLocked(t *testing.T) {
	e := initializedEngine(t)
	ctx := context.Background()

	_, err := e.keys.Create(ctx, "GitHub", "Token", []byte("v"), "", "")
	assert.ErrorIs(t, err, common.ErrVaultLocked)

	_, err = e.keys.Get(ctx, "GitHub", "Token")
	assert.ErrorIs(t, err, common.ErrVaultLocked)

	_, err = e.keys.List(ctx)
	assert.ErrorIs(t, err, common.ErrVaultLocked)

	_, err = e.keys.Search(ctx, "git")
	assert.ErrorIs(t, err, common.ErrVaultLocked)

	err = e.keys.Update(ctx, "some-id", models.CredentialPatch{Description: strptr("x")})
	assert.ErrorIs(t, err, common.ErrVaultLocked)

	_, err = e.keys.Delete(ctx, "some-id")
	assert.ErrorIs(t, err, common.ErrVaultLocked)

	// nothing reached the database
	var count int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM credentials`).Scan(&count))
	assert.Zero(t, count)
}

// ---- create / get ----

func TestCreateAndGet_RoundTrip(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	id, err := e.keys.Create(ctx, "GitHub", "Token", []byte("gh-secret"), "https://api.github.com", "personal token")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	cred, err := e.keys.Get(ctx, "GitHub", "Token")
	require.NoError(t, err)
	assert.Equal(t, id, cred.ID)
	assert.Equal(t, "GitHub", cred.AppName)
	assert.Equal(t, "Token", cred.KeyName)
	assert.Equal(t, "https://api.github.com", cred.APIURL)
	assert.Equal(t, "personal token", cred.Description)
	assert.Equal(t, []byte("gh-secret"), cred.Value)
}

func TestCreate_NeverPersistsPlaintext(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	_, err := e.keys.Create(ctx, "GitHub", "Token", []byte("gh-secret"), "", "")
	require.NoError(t, err)

	var stored []byte
	require.NoError(t, e.db.QueryRow(`SELECT encrypted_value FROM credentials`).Scan(&stored))
	assert.NotContains(t, string(stored), "gh-secret")
}

func TestCreate_DuplicatePair(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	_, err := e.keys.Create(ctx, "GitHub", "Token", []byte("v1"), "", "")
	require.NoError(t, err)

	_, err = e.keys.Create(ctx, "GitHub", "Token", []byte("v2"), "", "")
	assert.ErrorIs(t, err, common.ErrDuplicateKey)

	_, err = e.keys.Create(ctx, "GitHub", "Token2", []byte("v2"), "", "")
	require.NoError(t, err)
}

func TestGet_NotFound(t *testing.T) {
	e := unlockedEngine(t)

	_, err := e.keys.Get(context.Background(), "Nope", "Missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGet_CorruptedCiphertext(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	_, err := e.keys.Create(ctx, "GitHub", "Token", []byte("gh-secret"), "", "")
	require.NoError(t, err)

	// flip a stored ciphertext byte behind the engine's back
	_, err = e.db.Exec(`UPDATE credentials SET encrypted_value = X'00'`)
	require.NoError(t, err)

	_, err = e.keys.Get(ctx, "GitHub", "Token")
	assert.ErrorIs(t, err, common.ErrCorrupted)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}

// ---- list / search ----

func TestList_OrderedAndEmpty(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	items, err := e.keys.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = e.keys.Create(ctx, "GitHub", "Token", []byte("a"), "", "")
	require.NoError(t, err)
	_, err = e.keys.Create(ctx, "AWS", "prod-key", []byte("b"), "", "")
	require.NoError(t, err)
	_, err = e.keys.Create(ctx, "AWS", "dev-key", []byte("c"), "", "")
	require.NoError(t, err)

	items, err = e.keys.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"AWS", "AWS", "GitHub"},
		[]string{items[0].AppName, items[1].AppName, items[2].AppName})
	assert.Equal(t, "dev-key", items[0].KeyName)
	assert.Equal(t, "prod-key", items[1].KeyName)
}

func TestSearch(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	_, err := e.keys.Create(ctx, "GitHub", "Token", []byte("a"), "", "CI deploy token")
	require.NoError(t, err)
	_, err = e.keys.Create(ctx, "AWS", "prod-key", []byte("b"), "", "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"empty query returns all", "", 2},
		{"match app name case-insensitively", "github", 1},
		{"match key name", "prod", 1},
		{"match description", "deploy", 1},
		{"no match", "zzz", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items, err := e.keys.Search(ctx, tc.query)
			require.NoError(t, err)
			assert.Len(t, items, tc.want)
		})
	}
}

// ---- update ----

func TestUpdate_MetadataOnlyKeepsCiphertext(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	id, err := e.keys.Create(ctx, "GitHub", "Token", []byte("gh-secret"), "", "old")
	require.NoError(t, err)

	before, err := e.keys.Get(ctx, "GitHub", "Token")
	require.NoError(t, err)
	saltBefore := recordSalt(t, e.db, "GitHub", "Token")

	e.clock.Advance(time.Minute)
	require.NoError(t, e.keys.Update(ctx, id, models.CredentialPatch{APIURL: strptr("https://x")}))

	after, err := e.keys.Get(ctx, "GitHub", "Token")
	require.NoError(t, err)

	assert.Equal(t, "https://x", after.APIURL)
	assert.Equal(t, "old", after.Description, "unset fields keep their values")
	assert.Equal(t, before.Value, after.Value)
	assert.Equal(t, saltBefore, recordSalt(t, e.db, "GitHub", "Token"), "metadata updates must not rotate the salt")
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestUpdate_ValueRotatesSalt(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	id, err := e.keys.Create(ctx, "GitHub", "Token", []byte("old-secret"), "", "")
	require.NoError(t, err)
	saltBefore := recordSalt(t, e.db, "GitHub", "Token")

	require.NoError(t, e.keys.Update(ctx, id, models.CredentialPatch{Value: []byte("new-secret")}))

	assert.NotEqual(t, saltBefore, recordSalt(t, e.db, "GitHub", "Token"), "value changes must rotate the entry salt")

	cred, err := e.keys.Get(ctx, "GitHub", "Token")
	require.NoError(t, err)
	assert.Equal(t, []byte("new-secret"), cred.Value)
}

func TestUpdate_ClearFieldWithEmptyString(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	id, err := e.keys.Create(ctx, "GitHub", "Token", []byte("v"), "https://x", "desc")
	require.NoError(t, err)

	require.NoError(t, e.keys.Update(ctx, id, models.CredentialPatch{Description: strptr("")}))

	cred, err := e.keys.Get(ctx, "GitHub", "Token")
	require.NoError(t, err)
	assert.Empty(t, cred.Description, "a pointer to empty string clears the field")
	assert.Equal(t, "https://x", cred.APIURL)
}

func TestUpdate_NotFound(t *testing.T) {
	e := unlockedEngine(t)

	err := e.keys.Update(context.Background(), "missing", models.CredentialPatch{Description: strptr("x")})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// ---- delete ----

func TestDelete_ReturnsMetadata(t *testing.T) {
	e := unlockedEngine(t)
	ctx := context.Background()

	id, err := e.keys.Create(ctx, "GitHub", "Token", []byte("v"), "", "to be removed")
	require.NoError(t, err)

	meta, err := e.keys.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "GitHub", meta.AppName)
	assert.Equal(t, "Token", meta.KeyName)
	assert.Equal(t, "to be removed", meta.Description)

	_, err = e.keys.Get(ctx, "GitHub", "Token")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = e.keys.Delete(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// ---- end to end ----

func TestEndToEndScenario(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.auth.Initialize(ctx, []byte("123456")))
	require.NoError(t, e.auth.Unlock(ctx, []byte("123456")))

	_, err := e.keys.Create(ctx, "AWS", "prod-key", []byte("secretval"), "", "")
	require.NoError(t, err)

	items, err := e.keys.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "AWS", items[0].AppName)
	assert.Equal(t, "prod-key", items[0].KeyName)

	cred, err := e.keys.Get(ctx, "AWS", "prod-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("secretval"), cred.Value)

	e.auth.Lock(ctx)

	_, err = e.keys.Get(ctx, "AWS", "prod-key")
	assert.ErrorIs(t, err, common.ErrVaultLocked)
}
