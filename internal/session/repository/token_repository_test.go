package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cumbre/internal/errors"
	"cumbre/internal/testutil"
)

// Unit Tests

func TestNewMySQLTokenRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLTokenRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

// Integration Tests

func TestTokenRepository_SaveAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLTokenRepository(db)
	ctx := context.Background()

	expires := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	err := repo.Save(ctx, StoredToken{SessionID: "sess-1", Token: "tok-1", UserID: 8, ExpiresAt: &expires})
	require.NoError(t, err)

	st, err := repo.FindBySessionID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", st.Token)
	assert.Equal(t, 8, st.UserID)
	require.NotNil(t, st.ExpiresAt)
	assert.True(t, expires.Equal(st.ExpiresAt.UTC()))
	assert.False(t, st.CreatedAt.IsZero())
}

func TestTokenRepository_SaveOverwrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLTokenRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, StoredToken{SessionID: "sess-1", Token: "old", UserID: 1}))
	require.NoError(t, repo.Save(ctx, StoredToken{SessionID: "sess-1", Token: "new", UserID: 2}))

	st, err := repo.FindBySessionID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "new", st.Token)
	assert.Equal(t, 2, st.UserID)
	assert.Nil(t, st.ExpiresAt)
}

func TestTokenRepository_FindNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLTokenRepository(db)

	st, err := repo.FindBySessionID(context.Background(), "missing")
	assert.Error(t, err)
	assert.Nil(t, st)

	nfe, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.NotNil(t, nfe)
}

func TestTokenRepository_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLTokenRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, StoredToken{SessionID: "sess-1", Token: "tok"}))
	require.NoError(t, repo.Delete(ctx, "sess-1"))
	require.NoError(t, repo.Delete(ctx, "sess-1"))

	_, err := repo.FindBySessionID(ctx, "sess-1")
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	require.NoError(t, repo.Save(ctx, StoredToken{SessionID: "expired", Token: "a", ExpiresAt: &past}))
	require.NoError(t, repo.Save(ctx, StoredToken{SessionID: "valid", Token: "b", ExpiresAt: &future}))
	require.NoError(t, repo.Save(ctx, StoredToken{SessionID: "opaque", Token: "c"}))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindBySessionID(ctx, "valid")
	assert.NoError(t, err)
	_, err = repo.FindBySessionID(ctx, "opaque")
	assert.NoError(t, err)
}
