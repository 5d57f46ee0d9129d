package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

func TestEmailVerificationStoreInsertAndFindByToken(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	evStore := NewEmailVerificationStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "ev@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	ev, err := evStore.Insert(ctx, EmailVerification{
		UserID: u.ID, Token: "verify-tok", ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)

	found, err := evStore.FindByToken(ctx, "verify-tok")
	require.NoError(t, err)
	assert.Equal(t, ev.ID, found.ID)
}

func TestEmailVerificationStoreInsertBatchRejectsEmpty(t *testing.T) {
	db := newTestDB(t)
	evStore := NewEmailVerificationStore(db, testLogger())

	_, err := evStore.InsertBatch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestEmailVerificationStoreInsertBatchRejectsOverCap(t *testing.T) {
	db := newTestDB(t)
	evStore := NewEmailVerificationStore(db, testLogger())

	rows := make([]EmailVerification, maxBatchSize+1)
	_, err := evStore.InsertBatch(context.Background(), rows)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestEmailVerificationStoreInsertBatchTransactional(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	evStore := NewEmailVerificationStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "batch@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	rows := []EmailVerification{
		{UserID: u.ID, Token: "batch-1", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		{UserID: u.ID, Token: "batch-2", ExpiresAt: time.Now().UTC().Add(time.Hour)},
	}
	inserted, err := evStore.InsertBatch(ctx, rows)
	require.NoError(t, err)
	assert.Len(t, inserted, 2)

	all, err := evStore.IndexByUser(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEmailVerificationStoreDeleteByIDsEmptyIsNoOp(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	evStore := NewEmailVerificationStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "noop@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)
	_, err = evStore.Insert(ctx, EmailVerification{UserID: u.ID, Token: "keep-me", ExpiresAt: time.Now().UTC().Add(time.Hour)})
	require.NoError(t, err)

	affected, err := evStore.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)

	remaining, err := evStore.IndexByUser(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestEmailVerificationStoreDeleteExpired(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	evStore := NewEmailVerificationStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "expired@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	_, err = evStore.Insert(ctx, EmailVerification{UserID: u.ID, Token: "old", ExpiresAt: time.Now().UTC().Add(-time.Hour)})
	require.NoError(t, err)
	_, err = evStore.Insert(ctx, EmailVerification{UserID: u.ID, Token: "fresh", ExpiresAt: time.Now().UTC().Add(time.Hour)})
	require.NoError(t, err)

	affected, err := evStore.DeleteExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	remaining, err := evStore.IndexByUser(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Token)
}

func TestEmailVerificationStoreMarkUsedThenDeleteUsed(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	evStore := NewEmailVerificationStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "used@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	ev, err := evStore.Insert(ctx, EmailVerification{UserID: u.ID, Token: "spend-me", ExpiresAt: time.Now().UTC().Add(time.Hour)})
	require.NoError(t, err)

	affected, err := evStore.MarkUsed(ctx, ev.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	deleted, err := evStore.DeleteUsed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestEmailVerificationStoreFindByID(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	evStore := NewEmailVerificationStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "findid@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	ev, err := evStore.Insert(ctx, EmailVerification{UserID: u.ID, Token: "findid-tok", ExpiresAt: time.Now().UTC().Add(time.Hour)})
	require.NoError(t, err)

	found, err := evStore.FindByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.Token, found.Token)

	_, err = evStore.FindByID(ctx, domain.NewRowID().String())
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestEmailVerificationStoreIndexAndIndexCursor(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	evStore := NewEmailVerificationStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "idx@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := evStore.Insert(ctx, EmailVerification{UserID: u.ID, Token: domain.NewRowID().String(), ExpiresAt: time.Now().UTC().Add(time.Hour)})
		require.NoError(t, err)
	}

	all, err := evStore.Index(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := evStore.IndexCursor(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := evStore.IndexCursor(ctx, 0, &Cursor{CreatedAt: page[1].CreatedAt.Unix(), ID: page[1].ID})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestEmailVerificationStoreFindByTokenNotFound(t *testing.T) {
	db := newTestDB(t)
	evStore := NewEmailVerificationStore(db, testLogger())

	_, err := evStore.FindByToken(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}
