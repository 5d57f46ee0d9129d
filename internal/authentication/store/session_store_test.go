package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

func TestSessionStoreInsertAndFindByToken(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	sessStore := NewSessionStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "sess@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	sess, err := sessStore.Insert(ctx, Session{
		UserID:       u.ID,
		LoggedInAt:   time.Now().UTC(),
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
		RefreshToken: "tok-1",
		IsActive:     true,
	})
	require.NoError(t, err)

	found, err := sessStore.FindByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
}

func TestSessionStoreRevokeSetsInactiveUnconditionally(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	sessStore := NewSessionStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "rev@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	sess, err := sessStore.Insert(ctx, Session{
		UserID: u.ID, LoggedInAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(time.Hour),
		RefreshToken: "tok-2", IsActive: false,
	})
	require.NoError(t, err)
	// IsActive carries default:true, so gorm stores a zero-value false as true.
	require.NoError(t, db.Model(&Session{}).Where("id = ?", sess.ID).Update("is_active", false).Error)

	ip := "203.0.113.5"
	affected, err := sessStore.RevokeByID(ctx, sess.ID, &ip)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	reloaded, err := sessStore.FindByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
	assert.NotNil(t, reloaded.LoggedOutAt)
}

func TestSessionStoreRevokeAllForUser(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	sessStore := NewSessionStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "multi@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := sessStore.Insert(ctx, Session{
			UserID: u.ID, LoggedInAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(time.Hour),
			RefreshToken: domain.NewRowID().String(), IsActive: true,
		})
		require.NoError(t, err)
	}

	affected, err := sessStore.RevokeAllForUser(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, affected)

	sessions, err := sessStore.IndexByUser(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	for _, s := range sessions {
		assert.False(t, s.IsActive)
	}
}

func TestSessionStoreRevokeAllIgnoresPriorState(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	sessStore := NewSessionStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "sweep@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	active, err := sessStore.Insert(ctx, Session{
		UserID: u.ID, LoggedInAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(time.Hour),
		RefreshToken: "tok-active", IsActive: true,
	})
	require.NoError(t, err)

	inactive, err := sessStore.Insert(ctx, Session{
		UserID: u.ID, LoggedInAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(time.Hour),
		RefreshToken: "tok-inactive", IsActive: false,
	})
	require.NoError(t, err)
	// IsActive carries default:true, so gorm stores a zero-value false as true.
	require.NoError(t, db.Model(&Session{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	affected, err := sessStore.RevokeAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected, "RevokeAll must match already-inactive rows too, not just active ones")

	reloadedActive, err := sessStore.FindByID(ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, reloadedActive.IsActive)
	assert.NotNil(t, reloadedActive.LoggedOutAt)

	reloadedInactive, err := sessStore.FindByID(ctx, inactive.ID)
	require.NoError(t, err)
	assert.False(t, reloadedInactive.IsActive)
	assert.NotNil(t, reloadedInactive.LoggedOutAt)
}

func TestSessionStoreIndexAndIndexCursor(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	sessStore := NewSessionStore(db, testLogger())
	ctx := context.Background()

	u, err := userStore.Insert(ctx, User{Email: "idx-sess@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	var inserted []Session
	for i := 0; i < 3; i++ {
		sess, err := sessStore.Insert(ctx, Session{
			UserID: u.ID, LoggedInAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(time.Hour),
			RefreshToken: domain.NewRowID().String(), IsActive: true,
		})
		require.NoError(t, err)
		inserted = append(inserted, sess)
	}

	all, err := sessStore.Index(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := sessStore.IndexCursor(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := sessStore.IndexCursor(ctx, 0, &Cursor{CreatedAt: page[1].LoggedInAt.Unix(), ID: page[1].ID})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestSessionStoreDeleteAllForUserAndDeleteAll(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, testLogger())
	sessStore := NewSessionStore(db, testLogger())
	ctx := context.Background()

	u1, err := userStore.Insert(ctx, User{Email: "purge1@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)
	u2, err := userStore.Insert(ctx, User{Email: "purge2@example.com", Name: "U", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	_, err = sessStore.Insert(ctx, Session{UserID: u1.ID, LoggedInAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(time.Hour), RefreshToken: "purge-tok-1", IsActive: true})
	require.NoError(t, err)
	_, err = sessStore.Insert(ctx, Session{UserID: u2.ID, LoggedInAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(time.Hour), RefreshToken: "purge-tok-2", IsActive: true})
	require.NoError(t, err)

	deleted, err := sessStore.DeleteAllForUser(ctx, u1.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	remaining, err := sessStore.IndexByUser(ctx, u1.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 0)

	deletedAll, err := sessStore.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deletedAll)
}

func TestSessionStoreFindByTokenNotFound(t *testing.T) {
	db := newTestDB(t)
	sessStore := NewSessionStore(db, testLogger())

	_, err := sessStore.FindByToken(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}
