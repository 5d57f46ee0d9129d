package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

func TestUserStoreInsertAndFindByID(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db, testLogger())
	ctx := context.Background()

	u, err := s.Insert(ctx, User{Email: "alice@example.com", Name: "Alice", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	found, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", found.Email)
}

func TestUserStoreFindByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db, testLogger())

	_, err := s.FindByID(context.Background(), domain.NewRowID().String())
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestUserStoreInsertDuplicateEmailIsConstraintViolation(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db, testLogger())
	ctx := context.Background()

	_, err := s.Insert(ctx, User{Email: "dup@example.com", Name: "A", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	_, err = s.Insert(ctx, User{Email: "dup@example.com", Name: "B", PasswordHash: "x", Role: "user"})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeConstraintViolation))
}

func TestUserStoreFindByEmail(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db, testLogger())
	ctx := context.Background()

	_, err := s.Insert(ctx, User{Email: "bob@example.com", Name: "Bob", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	found, err := s.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bob", found.Name)
}

func TestUserStoreDeleteByID(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db, testLogger())
	ctx := context.Background()

	u, err := s.Insert(ctx, User{Email: "gone@example.com", Name: "Gone", PasswordHash: "x", Role: "user"})
	require.NoError(t, err)

	affected, err := s.DeleteByID(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	_, err = s.FindByID(ctx, u.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestUserStoreDeleteByIDNoMatchIsZeroNotError(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db, testLogger())

	affected, err := s.DeleteByID(context.Background(), domain.NewRowID().String())
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)
}

func TestUserStoreIndexRespectsLimitAndOffset(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db, testLogger())
	ctx := context.Background()

	_, err := s.InsertMany(ctx, 5)
	require.NoError(t, err)

	page, err := s.Index(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	nextPage, err := s.Index(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, nextPage, 2)
	assert.NotEqual(t, page[0].ID, nextPage[0].ID)
}

func TestUserStoreIndexCursorIsStrictlyGreater(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db, testLogger())
	ctx := context.Background()

	seeded, err := s.InsertMany(ctx, 3)
	require.NoError(t, err)

	firstPage, err := s.IndexCursor(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, firstPage, 1)

	cursor := &Cursor{CreatedAt: firstPage[0].CreatedAt.Unix(), ID: firstPage[0].ID}
	secondPage, err := s.IndexCursor(ctx, 10, cursor)
	require.NoError(t, err)
	for _, u := range secondPage {
		assert.NotEqual(t, firstPage[0].ID, u.ID)
	}
	assert.LessOrEqual(t, len(secondPage), len(seeded)-1)
}
