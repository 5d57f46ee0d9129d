package store

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

// EmailVerificationStore persists issued email-verification/password-reset
// token rows, with the widest operation set of the four stores: batch
// insert, upsert, and several bulk-delete shapes.
type EmailVerificationStore interface {
	Insert(ctx context.Context, e EmailVerification) (EmailVerification, error)
	FindByID(ctx context.Context, id string) (EmailVerification, error)
	FindByToken(ctx context.Context, token string) (EmailVerification, error)
	IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]EmailVerification, error)
	IndexByUserCursor(ctx context.Context, userID string, limit int64, after *Cursor) ([]EmailVerification, error)
	Index(ctx context.Context, limit, offset int64) ([]EmailVerification, error)
	IndexCursor(ctx context.Context, limit int64, after *Cursor) ([]EmailVerification, error)

	// InsertBatch inserts rows transactionally; empty batches are rejected,
	// and batches over maxBatchSize are rejected outright rather than
	// silently truncated.
	InsertBatch(ctx context.Context, rows []EmailVerification) ([]EmailVerification, error)

	// Upsert inserts e, or on an id conflict overwrites every mutable column
	// and sets updated_at to now.
	Upsert(ctx context.Context, e EmailVerification) (EmailVerification, error)

	MarkUsed(ctx context.Context, id string) (int64, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteUsed(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
	// DeleteByIDs deletes the rows matching ids. An empty slice performs no
	// write and returns 0; bulk operations never touch the whole table on an
	// empty selector.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type emailVerificationStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewEmailVerificationStore constructs an EmailVerificationStore over db.
func NewEmailVerificationStore(db *gorm.DB, logger *logrus.Logger) EmailVerificationStore {
	return &emailVerificationStore{db: db, logger: logger}
}

func (s *emailVerificationStore) Insert(ctx context.Context, e EmailVerification) (EmailVerification, error) {
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		if isUniqueViolation(err) {
			return EmailVerification{}, domain.ConstraintViolationErr("email_verifications_token_key", "token", "token collision")
		}
		s.logger.WithFields(logrus.Fields{"user_id": e.UserID, "error": err}).Error("failed to insert email verification")
		return EmailVerification{}, domain.StorageErr(err)
	}
	return e, nil
}

func (s *emailVerificationStore) FindByToken(ctx context.Context, token string) (EmailVerification, error) {
	var e EmailVerification
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return EmailVerification{}, domain.NotFoundErr("email verification")
	}
	if err != nil {
		return EmailVerification{}, domain.StorageErr(err)
	}
	return e, nil
}

func (s *emailVerificationStore) FindByID(ctx context.Context, id string) (EmailVerification, error) {
	var e EmailVerification
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return EmailVerification{}, domain.NotFoundErr("email verification")
	}
	if err != nil {
		return EmailVerification{}, domain.StorageErr(err)
	}
	return e, nil
}

func (s *emailVerificationStore) IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]EmailVerification, error) {
	var rows []EmailVerification
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc, id asc")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	if offset > 0 {
		q = q.Offset(int(offset))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return rows, nil
}

func (s *emailVerificationStore) IndexByUserCursor(ctx context.Context, userID string, limit int64, after *Cursor) ([]EmailVerification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc, id asc")
	if after != nil {
		q = q.Where("(created_at, id) > (?, ?)", after.CreatedAt, after.ID)
	}
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	var rows []EmailVerification
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return rows, nil
}

func (s *emailVerificationStore) Index(ctx context.Context, limit, offset int64) ([]EmailVerification, error) {
	var rows []EmailVerification
	q := s.db.WithContext(ctx).Order("created_at asc, id asc")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	if offset > 0 {
		q = q.Offset(int(offset))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return rows, nil
}

func (s *emailVerificationStore) IndexCursor(ctx context.Context, limit int64, after *Cursor) ([]EmailVerification, error) {
	q := s.db.WithContext(ctx).Order("created_at asc, id asc")
	if after != nil {
		q = q.Where("(created_at, id) > (?, ?)", after.CreatedAt, after.ID)
	}
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	var rows []EmailVerification
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return rows, nil
}

func (s *emailVerificationStore) InsertBatch(ctx context.Context, rows []EmailVerification) ([]EmailVerification, error) {
	if len(rows) == 0 {
		return nil, domain.ValidationErr("rows", "batch must not be empty")
	}
	if len(rows) > maxBatchSize {
		return nil, domain.ValidationErr("rows", "batch exceeds maximum size")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ConstraintViolationErr("email_verifications_token_key", "token", "token collision in batch")
		}
		s.logger.WithFields(logrus.Fields{"count": len(rows), "error": err}).Error("failed to insert email verification batch")
		return nil, domain.StorageErr(err)
	}
	s.logger.WithField("count", len(rows)).Info("inserted email verification batch")
	return rows, nil
}

func (s *emailVerificationStore) Upsert(ctx context.Context, e EmailVerification) (EmailVerification, error) {
	now := time.Now().UTC()
	e.UpdatedAt = &now
	err := s.db.WithContext(ctx).
		Where("id = ?", e.ID).
		Assign(map[string]any{
			"user_id":    e.UserID,
			"token":      e.Token,
			"expires_at": e.ExpiresAt,
			"is_used":    e.IsUsed,
			"updated_at": now,
		}).
		FirstOrCreate(&e).Error
	if err != nil {
		if isUniqueViolation(err) {
			return EmailVerification{}, domain.ConstraintViolationErr("email_verifications_token_key", "token", "token collision")
		}
		return EmailVerification{}, domain.StorageErr(err)
	}
	return e, nil
}

func (s *emailVerificationStore) MarkUsed(ctx context.Context, id string) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&EmailVerification{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_used": true, "updated_at": now})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *emailVerificationStore) DeleteByToken(ctx context.Context, token string) (int64, error) {
	result := s.db.WithContext(ctx).Where("token = ?", token).Delete(&EmailVerification{})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *emailVerificationStore) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&EmailVerification{})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *emailVerificationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&EmailVerification{})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	s.logger.WithField("deleted", result.RowsAffected).Debug("purged expired email verifications")
	return result.RowsAffected, nil
}

func (s *emailVerificationStore) DeleteUsed(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("is_used = ?", true).Delete(&EmailVerification{})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *emailVerificationStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&EmailVerification{})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteByIDs never issues a bare DELETE when ids is empty: gorm's "Where IN
// ()" for an empty slice compiles to a false predicate on most drivers, but
// we short-circuit explicitly rather than rely on that.
func (s *emailVerificationStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&EmailVerification{})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *emailVerificationStore) DeleteAll(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("1 = 1").Delete(&EmailVerification{})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	s.logger.WithField("deleted", result.RowsAffected).Warn("deleted all email verifications")
	return result.RowsAffected, nil
}
