package store

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

// SessionStore holds one row per issued refresh token.
type SessionStore interface {
	Insert(ctx context.Context, s Session) (Session, error)
	FindByID(ctx context.Context, id string) (Session, error)
	FindByToken(ctx context.Context, refreshToken string) (Session, error)
	IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]Session, error)
	Index(ctx context.Context, limit, offset int64) ([]Session, error)
	IndexCursor(ctx context.Context, limit int64, after *Cursor) ([]Session, error)
	// Revoke sets is_active=false and records logged_out_at/logout_ip on a
	// single loaded session, unconditionally of its prior state.
	Revoke(ctx context.Context, s Session, logoutIP *string) (Session, error)
	RevokeByID(ctx context.Context, id string, logoutIP *string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID string, logoutIP *string) (int64, error)
	RevokeAll(ctx context.Context) (int64, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type sessionStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewSessionStore constructs a SessionStore over db.
func NewSessionStore(db *gorm.DB, logger *logrus.Logger) SessionStore {
	return &sessionStore{db: db, logger: logger}
}

func (s *sessionStore) Insert(ctx context.Context, sess Session) (Session, error) {
	s.logger.WithField("user_id", sess.UserID).Debug("inserting session")
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		if isUniqueViolation(err) {
			return Session{}, domain.ConstraintViolationErr("sessions_refresh_token_key", "refresh_token", "refresh token collision")
		}
		s.logger.WithFields(logrus.Fields{"user_id": sess.UserID, "error": err}).Error("failed to insert session")
		return Session{}, domain.StorageErr(err)
	}
	s.logger.WithField("session_id", sess.ID).Info("session inserted")
	return sess, nil
}

func (s *sessionStore) FindByID(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, domain.NotFoundErr("session")
	}
	if err != nil {
		return Session{}, domain.StorageErr(err)
	}
	return sess, nil
}

func (s *sessionStore) FindByToken(ctx context.Context, refreshToken string) (Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, domain.NotFoundErr("session")
	}
	if err != nil {
		s.logger.WithField("error", err).Error("failed to find session by token")
		return Session{}, domain.StorageErr(err)
	}
	return sess, nil
}

func (s *sessionStore) IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]Session, error) {
	var sessions []Session
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	if offset > 0 {
		q = q.Offset(int(offset))
	}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return sessions, nil
}

func (s *sessionStore) Index(ctx context.Context, limit, offset int64) ([]Session, error) {
	var sessions []Session
	q := s.db.WithContext(ctx).Order("id asc")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	if offset > 0 {
		q = q.Offset(int(offset))
	}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return sessions, nil
}

func (s *sessionStore) IndexCursor(ctx context.Context, limit int64, after *Cursor) ([]Session, error) {
	q := s.db.WithContext(ctx).Order("logged_in_at asc, id asc")
	if after != nil {
		q = q.Where("(logged_in_at, id) > (?, ?)", after.CreatedAt, after.ID)
	}
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	var sessions []Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return sessions, nil
}

func (s *sessionStore) Revoke(ctx context.Context, sess Session, logoutIP *string) (Session, error) {
	now := time.Now().UTC()
	sess.IsActive = false
	sess.LoggedOutAt = &now
	sess.LogoutIP = logoutIP
	if err := s.db.WithContext(ctx).Save(&sess).Error; err != nil {
		return Session{}, domain.StorageErr(err)
	}
	return sess, nil
}

func (s *sessionStore) RevokeByID(ctx context.Context, id string, logoutIP *string) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&Session{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "logged_out_at": now, "logout_ip": logoutIP})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	return result.RowsAffected, nil
}

// RevokeAllForUser sets is_active=false on every session for userID,
// unconditionally of prior state.
func (s *sessionStore) RevokeAllForUser(ctx context.Context, userID string, logoutIP *string) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&Session{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"is_active": false, "logged_out_at": now, "logout_ip": logoutIP})
	if result.Error != nil {
		s.logger.WithFields(logrus.Fields{"user_id": userID, "error": result.Error}).Error("failed to revoke sessions for user")
		return 0, domain.StorageErr(result.Error)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "revoked": result.RowsAffected}).Info("revoked all sessions for user")
	return result.RowsAffected, nil
}

func (s *sessionStore) RevokeAll(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&Session{}).
		Where("1 = 1").
		Updates(map[string]any{"is_active": false, "logged_out_at": now})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	s.logger.WithField("revoked", result.RowsAffected).Warn("revoked all sessions (administrative sweep)")
	return result.RowsAffected, nil
}

func (s *sessionStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Session{})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteAllForUser hard-deletes every session row belonging to userID,
// independent of is_active — a purge, not a revoke.
func (s *sessionStore) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Session{})
	if result.Error != nil {
		s.logger.WithFields(logrus.Fields{"user_id": userID, "error": result.Error}).Error("failed to delete sessions for user")
		return 0, domain.StorageErr(result.Error)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "deleted": result.RowsAffected}).Warn("deleted all sessions for user")
	return result.RowsAffected, nil
}

// DeleteAll hard-deletes every session row in the table.
func (s *sessionStore) DeleteAll(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("1 = 1").Delete(&Session{})
	if result.Error != nil {
		return 0, domain.StorageErr(result.Error)
	}
	s.logger.WithField("deleted", result.RowsAffected).Warn("deleted all sessions (administrative purge)")
	return result.RowsAffected, nil
}
