package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

// LoginStore is an append-only audit trail of login attempts. Rows are
// never updated or deleted through normal operation.
type LoginStore interface {
	Insert(ctx context.Context, l Login) (Login, error)
	IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]Login, error)
	Index(ctx context.Context, limit, offset int64) ([]Login, error)
}

type loginStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewLoginStore constructs a LoginStore over db.
func NewLoginStore(db *gorm.DB, logger *logrus.Logger) LoginStore {
	return &loginStore{db: db, logger: logger}
}

func (s *loginStore) Insert(ctx context.Context, l Login) (Login, error) {
	if err := s.db.WithContext(ctx).Create(&l).Error; err != nil {
		s.logger.WithFields(logrus.Fields{"user_id": l.UserID, "error": err}).Error("failed to insert login record")
		return Login{}, domain.StorageErr(err)
	}
	s.logger.WithField("user_id", l.UserID).Debug("login record inserted")
	return l, nil
}

func (s *loginStore) IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]Login, error) {
	var logins []Login
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("login_on desc")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	if offset > 0 {
		q = q.Offset(int(offset))
	}
	if err := q.Find(&logins).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return logins, nil
}

func (s *loginStore) Index(ctx context.Context, limit, offset int64) ([]Login, error) {
	var logins []Login
	q := s.db.WithContext(ctx).Order("login_on desc")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	if offset > 0 {
		q = q.Offset(int(offset))
	}
	if err := q.Find(&logins).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return logins, nil
}
