package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

// UserStore is CRUD for user records keyed by id and by email.
type UserStore interface {
	Insert(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, u User) (User, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	Index(ctx context.Context, limit, offset int64) ([]User, error)
	IndexCursor(ctx context.Context, limit int64, after *Cursor) ([]User, error)
	// InsertMany seeds n placeholder users for test fixtures.
	InsertMany(ctx context.Context, n int) ([]User, error)
}

type userStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewUserStore constructs a UserStore over db.
func NewUserStore(db *gorm.DB, logger *logrus.Logger) UserStore {
	return &userStore{db: db, logger: logger}
}

func (s *userStore) Insert(ctx context.Context, u User) (User, error) {
	s.logger.WithField("email", u.Email).Debug("inserting user")
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if isUniqueViolation(err) {
			return User{}, domain.ConstraintViolationErr("users_email_key", "email", "email already registered")
		}
		s.logger.WithFields(logrus.Fields{"email": u.Email, "error": err}).Error("failed to insert user")
		return User{}, domain.StorageErr(err)
	}
	s.logger.WithField("user_id", u.ID).Info("user inserted")
	return u, nil
}

func (s *userStore) FindByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, domain.NotFoundErr("user")
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{"user_id": id, "error": err}).Error("failed to find user")
		return User{}, domain.StorageErr(err)
	}
	return u, nil
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, domain.NotFoundErr("user")
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{"email": email, "error": err}).Error("failed to find user by email")
		return User{}, domain.StorageErr(err)
	}
	return u, nil
}

func (s *userStore) Update(ctx context.Context, u User) (User, error) {
	if err := s.db.WithContext(ctx).Save(&u).Error; err != nil {
		if isUniqueViolation(err) {
			return User{}, domain.ConstraintViolationErr("users_email_key", "email", "email already registered")
		}
		s.logger.WithFields(logrus.Fields{"user_id": u.ID, "error": err}).Error("failed to update user")
		return User{}, domain.StorageErr(err)
	}
	s.logger.WithField("user_id", u.ID).Info("user updated")
	return u, nil
}

func (s *userStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	result := s.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&User{})
	if result.Error != nil {
		s.logger.WithFields(logrus.Fields{"user_id": id, "error": result.Error}).Error("failed to delete user")
		return 0, domain.StorageErr(result.Error)
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "rows_affected": result.RowsAffected}).Info("user deleted")
	return result.RowsAffected, nil
}

func (s *userStore) Index(ctx context.Context, limit, offset int64) ([]User, error) {
	var users []User
	q := s.db.WithContext(ctx).Order("id asc")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	if offset > 0 {
		q = q.Offset(int(offset))
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return users, nil
}

func (s *userStore) IndexCursor(ctx context.Context, limit int64, after *Cursor) ([]User, error) {
	q := s.db.WithContext(ctx).Order("created_on asc, id asc")
	if after != nil {
		q = q.Where("(created_on, id) > (?, ?)", after.CreatedAt, after.ID)
	}
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	var users []User
	if err := q.Find(&users).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return users, nil
}

func (s *userStore) InsertMany(ctx context.Context, n int) ([]User, error) {
	users := make([]User, 0, n)
	for i := 0; i < n; i++ {
		id := domain.NewRowID()
		users = append(users, User{
			ID:    id.String(),
			Email: fmt.Sprintf("seed+%s@example.test", id.String()),
			Name:  "Seed User",
			Role:  string(domain.RoleUser),
		})
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := s.db.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, domain.StorageErr(err)
	}
	return users, nil
}
