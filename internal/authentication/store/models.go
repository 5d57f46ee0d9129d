// Package store persists the four entities of the data model (User, Session,
// Login, EmailVerification) behind gorm, one file per entity plus its store.
// Every store method logs with logrus.WithFields and returns *domain.Error
// instead of bare wrapped errors.
package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

// User is the gorm row shape for the users table.
type User struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	Role         string `gorm:"not null"`
	IsActive     bool   `gorm:"column:is_active;not null;default:true"`
	IsVerified   bool   `gorm:"column:is_verified;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_on;not null"`

	Sessions           []Session           `gorm:"constraint:OnDelete:CASCADE;"`
	Logins             []Login             `gorm:"constraint:OnDelete:CASCADE;"`
	EmailVerifications []EmailVerification `gorm:"constraint:OnDelete:CASCADE;"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = domain.NewRowID().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Session is the gorm row shape for the sessions table.
type Session struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	UserID       string `gorm:"column:user_id;not null;index"`
	LoggedInAt   time.Time `gorm:"column:logged_in_at;not null"`
	LoginIP      *string   `gorm:"column:login_ip;type:inet"`
	ExpiresAt    time.Time `gorm:"column:expires_on;not null"`
	RefreshToken string    `gorm:"column:refresh_token;uniqueIndex;not null"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	LoggedOutAt  *time.Time `gorm:"column:logged_out_at"`
	LogoutIP     *string    `gorm:"column:logout_ip;type:inet"`

	User User `gorm:"constraint:OnDelete:CASCADE;"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = domain.NewRowID().String()
	}
	return nil
}

// Login is the gorm row shape for the logins table. Insert-only.
type Login struct {
	ID      string    `gorm:"type:uuid;primaryKey"`
	UserID  string    `gorm:"column:user_id;not null;index"`
	LoginOn time.Time `gorm:"column:login_on;not null"`
	LoginIP *string   `gorm:"column:login_ip;type:inet"`

	User User `gorm:"constraint:OnDelete:CASCADE;"`
}

func (Login) TableName() string { return "logins" }

func (l *Login) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = domain.NewRowID().String()
	}
	if l.LoginOn.IsZero() {
		l.LoginOn = time.Now().UTC()
	}
	return nil
}

// EmailVerification is the gorm row shape for the email_verifications table.
type EmailVerification struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	Token     string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	IsUsed    bool      `gorm:"column:is_used;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_email_verifications_cursor,priority:1"`
	UpdatedAt *time.Time `gorm:"column:updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE;"`
}

func (EmailVerification) TableName() string { return "email_verifications" }

func (e *EmailVerification) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = domain.NewRowID().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

// AutoMigrate creates or updates the four tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Session{}, &Login{}, &EmailVerification{})
}
