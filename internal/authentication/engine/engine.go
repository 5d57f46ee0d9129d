// Package engine is the authentication engine: the only component allowed
// to compose value types, password hashing, the token codec, and the
// stores. It orchestrates login, refresh rotation, logout, password update,
// registration, and password-reset/email-verification issuance.
package engine

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
	"github.com/authnsvc/authentication-service/internal/authentication/store"
	"github.com/authnsvc/authentication-service/internal/shared/cache"
	"github.com/authnsvc/authentication-service/internal/shared/metrics"
)

// Config carries the immutable, read-only-shared record every handler
// consults: signing secret, issuer, and token durations.
type Config struct {
	Issuer          string
	Secret          domain.Secret[string]
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Engine composes the four stores into the authentication flows.
type Engine struct {
	users             store.UserStore
	sessions          store.SessionStore
	logins            store.LoginStore
	emailVerifications store.EmailVerificationStore
	cfg               Config
	logger            *logrus.Logger
	metrics           *metrics.PrometheusMetrics
	revocations       *cache.RevocationCache
}

// New constructs the engine over its four stores and signing configuration.
func New(users store.UserStore, sessions store.SessionStore, logins store.LoginStore, emailVerifications store.EmailVerificationStore, cfg Config, logger *logrus.Logger) *Engine {
	return &Engine{
		users:             users,
		sessions:          sessions,
		logins:            logins,
		emailVerifications: emailVerifications,
		cfg:               cfg,
		logger:            logger,
	}
}

// WithMetrics attaches a PrometheusMetrics instance the engine records login
// outcomes, token issuance, and session revocations against. Optional: with a
// nil argument, or on an engine never given one, recording is skipped.
func (e *Engine) WithMetrics(m *metrics.PrometheusMetrics) *Engine {
	e.metrics = m
	return e
}

func (e *Engine) recordLoginAttempt(outcome string) {
	if e.metrics != nil {
		e.metrics.RecordLoginAttempt(outcome)
	}
}

func (e *Engine) recordTokenIssued(kind string) {
	if e.metrics != nil {
		e.metrics.RecordTokenIssued(kind)
	}
}

func (e *Engine) recordSessionsRevoked(reason string, count int64) {
	if e.metrics != nil && count > 0 {
		e.metrics.RecordSessionsRevoked(reason, count)
	}
}

// WithRevocationCache attaches a Redis-backed denylist Refresh consults
// before touching the session store. Optional: with a nil argument the
// database stays the sole source of truth.
func (e *Engine) WithRevocationCache(c *cache.RevocationCache) *Engine {
	e.revocations = c
	return e
}

// denylistRefreshToken marks refreshToken revoked in the cache for the
// remainder of its natural lifetime, so a reused token is rejected without a
// database round trip even before the session row's is_active catches up.
func (e *Engine) denylistRefreshToken(ctx context.Context, refreshToken string) {
	if e.revocations == nil {
		return
	}
	if err := e.revocations.MarkRevoked(ctx, refreshToken, e.cfg.RefreshTokenTTL); err != nil {
		e.logger.WithError(err).Warn("failed to denylist revoked refresh token")
	}
}

// AuthResult is the {access, refresh} pair every successful credential flow
// returns.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
}

func authFailed() error {
	return domain.Unauthenticated("authentication failed")
}

// ipv4OrNil returns peerIP as a pointer only when it parses as IPv4; IPv6
// peers record nil, per IP-capture note.
func ipv4OrNil(peerIP string) *string {
	ip := net.ParseIP(peerIP)
	if ip == nil || ip.To4() == nil {
		return nil
	}
	s := ip.String()
	return &s
}

// Login verifies an email/password pair, appends a login journal row, and
// issues a fresh access/refresh token pair on success.
func (e *Engine) Login(ctx context.Context, email, password, peerIP string) (AuthResult, error) {
	addr, parseErr := domain.ParseEmailAddress(email)
	if parseErr != nil {
		domain.DummyVerify(domain.NewSecret(password))
		e.recordLoginAttempt("failure")
		return AuthResult{}, authFailed()
	}

	u, err := e.users.FindByEmail(ctx, addr.String())
	if err != nil {
		domain.DummyVerify(domain.NewSecret(password))
		e.recordLoginAttempt("failure")
		return AuthResult{}, authFailed()
	}

	hash := domain.PasswordHashFromPHC(u.PasswordHash)
	if !hash.Verify(domain.NewSecret(password)) {
		e.recordLoginAttempt("failure")
		return AuthResult{}, authFailed()
	}

	loginIP := ipv4OrNil(peerIP)
	now := time.Now().UTC()
	if _, err := e.logins.Insert(ctx, store.Login{UserID: u.ID, LoginOn: now, LoginIP: loginIP}); err != nil {
		e.logger.WithFields(logrus.Fields{"user_id": u.ID, "error": err}).Error("failed to append login journal row")
		e.recordLoginAttempt("failure")
		return AuthResult{}, err
	}

	e.recordLoginAttempt("success")
	return e.issuePair(ctx, u.ID, u.Role, loginIP)
}

// issuePair builds a fresh access token plus a session-backed refresh token
// for userID, implementing the shared tail of login and refresh. role is
// baked into the access token's "jur" claim so the authorization
// interceptor never has to query the user store to learn it.
func (e *Engine) issuePair(ctx context.Context, userID, role string, loginIP *string) (AuthResult, error) {
	subject, err := domain.ParseRowID(userID)
	if err != nil {
		return AuthResult{}, domain.InternalErr(err)
	}
	userRole, err := domain.ParseUserRole(role)
	if err != nil {
		return AuthResult{}, domain.InternalErr(err)
	}

	accessClaim := domain.NewTokenClaim(e.cfg.Issuer, e.cfg.AccessTokenTTL, subject, domain.TokenKindAccess, userRole)
	access, err := domain.TryAccessTokenFromClaim(accessClaim, e.cfg.Secret)
	if err != nil {
		return AuthResult{}, domain.InternalErr(err)
	}
	e.recordTokenIssued(string(domain.TokenKindAccess))

	refreshClaim := domain.NewTokenClaim(e.cfg.Issuer, e.cfg.RefreshTokenTTL, subject, domain.TokenKindRefresh, userRole)
	refresh, err := domain.TryRefreshTokenFromClaim(refreshClaim, e.cfg.Secret)
	if err != nil {
		return AuthResult{}, domain.InternalErr(err)
	}
	e.recordTokenIssued(string(domain.TokenKindRefresh))

	now := time.Now().UTC()
	_, err = e.sessions.Insert(ctx, store.Session{
		UserID:       userID,
		LoggedInAt:   now,
		LoginIP:      loginIP,
		ExpiresAt:    now.Add(e.cfg.RefreshTokenTTL),
		RefreshToken: refresh.String(),
		IsActive:     true,
	})
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{AccessToken: access.String(), RefreshToken: refresh.String()}, nil
}

// Refresh decodes and validates refreshTokenString, rejects it outright if
// the revocation cache already denylisted it, then loads the backing
// session. A session that is missing or no longer active fails the whole
// call rather than just the rotation, so a reused or stale token can never
// mint a new pair. On success every session for the user is revoked and a
// fresh access/refresh pair is issued, so a stolen refresh token is only
// ever good for one more use before the legitimate owner's next refresh
// locks it out.
func (e *Engine) Refresh(ctx context.Context, refreshTokenString string) (AuthResult, error) {
	token, err := domain.TryRefreshTokenFromString(refreshTokenString, e.cfg.Secret, e.cfg.Issuer)
	if err != nil {
		return AuthResult{}, err
	}

	if e.revocations != nil {
		if denied, cacheErr := e.revocations.IsRevoked(ctx, refreshTokenString); cacheErr == nil && denied {
			return AuthResult{}, authFailed()
		}
	}

	sess, err := e.sessions.FindByToken(ctx, refreshTokenString)
	if err != nil {
		return AuthResult{}, authFailed()
	}
	if !sess.IsActive {
		return AuthResult{}, authFailed()
	}

	revoked, err := e.sessions.RevokeAllForUser(ctx, sess.UserID, nil)
	if err != nil {
		return AuthResult{}, err
	}
	e.recordSessionsRevoked("rotation", revoked)
	e.denylistRefreshToken(ctx, refreshTokenString)

	u, err := e.users.FindByID(ctx, token.Claim.Subject.String())
	if err != nil {
		return AuthResult{}, authFailed()
	}

	return e.issuePair(ctx, u.ID, u.Role, nil)
}

// Logout validates refreshTokenString, revokes every session belonging to
// its owner, and denylists the token so a concurrent Refresh using the same
// value fails even before the session row's is_active flag is visible to it.
func (e *Engine) Logout(ctx context.Context, refreshTokenString string) (int64, error) {
	if _, err := domain.TryRefreshTokenFromString(refreshTokenString, e.cfg.Secret, e.cfg.Issuer); err != nil {
		return 0, authFailed()
	}

	sess, err := e.sessions.FindByToken(ctx, refreshTokenString)
	if err != nil {
		return 0, authFailed()
	}

	affected, err := e.sessions.RevokeAllForUser(ctx, sess.UserID, nil)
	if err != nil {
		return 0, err
	}
	e.recordSessionsRevoked("logout", affected)
	e.denylistRefreshToken(ctx, refreshTokenString)
	return affected, nil
}

// UpdatePassword verifies the caller's access token and current password,
// stores the new password hash, revokes every existing session for the
// user, and issues a fresh access/refresh pair so the caller isn't logged
// out by its own password change.
func (e *Engine) UpdatePassword(ctx context.Context, accessTokenString, oldPassword, newPassword string) (AuthResult, error) {
	token, err := domain.TryAccessTokenFromString(accessTokenString, e.cfg.Secret, e.cfg.Issuer)
	if err != nil {
		return AuthResult{}, authFailed()
	}

	u, err := e.users.FindByID(ctx, token.Claim.Subject.String())
	if err != nil {
		return AuthResult{}, authFailed()
	}
	if !u.IsActive || !u.IsVerified {
		return AuthResult{}, authFailed()
	}

	hash := domain.PasswordHashFromPHC(u.PasswordHash)
	if !hash.Verify(domain.NewSecret(oldPassword)) {
		return AuthResult{}, authFailed()
	}

	newHash, err := domain.ParsePassword(domain.NewSecret(newPassword))
	if err != nil {
		return AuthResult{}, err
	}
	u.PasswordHash = newHash.String()
	if _, err := e.users.Update(ctx, u); err != nil {
		return AuthResult{}, err
	}

	revoked, err := e.sessions.RevokeAllForUser(ctx, u.ID, nil)
	if err != nil {
		return AuthResult{}, err
	}
	e.recordSessionsRevoked("password_change", revoked)

	return e.issuePair(ctx, u.ID, u.Role, nil)
}

// Register creates an active, unverified user and emits one
// EmailVerificationToken. It returns no authenticated
// tokens.
func (e *Engine) Register(ctx context.Context, email, name, password string) (string, error) {
	addr, err := domain.ParseEmailAddress(email)
	if err != nil {
		return "", err
	}
	userName, err := domain.ParseUserName(name)
	if err != nil {
		return "", err
	}
	hash, err := domain.ParsePassword(domain.NewSecret(password))
	if err != nil {
		return "", err
	}

	u, err := e.users.Insert(ctx, store.User{
		Email:        addr.String(),
		Name:         userName.String(),
		PasswordHash: hash.String(),
		Role:         string(domain.RoleUser),
		IsActive:     true,
		IsVerified:   false,
	})
	if err != nil {
		return "", err
	}

	return e.issueEmailVerification(ctx, u.ID, u.Role)
}

// ResetPassword emits one PasswordResetToken bound to
// the user's email. It returns no authenticated tokens.
func (e *Engine) ResetPassword(ctx context.Context, email string) (string, error) {
	addr, err := domain.ParseEmailAddress(email)
	if err != nil {
		return "", err
	}
	u, err := e.users.FindByEmail(ctx, addr.String())
	if err != nil {
		return "", err
	}

	subject, err := domain.ParseRowID(u.ID)
	if err != nil {
		return "", domain.InternalErr(err)
	}
	claim := domain.NewTokenClaim(e.cfg.Issuer, e.cfg.RefreshTokenTTL, subject, domain.TokenKindPasswordReset, domain.UserRole(u.Role))
	token, err := domain.TryPasswordResetTokenFromClaim(claim, e.cfg.Secret)
	if err != nil {
		return "", domain.InternalErr(err)
	}
	e.recordTokenIssued(string(domain.TokenKindPasswordReset))
	return token.String(), nil
}

func (e *Engine) issueEmailVerification(ctx context.Context, userID, role string) (string, error) {
	subject, err := domain.ParseRowID(userID)
	if err != nil {
		return "", domain.InternalErr(err)
	}
	claim := domain.NewTokenClaim(e.cfg.Issuer, e.cfg.RefreshTokenTTL, subject, domain.TokenKindEmailVerification, domain.UserRole(role))
	token, err := domain.TryEmailVerificationTokenFromClaim(claim, e.cfg.Secret)
	if err != nil {
		return "", domain.InternalErr(err)
	}

	if _, err := e.emailVerifications.Insert(ctx, store.EmailVerification{
		UserID:    userID,
		Token:     token.String(),
		ExpiresAt: claim.ExpiresAt,
	}); err != nil {
		return "", err
	}
	e.recordTokenIssued(string(domain.TokenKindEmailVerification))
	return token.String(), nil
}

// ConsumeEmailVerification decodes tokenString, rejects it if the backing
// record is already used or past its expiry, then marks the record used and
// the owning user verified.
func (e *Engine) ConsumeEmailVerification(ctx context.Context, tokenString string) error {
	token, err := domain.TryEmailVerificationTokenFromString(tokenString, e.cfg.Secret, e.cfg.Issuer)
	if err != nil {
		return err
	}

	record, err := e.emailVerifications.FindByToken(ctx, tokenString)
	if err != nil {
		return domain.NotFoundErr("email verification")
	}
	if record.IsUsed {
		return domain.InvalidTokenErr("email verification token already used")
	}
	if !record.ExpiresAt.After(time.Now().UTC()) {
		return domain.TokenExpiredErr()
	}

	if _, err := e.emailVerifications.MarkUsed(ctx, record.ID); err != nil {
		return err
	}

	u, err := e.users.FindByID(ctx, token.Claim.Subject.String())
	if err != nil {
		return err
	}
	u.IsVerified = true
	if _, err := e.users.Update(ctx, u); err != nil {
		return err
	}
	return nil
}
