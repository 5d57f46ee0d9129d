package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
	"github.com/authnsvc/authentication-service/internal/authentication/store"
)

// harness wires a real Engine against an in-memory sqlite database, exercising
// gorm directly rather than through hand-rolled fakes.
type harness struct {
	engine   *Engine
	users    store.UserStore
	sessions store.SessionStore
	logins   store.LoginStore
	evs      store.EmailVerificationStore
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate(db))

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	users := store.NewUserStore(db, logger)
	sessions := store.NewSessionStore(db, logger)
	logins := store.NewLoginStore(db, logger)
	evs := store.NewEmailVerificationStore(db, logger)

	cfg := Config{
		Issuer:          "authentication-service",
		Secret:          domain.NewSecret("test-signing-secret-0123456789"),
		AccessTokenTTL:  300 * time.Second,
		RefreshTokenTTL: 7200 * time.Second,
	}

	return harness{
		engine:   New(users, sessions, logins, evs, cfg, logger),
		users:    users,
		sessions: sessions,
		logins:   logins,
		evs:      evs,
	}
}

func (h harness) seedUser(t *testing.T, email, password string, active, verified bool) store.User {
	t.Helper()
	hash, err := domain.ParsePassword(domain.NewSecret(password))
	require.NoError(t, err)
	u, err := h.users.Insert(context.Background(), store.User{
		Email: email, Name: "Alice", PasswordHash: hash.String(),
		Role: string(domain.RoleUser), IsActive: active, IsVerified: verified,
	})
	require.NoError(t, err)
	return u
}

// happy-path login.
func TestEngineLoginHappyPath(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "alice@example.test", "Str0ng!Password", true, true)

	result, err := h.engine.Login(context.Background(), "alice@example.test", "Str0ng!Password", "203.0.113.9")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	sess, err := h.sessions.FindByToken(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	assert.True(t, sess.IsActive)

	u, err := h.users.FindByEmail(context.Background(), "alice@example.test")
	require.NoError(t, err)
	logins, err := h.logins.IndexByUser(context.Background(), u.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, logins, 1)
}

// wrong password.
func TestEngineLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "alice@example.test", "Str0ng!Password", true, true)

	_, err := h.engine.Login(context.Background(), "alice@example.test", "wrong", "203.0.113.9")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeUnauthenticated))

	sessions, err := h.sessions.IndexByUser(context.Background(), u.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestEngineLoginUnknownUserIndistinguishableFromWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "alice@example.test", "Str0ng!Password", true, true)

	_, err := h.engine.Login(context.Background(), "nobody@example.test", "Str0ng!Password", "203.0.113.9")
	require.Error(t, err)
	assert.Equal(t, "authentication failed", err.(*domain.Error).Message)
}

// refresh rotation and reuse detection.
func TestEngineRefreshRotatesAndDetectsReuse(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "alice@example.test", "Str0ng!Password", true, true)

	first, err := h.engine.Login(context.Background(), "alice@example.test", "Str0ng!Password", "203.0.113.9")
	require.NoError(t, err)

	rotated, err := h.engine.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	oldSess, err := h.sessions.FindByToken(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.False(t, oldSess.IsActive)

	newSess, err := h.sessions.FindByToken(context.Background(), rotated.RefreshToken)
	require.NoError(t, err)
	assert.True(t, newSess.IsActive)

	_, err = h.engine.Refresh(context.Background(), first.RefreshToken)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeUnauthenticated))
}

// logout-everywhere.
func TestEngineLogoutRevokesEverySessionForUser(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "alice@example.test", "Str0ng!Password", true, true)
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 3; i++ {
		r, err := h.engine.Login(ctx, "alice@example.test", "Str0ng!Password", "203.0.113.9")
		require.NoError(t, err)
		tokens = append(tokens, r.RefreshToken)
	}

	affected, err := h.engine.Logout(ctx, tokens[0])
	require.NoError(t, err)
	assert.EqualValues(t, 3, affected)

	for _, tok := range tokens {
		sess, err := h.sessions.FindByToken(ctx, tok)
		require.NoError(t, err)
		assert.False(t, sess.IsActive)
	}
}

// expired email verification.
func TestEmailVerificationExpiryAndCleanup(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "alice@example.test", "Str0ng!Password", true, false)
	ctx := context.Background()

	_, err := h.evs.Insert(ctx, store.EmailVerification{
		UserID: u.ID, Token: "stale-token", ExpiresAt: time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)

	ev, err := h.evs.FindByToken(ctx, "stale-token")
	require.NoError(t, err)
	assert.False(t, ev.ExpiresAt.After(time.Now().UTC()))

	affected, err := h.evs.DeleteExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, affected, int64(1))

	_, err = h.evs.FindByToken(ctx, "stale-token")
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestEngineRegisterIssuesEmailVerificationForUnverifiedUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	token, err := h.engine.Register(ctx, "new@example.test", "New User", "Str0ng!Password")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	u, err := h.users.FindByEmail(ctx, "new@example.test")
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsVerified)

	require.NoError(t, h.engine.ConsumeEmailVerification(ctx, token))

	reloaded, err := h.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsVerified)

	_, err = h.engine.ConsumeEmailVerification(ctx, token)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidToken))
}

func TestEngineResetPasswordEmitsTokenBoundToUser(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "alice@example.test", "Str0ng!Password", true, true)

	token, err := h.engine.ResetPassword(context.Background(), "alice@example.test")
	require.NoError(t, err)

	parsed, err := domain.TryPasswordResetTokenFromString(token, h.engine.cfg.Secret, h.engine.cfg.Issuer)
	require.NoError(t, err)
	assert.Equal(t, u.ID, parsed.Claim.Subject.String())
}

func TestEngineUpdatePasswordRequiresActiveAndVerified(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "inactive@example.test", "Str0ng!Password", true, false)
	ctx := context.Background()

	result, err := h.engine.Login(ctx, "inactive@example.test", "Str0ng!Password", "203.0.113.9")
	require.NoError(t, err)

	_, err = h.engine.UpdatePassword(ctx, result.AccessToken, "Str0ng!Password", "Ev3nStr0nger!Password")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeUnauthenticated))
}

func TestEngineUpdatePasswordRotatesSessionsAndKeepsCallerAuthenticated(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "alice@example.test", "Str0ng!Password", true, true)
	ctx := context.Background()

	first, err := h.engine.Login(ctx, "alice@example.test", "Str0ng!Password", "203.0.113.9")
	require.NoError(t, err)

	updated, err := h.engine.UpdatePassword(ctx, first.AccessToken, "Str0ng!Password", "Ev3nStr0nger!Password")
	require.NoError(t, err)
	assert.NotEmpty(t, updated.AccessToken)

	oldSess, err := h.sessions.FindByToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.False(t, oldSess.IsActive)

	_, err = h.engine.Login(ctx, "alice@example.test", "Ev3nStr0nger!Password", "203.0.113.9")
	require.NoError(t, err)
}
