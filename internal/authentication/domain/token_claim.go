package domain

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates the four JWTs this service issues. It is the "jty"
// claim and the sole thing the four typed wrappers in tokens.go check.
type TokenKind string

const (
	TokenKindAccess            TokenKind = "access"
	TokenKindRefresh           TokenKind = "refresh"
	TokenKindEmailVerification TokenKind = "email_verification"
	TokenKindPasswordReset     TokenKind = "password_reset"
)

// tokenAudience is the fixed audience every token issued by this service
// carries.
const tokenAudience = "authentication_service"

// TokenClaim is the canonical decoded form of every JWT this service issues.
// It is never persisted directly; EmailVerification/Session rows persist the
// encoded JWT string alongside their own expiry columns.
type TokenClaim struct {
	JTI   RowID
	Kind  TokenKind
	Issuer string
	Subject RowID
	Audience string
	Role      UserRole
	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
}

// NewTokenClaim builds a claim for subject, valid for duration starting now,
// truncated to whole seconds so encode/decode round-trips are exact. role is
// baked into the "jur" claim at issue time so a later authorization check
// never has to go back to the database to learn who subject is; it is only
// meaningful on access tokens.
func NewTokenClaim(issuer string, duration time.Duration, subject RowID, kind TokenKind, role UserRole) TokenClaim {
	now := time.Now().UTC().Truncate(time.Second)
	return TokenClaim{
		JTI:       NewRowID(),
		Kind:      kind,
		Issuer:    issuer,
		Subject:   subject,
		Audience:  tokenAudience,
		Role:      role,
		IssuedAt:  now,
		NotBefore: now,
		ExpiresAt: now.Add(duration),
	}
}

// registeredClaims is the wire shape signed with HMAC-SHA256. It embeds the
// standard jwt.RegisteredClaims and adds the token kind and issuing user's
// role.
type registeredClaims struct {
	jwt.RegisteredClaims
	TokenKind TokenKind `json:"jty"`
	UserRole  UserRole  `json:"jur"`
}

// Encode signs claim with secret using HMAC-SHA256.
func Encode(claim TokenClaim, secret Secret[string]) (string, error) {
	rc := registeredClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claim.JTI.String(),
			Issuer:    claim.Issuer,
			Subject:   claim.Subject.String(),
			Audience:  jwt.ClaimStrings{claim.Audience},
			IssuedAt:  jwt.NewNumericDate(claim.IssuedAt),
			NotBefore: jwt.NewNumericDate(claim.NotBefore),
			ExpiresAt: jwt.NewNumericDate(claim.ExpiresAt),
		},
		TokenKind: claim.Kind,
		UserRole:  claim.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, rc)
	signed, err := token.SignedString([]byte(secret.Expose()))
	if err != nil {
		return "", InternalErr(fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

// Decode parses and validates jwtString against secret and expectedIssuer,
// checking in this order: signature, audience, issuer, not-before, expiry.
func Decode(jwtString string, secret Secret[string], expectedIssuer string) (TokenClaim, error) {
	var rc registeredClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(jwtString, &rc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret.Expose()), nil
	})
	if err != nil {
		return TokenClaim{}, InvalidTokenErr("signature: " + err.Error())
	}

	if !containsAudience(rc.Audience, tokenAudience) {
		return TokenClaim{}, InvalidTokenErr("audience mismatch")
	}
	if rc.Issuer != expectedIssuer {
		return TokenClaim{}, InvalidTokenErr("issuer mismatch")
	}

	now := time.Now().UTC()
	if rc.NotBefore != nil && now.Before(rc.NotBefore.Time) {
		return TokenClaim{}, InvalidTokenErr("token not yet valid")
	}
	if rc.ExpiresAt == nil || !now.Before(rc.ExpiresAt.Time) {
		return TokenClaim{}, TokenExpiredErr()
	}

	jti, err := ParseRowID(rc.ID)
	if err != nil {
		return TokenClaim{}, InvalidTokenErr("malformed jti")
	}
	sub, err := ParseRowID(rc.Subject)
	if err != nil {
		return TokenClaim{}, InvalidTokenErr("malformed subject")
	}

	return TokenClaim{
		JTI:       jti,
		Kind:      rc.TokenKind,
		Issuer:    rc.Issuer,
		Subject:   sub,
		Audience:  tokenAudience,
		Role:      rc.UserRole,
		IssuedAt:  rc.IssuedAt.Time.UTC().Truncate(time.Second),
		NotBefore: rc.NotBefore.Time.UTC().Truncate(time.Second),
		ExpiresAt: rc.ExpiresAt.Time.UTC().Truncate(time.Second),
	}, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
