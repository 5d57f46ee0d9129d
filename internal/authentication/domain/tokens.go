package domain

// Default token lifetimes; the authentication engine reads the real values
// from configuration and only falls back to these.
const (
	DefaultAccessTokenTTLSeconds  = 300
	DefaultRefreshTokenTTLSeconds = 7200
)

// AccessToken, RefreshToken, EmailVerificationToken and PasswordResetToken
// are distinct newtypes over a signed JWT string. Each can only be built via
// TryFromClaim/TryFromString, which check the claim's Kind matches — making
// "wrong kind of token presented" a compile-time-enforced impossibility at
// any call site typed to accept one of these rather than a bare string.

type AccessToken struct {
	raw   string
	Claim TokenClaim
}

func (t AccessToken) String() string { return t.raw }

// TryAccessTokenFromClaim builds an AccessToken by encoding claim, only if
// claim.Kind is TokenKindAccess.
func TryAccessTokenFromClaim(claim TokenClaim, secret Secret[string]) (AccessToken, error) {
	if claim.Kind != TokenKindAccess {
		return AccessToken{}, InvalidTokenErr("wrong kind")
	}
	raw, err := Encode(claim, secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{raw: raw, Claim: claim}, nil
}

// TryAccessTokenFromString decodes jwtString and wraps it, only if the
// decoded claim's Kind is TokenKindAccess.
func TryAccessTokenFromString(jwtString string, secret Secret[string], issuer string) (AccessToken, error) {
	claim, err := Decode(jwtString, secret, issuer)
	if err != nil {
		return AccessToken{}, err
	}
	if claim.Kind != TokenKindAccess {
		return AccessToken{}, InvalidTokenErr("wrong kind")
	}
	return AccessToken{raw: jwtString, Claim: claim}, nil
}

type RefreshToken struct {
	raw   string
	Claim TokenClaim
}

func (t RefreshToken) String() string { return t.raw }

func TryRefreshTokenFromClaim(claim TokenClaim, secret Secret[string]) (RefreshToken, error) {
	if claim.Kind != TokenKindRefresh {
		return RefreshToken{}, InvalidTokenErr("wrong kind")
	}
	raw, err := Encode(claim, secret)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{raw: raw, Claim: claim}, nil
}

func TryRefreshTokenFromString(jwtString string, secret Secret[string], issuer string) (RefreshToken, error) {
	claim, err := Decode(jwtString, secret, issuer)
	if err != nil {
		return RefreshToken{}, err
	}
	if claim.Kind != TokenKindRefresh {
		return RefreshToken{}, InvalidTokenErr("wrong kind")
	}
	return RefreshToken{raw: jwtString, Claim: claim}, nil
}

type EmailVerificationToken struct {
	raw   string
	Claim TokenClaim
}

func (t EmailVerificationToken) String() string { return t.raw }

func TryEmailVerificationTokenFromClaim(claim TokenClaim, secret Secret[string]) (EmailVerificationToken, error) {
	if claim.Kind != TokenKindEmailVerification {
		return EmailVerificationToken{}, InvalidTokenErr("wrong kind")
	}
	raw, err := Encode(claim, secret)
	if err != nil {
		return EmailVerificationToken{}, err
	}
	return EmailVerificationToken{raw: raw, Claim: claim}, nil
}

func TryEmailVerificationTokenFromString(jwtString string, secret Secret[string], issuer string) (EmailVerificationToken, error) {
	claim, err := Decode(jwtString, secret, issuer)
	if err != nil {
		return EmailVerificationToken{}, err
	}
	if claim.Kind != TokenKindEmailVerification {
		return EmailVerificationToken{}, InvalidTokenErr("wrong kind")
	}
	return EmailVerificationToken{raw: jwtString, Claim: claim}, nil
}

type PasswordResetToken struct {
	raw   string
	Claim TokenClaim
}

func (t PasswordResetToken) String() string { return t.raw }

func TryPasswordResetTokenFromClaim(claim TokenClaim, secret Secret[string]) (PasswordResetToken, error) {
	if claim.Kind != TokenKindPasswordReset {
		return PasswordResetToken{}, InvalidTokenErr("wrong kind")
	}
	raw, err := Encode(claim, secret)
	if err != nil {
		return PasswordResetToken{}, err
	}
	return PasswordResetToken{raw: raw, Claim: claim}, nil
}

func TryPasswordResetTokenFromString(jwtString string, secret Secret[string], issuer string) (PasswordResetToken, error) {
	claim, err := Decode(jwtString, secret, issuer)
	if err != nil {
		return PasswordResetToken{}, err
	}
	if claim.Kind != TokenKindPasswordReset {
		return PasswordResetToken{}, InvalidTokenErr("wrong kind")
	}
	return PasswordResetToken{raw: jwtString, Claim: claim}, nil
}
