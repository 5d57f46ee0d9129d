package domain

import (
	"regexp"
	"strings"
)

// emailPattern is a pragmatic RFC-5322-ish check: it rejects the obviously
// malformed without attempting full RFC compliance (no quoted local parts,
// no comments, no IP-literal domains).
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailAddress is a validated email string. The only way to obtain one is
// Parse; comparison elsewhere is by exact string match, case preserved.
type EmailAddress struct {
	value string
}

// ParseEmailAddress trims s and validates it. Casing is preserved.
func ParseEmailAddress(s string) (EmailAddress, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return EmailAddress{}, ValidationErr("email", "email address is empty")
	}
	if !emailPattern.MatchString(trimmed) {
		return EmailAddress{}, ValidationErr("email", "email address is not valid")
	}
	return EmailAddress{value: trimmed}, nil
}

func (e EmailAddress) String() string { return e.value }
