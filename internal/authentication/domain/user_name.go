package domain

import "strings"

// forbiddenNameChars is the set of characters a display name must not
// contain: / ( ) " < > \ { }
const forbiddenNameChars = `/()"<>\{}`

// UserName is a validated display name: non-empty, at most 256 runes, free of
// the forbidden punctuation that could confuse downstream rendering.
type UserName struct {
	value string
}

// ParseUserName trims s and validates it against the length and
// forbidden-character rules.
func ParseUserName(s string) (UserName, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return UserName{}, ValidationErr("name", "name is empty")
	}
	if n := len([]rune(trimmed)); n > 256 {
		return UserName{}, ValidationErr("name", "name exceeds 256 characters")
	}
	if strings.ContainsAny(trimmed, forbiddenNameChars) {
		return UserName{}, ValidationErr("name", "name contains a forbidden character")
	}
	return UserName{value: trimmed}, nil
}

func (n UserName) String() string { return n.value }
