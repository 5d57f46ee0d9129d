package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserNameEmptyRejected(t *testing.T) {
	_, err := ParseUserName("")
	require.Error(t, err)
}

func TestParseUserNameTooLongRejected(t *testing.T) {
	_, err := ParseUserName(strings.Repeat("a", 257))
	require.Error(t, err)
}

func TestParseUserNameForbiddenCharacterRejected(t *testing.T) {
	for _, bad := range []string{"Bob/Smith", `Bob"Smith`, "Bob<Smith>", "Bob{Smith}"} {
		_, err := ParseUserName(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseUserNameValidAccepted(t *testing.T) {
	n, err := ParseUserName("Alice Example")
	require.NoError(t, err)
	assert.Equal(t, "Alice Example", n.String())
}
