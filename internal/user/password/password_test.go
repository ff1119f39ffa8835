package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("s3cret-passphrase")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	assert.True(t, Verify("s3cret-passphrase", encoded))
	assert.False(t, Verify("wrong", encoded))
}

func TestHashesAreSalted(t *testing.T) {
	a, err := Hash("same input")
	require.NoError(t, err)
	b, err := Hash("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyMalformed(t *testing.T) {
	assert.False(t, Verify("x", ""))
	assert.False(t, Verify("x", "$argon2id$v=19$m=bad$salt$key"))
	assert.False(t, Verify("x", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"))
	assert.False(t, Verify("x", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"))
}
