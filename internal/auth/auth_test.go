package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := BuildJWT("user-uuid", "supersecretkey")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	UUID, err := ValidateJWT(token, "supersecretkey")
	assert.NoError(t, err)
	assert.Equal(t, "user-uuid", UUID)
}

func TestJWTWrongSecretRejected(t *testing.T) {
	token, err := BuildJWT("user-uuid", "supersecretkey")
	assert.NoError(t, err)

	_, err = ValidateJWT(token, "othersecret")
	assert.Error(t, err)
}

func TestJWTGarbageRejected(t *testing.T) {
	_, err := ValidateJWT("not-a-token", "supersecretkey")
	assert.Error(t, err)
}
