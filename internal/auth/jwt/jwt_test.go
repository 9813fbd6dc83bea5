package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	s, err := NewService(Config{SecretKey: "secret", Duration: time.Hour})
	assert.NoError(t, err)
	tok, err := s.GenerateToken("alice", "client", "clientA")
	assert.NoError(t, err)
	claims, err := s.ValidateToken(tok)
	assert.NoError(t, err)
	if assert.NotNil(t, claims) {
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, "client", claims.Role)
		assert.Equal(t, "clientA", claims.ClientName)
	}
}

func TestJWTService_AdminHasNoClientName(t *testing.T) {
	s, err := NewService(Config{SecretKey: "secret", Duration: time.Hour})
	assert.NoError(t, err)
	tok, err := s.GenerateToken("root", "admin", "")
	assert.NoError(t, err)
	claims, err := s.ValidateToken(tok)
	assert.NoError(t, err)
	assert.Equal(t, "", claims.ClientName)
}

func TestJWTService_ExpiredAndInvalid(t *testing.T) {
	s, err := NewService(Config{SecretKey: "secret", Duration: time.Nanosecond})
	assert.NoError(t, err)
	tok, err := s.GenerateToken("bob", "client", "clientB")
	assert.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	claims, err := s.ValidateToken(tok)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrExpiredToken)

	claims, err = s.ValidateToken("not-a-token")
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(Config{SecretKey: "", Duration: time.Hour})
	assert.ErrorIs(t, err, ErrEmptySecretKey)

	_, err = NewService(Config{SecretKey: "secret", Duration: 0})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}
