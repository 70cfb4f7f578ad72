package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordHashing(t *testing.T) {
	h := HashPassword("s3cret")
	assert.NotEmpty(t, h)
	assert.NotEqual(t, "s3cret", h)

	assert.True(t, CheckPassword("s3cret", h))
	assert.False(t, CheckPassword("wrong", h))
	assert.False(t, CheckPassword("s3cret", "not-a-hash"))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}
