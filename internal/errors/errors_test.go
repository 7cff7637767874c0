package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileErrorUnwrap(t *testing.T) {
	underlying := errors.New("permission denied")
	err := NewFileError("open", "/a.txt", underlying)

	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "/a.txt")
	assert.Contains(t, err.Error(), "open")
}

func TestConfigErrorUnwrap(t *testing.T) {
	underlying := errors.New("out of range")
	err := NewConfigError("port", "-1", underlying)

	var target *ConfigError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "port", target.Field)
}

func TestPoolErrorUnwrap(t *testing.T) {
	underlying := errors.New("not running")
	err := NewPoolError("submit", underlying)

	assert.ErrorIs(t, err, underlying)
}
