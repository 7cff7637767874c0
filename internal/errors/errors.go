// Package errors defines the tagged, Unwrap-able error types searchd uses
// instead of bare fmt.Errorf, so callers can errors.As for a specific
// failure category (config, listen, file, pool, protocol).
package errors

import (
	"fmt"
	"time"

	"github.com/standardbeagle/searchd/internal/types"
)

// ErrorType tags which failure category an error belongs to.
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeListen   ErrorType = "listen"
	ErrorTypeFile     ErrorType = "file"
	ErrorTypePool     ErrorType = "pool"
	ErrorTypeProtocol ErrorType = "protocol"
)

// FileError wraps a failure to open or read a file during ingestion.
type FileError struct {
	Path       string
	FileID     types.FileID
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewFileError(op, path string, err error) *FileError {
	return &FileError{Operation: op, Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *FileError) Unwrap() error { return e.Underlying }

// ConfigError wraps a configuration validation failure. These are
// fatal at startup.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err, Timestamp: time.Now()}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %q): %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// ListenError wraps a fatal listen-socket setup failure.
type ListenError struct {
	Address    string
	Underlying error
}

func NewListenError(address string, err error) *ListenError {
	return &ListenError{Address: address, Underlying: err}
}

func (e *ListenError) Error() string {
	return fmt.Sprintf("failed to listen on %s: %v", e.Address, e.Underlying)
}

func (e *ListenError) Unwrap() error { return e.Underlying }

// PoolError is returned by Submit when the pool cannot accept work,
// such as submitting while the pool is not in the Running phase.
type PoolError struct {
	Op         string
	Underlying error
}

func NewPoolError(op string, err error) *PoolError {
	return &PoolError{Op: op, Underlying: err}
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("pool: %s: %v", e.Op, e.Underlying)
}

func (e *PoolError) Unwrap() error { return e.Underlying }

// ProtocolError wraps a malformed-request failure in the connection
// dispatcher. These are always logged and end the session; they never
// propagate to the pool or orchestrator.
type ProtocolError struct {
	Peer       string
	Underlying error
}

func NewProtocolError(peer string, err error) *ProtocolError {
	return &ProtocolError{Peer: peer, Underlying: err}
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error from %s: %v", e.Peer, e.Underlying)
}

func (e *ProtocolError) Unwrap() error { return e.Underlying }
