package wallet

import (
	"errors"
	"fmt"
)

var (
	ErrProviderNotFound   = errors.New("no compatible wallet provider found")
	ErrUserRejected       = errors.New("user rejected the request")
	ErrConnectInProgress  = errors.New("connection already in progress")
	ErrNotConnected       = errors.New("wallet not connected")
	ErrSigningUnsupported = errors.New("provider cannot sign messages")
)

// ConnectError is returned when the provider fails to grant account access
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect wallet: %v", e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// IsConnectError checks if error is ConnectError
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}

// SigningError is returned when a message could not be signed
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign message: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// IsSigningError checks if error is SigningError
func IsSigningError(err error) bool {
	var se *SigningError
	return errors.As(err, &se)
}
