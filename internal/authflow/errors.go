package authflow

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/phantom-wallet/internal/model"
)

var (
	ErrOperationInProgress = errors.New("another operation is in progress for this account")
	ErrAlreadyCompleted    = errors.New("operation already completed and cannot be repeated")
	ErrInvalidDescriptor   = errors.New("invalid operation descriptor")
	ErrSimulatedFailure    = errors.New("simulated execution failure")
)

// ExecutionError is returned when the operation effect fails after signing
type ExecutionError struct {
	Operation model.OperationType
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s execution failed: %v", e.Operation, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsExecutionError checks if error is ExecutionError
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}
