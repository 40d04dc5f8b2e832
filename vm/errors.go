package vm

import (
	"errors"

	"github.com/robbyt/go-jsonnetvm/internal/value"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrSessionClosed   = errors.New("session is closed")
	ErrSessionBusy     = errors.New("session is evaluating")
	ErrEvaluation      = errors.New("evaluation failed")
	// ErrProtocolViolation means the engine called back with data that breaks its own ABI,
	// such as a missing argument.
	ErrProtocolViolation = errors.New("engine protocol violation")

	ErrUnsupportedValueType = value.ErrUnsupportedType
	ErrUnknownNativeValue   = value.ErrUnknownNativeValue
)

// EvaluationError carries the engine's diagnostic for a failed evaluation. Error returns the
// engine text unmodified, including its trailing newline.
type EvaluationError struct {
	Filename string
	Message  string
}

func (e *EvaluationError) Error() string {
	return e.Message
}

func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}
