package tools

import "fmt"

const (
	CodeUnknownOperation = -32601
	CodeInvalidInput     = -32602
	CodeProcessing       = -32603
)

// CodedError is implemented by every error the dispatcher reports to callers.
type CodedError interface {
	error
	Code() int
	Kind() string
}

type InvalidInputError struct {
	Err error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("Invalid input: %v", e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }
func (e *InvalidInputError) Code() int     { return CodeInvalidInput }
func (e *InvalidInputError) Kind() string  { return "invalid_input" }

// ProcessingError is an engine failure while loading the model or running
// the operation.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("Error processing UVL content: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
func (e *ProcessingError) Code() int     { return CodeProcessing }
func (e *ProcessingError) Kind() string  { return "processing" }

type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("Unknown method: %s", e.Name)
}

func (e *UnknownOperationError) Code() int    { return CodeUnknownOperation }
func (e *UnknownOperationError) Kind() string { return "unknown_operation" }
