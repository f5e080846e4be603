package protocol

import "fmt"

const (
	ErrMalformedFrame = 600
	ErrUnexpectedKind = 601
	ErrFrameTooLarge  = 602
	ErrNegativeNumber = 603
)

type IProtocolError interface {
	Code() int
	Error() string
}

type ProtocolError struct {
	code int
	msg  string
}

func (e *ProtocolError) Code() int {
	return e.code
}

func (e *ProtocolError) Error() string {
	return e.msg
}

func NewProtocolError(code int, msg string) IProtocolError {
	return &ProtocolError{code, msg}
}

func NewMalformedFrameError(reason string) IProtocolError {
	return NewProtocolError(ErrMalformedFrame, fmt.Sprintf("malformed frame: %s", reason))
}

func NewUnexpectedKindError(expected, actual fmt.Stringer) IProtocolError {
	return NewProtocolError(ErrUnexpectedKind, fmt.Sprintf("expected a %s frame but got %s", expected, actual))
}

func NewFrameTooLargeError(size uint32) IProtocolError {
	return NewProtocolError(ErrFrameTooLarge, fmt.Sprintf("frame of %d bytes exceeds limit of %d bytes", size, MaxFrameSize))
}

func NewNegativeNumberError(field string, n int64) IProtocolError {
	return NewProtocolError(ErrNegativeNumber, fmt.Sprintf("%s must not be negative, got %d", field, n))
}
