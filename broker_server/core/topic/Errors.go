package topic

import "fmt"

const (
	TopicErrInvalidCapacity = 501
	TopicErrBindFailed      = 502
	TopicErrRegistryStopped = 503
	TopicErrPortsExhausted  = 504
	TopicErrNotFound        = 505
	TopicErrReservedName    = 506
)

type ITopicError interface {
	Code() int
	Error() string
}

type TopicError struct {
	code int
	msg  string
}

func (e *TopicError) Code() int {
	return e.code
}

func (e *TopicError) Error() string {
	return e.msg
}

func NewTopicError(code int, msg string) ITopicError {
	return &TopicError{code, msg}
}

func NewInvalidCapacityError(topic string, capacity int) ITopicError {
	return NewTopicError(TopicErrInvalidCapacity, fmt.Sprintf("capacity %d of topic %s is out of range", capacity, topic))
}

func NewBindFailedError(topic string, port int, cause error) ITopicError {
	return NewTopicError(TopicErrBindFailed, fmt.Sprintf("topic %s unable to bind port %d due to %s", topic, port, cause.Error()))
}

func NewRegistryStoppedError(topic string) ITopicError {
	return NewTopicError(TopicErrRegistryStopped, fmt.Sprintf("registry is stopping, topic %s can not be resolved", topic))
}

func NewPortsExhaustedError(min, max int) ITopicError {
	return NewTopicError(TopicErrPortsExhausted, fmt.Sprintf("no free port left in [%d, %d)", min, max))
}

func NewTopicNotFoundError(topic string) ITopicError {
	return NewTopicError(TopicErrNotFound, fmt.Sprintf("topic %s is not found", topic))
}

func NewReservedNameError(topic string) ITopicError {
	return NewTopicError(TopicErrReservedName, fmt.Sprintf("topic name %q is reserved", topic))
}

func IsTopicError(err error, code int) bool {
	te, ok := err.(ITopicError)
	return ok && te.Code() == code
}
