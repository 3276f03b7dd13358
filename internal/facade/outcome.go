package facade

import (
	"encoding/json"

	"healthkit-bridge/internal/common/errors"
)

// Outcome is the single terminal result of a facade operation: either a typed
// response or a failure naming the operation and wrapping the original error.
// The response is reachable only on the success branch.
type Outcome[T any] struct {
	op      string
	value   T
	raw     json.RawMessage
	failure *errors.StandardError
}

func succeeded[T any](op string, v T, raw json.RawMessage) Outcome[T] {
	return Outcome[T]{op: op, value: v, raw: raw}
}

func failed[T any](op string, f *errors.StandardError) Outcome[T] {
	return Outcome[T]{op: op, failure: f}
}

func (o Outcome[T]) Operation() string { return o.op }

func (o Outcome[T]) Succeeded() bool { return o.failure == nil }

// Value returns the response and true on success, or the zero value and false.
func (o Outcome[T]) Value() (T, bool) {
	if o.failure != nil {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Raw returns the collaborator's serialized response on success.
func (o Outcome[T]) Raw() (json.RawMessage, bool) {
	if o.failure != nil {
		return nil, false
	}
	return o.raw, true
}

// Err returns the failure, or nil on success.
func (o Outcome[T]) Err() error {
	if o.failure == nil {
		return nil
	}
	return o.failure
}

func (o Outcome[T]) Failure() *errors.StandardError { return o.failure }

// Match runs exactly one of the callbacks. Nil callbacks are skipped.
func (o Outcome[T]) Match(onSuccess func(T), onFailure func(*errors.StandardError)) {
	if o.failure != nil {
		if onFailure != nil {
			onFailure(o.failure)
		}
		return
	}
	if onSuccess != nil {
		onSuccess(o.value)
	}
}
