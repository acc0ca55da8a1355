package response

import (
	"encoding/json"
	"fmt"
	"strings"

	"r-cli/internal/proto"
)

// ReqlError is implemented by every error type the server protocol can
// produce. Callers that only care about "did the server complain" can type
// switch/assert on this instead of enumerating every concrete type.
type ReqlError interface {
	error
	isReqlError()
}

// ReqlClientError is returned when the server reports a CLIENT_ERROR (response type 16).
type ReqlClientError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlClientError) Error() string { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlClientError) isReqlError()  {}

// ReqlCompileError is returned when the server reports a COMPILE_ERROR (response type 17).
type ReqlCompileError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlCompileError) Error() string { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlCompileError) isReqlError()  {}

// ReqlRuntimeError is returned for RUNTIME_ERROR (response type 18) with no specific subtype.
type ReqlRuntimeError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlRuntimeError) Error() string      { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlRuntimeError) isReqlError()       {}
func (e *ReqlRuntimeError) isReqlRuntimeError() {}

// ReqlQueryLogicError is a RUNTIME_ERROR with ErrorType QUERY_LOGIC, or any
// of its more specific subtypes (currently just NON_EXISTENCE).
type ReqlQueryLogicError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlQueryLogicError) Error() string        { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlQueryLogicError) isReqlError()         {}
func (e *ReqlQueryLogicError) isReqlRuntimeError()  {}
func (e *ReqlQueryLogicError) isReqlQueryLogicError() {}

// ReqlNonExistenceError is a RUNTIME_ERROR with ErrorType NON_EXISTENCE, a
// ReqlQueryLogicError subtype raised by operations like get/default on a
// missing value.
type ReqlNonExistenceError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlNonExistenceError) Error() string        { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlNonExistenceError) isReqlError()         {}
func (e *ReqlNonExistenceError) isReqlRuntimeError()  {}
func (e *ReqlNonExistenceError) isReqlQueryLogicError() {}

// ReqlOpFailedError is a RUNTIME_ERROR with ErrorType OP_FAILED: the
// operation did not complete and had no side effect.
type ReqlOpFailedError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlOpFailedError) Error() string      { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlOpFailedError) isReqlError()       {}
func (e *ReqlOpFailedError) isReqlRuntimeError() {}

// ReqlOpIndeterminateError is a RUNTIME_ERROR with ErrorType
// OP_INDETERMINATE: the operation may or may not have completed.
type ReqlOpIndeterminateError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlOpIndeterminateError) Error() string      { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlOpIndeterminateError) isReqlError()       {}
func (e *ReqlOpIndeterminateError) isReqlRuntimeError() {}

// ReqlUserError is a RUNTIME_ERROR with ErrorType USER, raised by r.error()
// calls inside the query itself.
type ReqlUserError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlUserError) Error() string      { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlUserError) isReqlError()       {}
func (e *ReqlUserError) isReqlRuntimeError() {}

// ReqlInternalError is a RUNTIME_ERROR with ErrorType INTERNAL, indicating a
// server-side bug.
type ReqlInternalError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlInternalError) Error() string      { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlInternalError) isReqlError()       {}
func (e *ReqlInternalError) isReqlRuntimeError() {}

// ReqlResourceLimitError is a RUNTIME_ERROR with ErrorType RESOURCE_LIMIT.
type ReqlResourceLimitError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlResourceLimitError) Error() string      { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlResourceLimitError) isReqlError()       {}
func (e *ReqlResourceLimitError) isReqlRuntimeError() {}

// ReqlPermissionError is a RUNTIME_ERROR with ErrorType PERMISSION_ERROR.
type ReqlPermissionError struct {
	Msg       string
	backtrace []json.RawMessage
}

func (e *ReqlPermissionError) Error() string      { return formatMsg(e.Msg, e.backtrace) }
func (e *ReqlPermissionError) isReqlError()       {}
func (e *ReqlPermissionError) isReqlRuntimeError() {}

// MapError converts a server error response into a typed Go error.
// Returns nil for non-error response types.
func MapError(resp *Response) error {
	if !resp.Type.IsError() {
		return nil
	}
	msg := extractMessage(resp.Results)
	bt := resp.Backtrace

	switch resp.Type {
	case proto.ResponseClientError:
		return &ReqlClientError{Msg: msg, backtrace: bt}
	case proto.ResponseCompileError:
		return &ReqlCompileError{Msg: msg, backtrace: bt}
	case proto.ResponseRuntimeError:
		return mapRuntimeError(msg, resp.ErrType, bt)
	default:
		return fmt.Errorf("reql: unknown error response type %d: %s", resp.Type, msg)
	}
}

func mapRuntimeError(msg string, errType proto.ErrorType, bt []json.RawMessage) error {
	switch errType {
	case proto.ErrorNonExistence:
		return &ReqlNonExistenceError{Msg: msg, backtrace: bt}
	case proto.ErrorQueryLogic:
		return &ReqlQueryLogicError{Msg: msg, backtrace: bt}
	case proto.ErrorOpFailed:
		return &ReqlOpFailedError{Msg: msg, backtrace: bt}
	case proto.ErrorOpIndeterminate:
		return &ReqlOpIndeterminateError{Msg: msg, backtrace: bt}
	case proto.ErrorUser:
		return &ReqlUserError{Msg: msg, backtrace: bt}
	case proto.ErrorInternal:
		return &ReqlInternalError{Msg: msg, backtrace: bt}
	case proto.ErrorResourceLimit:
		return &ReqlResourceLimitError{Msg: msg, backtrace: bt}
	case proto.ErrorPermission:
		return &ReqlPermissionError{Msg: msg, backtrace: bt}
	default:
		return &ReqlRuntimeError{Msg: msg, backtrace: bt}
	}
}

// extractMessage returns the first string result from the results array.
func extractMessage(results []json.RawMessage) string {
	if len(results) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(results[0], &s); err != nil {
		return string(results[0])
	}
	return s
}

// formatMsg appends backtrace frames to the message when frames are present.
func formatMsg(msg string, bt []json.RawMessage) string {
	if len(bt) == 0 {
		return msg
	}
	frames := make([]string, len(bt))
	for i, f := range bt {
		frames[i] = string(f)
	}
	return fmt.Sprintf("%s\nBacktrace: %s", msg, strings.Join(frames, ", "))
}
