package domain

import (
	"fmt"
)

// Error is a failure that maps to a VWS JSON error response: a status code
// plus a result code rendered as {"transaction_id": ..., "result_code": ...}.
type Error struct {
	ResultCode string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.ResultCode, e.Err)
	}
	return e.ResultCode
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by result code and status, so a sentinel compares
// equal to its WithCause copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.ResultCode == e.ResultCode && t.StatusCode == e.StatusCode
}

func (e *Error) WithCause(err error) *Error {
	return &Error{
		ResultCode: e.ResultCode,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// RawError is a failure whose response body is not the standard JSON shape.
// The real service answers some malformed requests with plain text, HTML or
// an empty body plus specific headers; those responses are reproduced here.
type RawError struct {
	StatusCode  int
	ContentType string
	Body        string
	Header      map[string]string
}

func (e *RawError) Error() string {
	return fmt.Sprintf("raw response %d: %s", e.StatusCode, e.Body)
}

// Pre-defined errors
var (
	ErrAuthenticationFailure = &Error{
		ResultCode: ResultAuthenticationFailure,
		StatusCode: 401,
	}

	ErrFail = &Error{
		ResultCode: ResultFail,
		StatusCode: 400,
	}

	ErrFailUnprocessable = &Error{
		ResultCode: ResultFail,
		StatusCode: 422,
	}

	ErrRequestTimeTooSkewed = &Error{
		ResultCode: ResultRequestTimeTooSkewed,
		StatusCode: 403,
	}

	ErrTargetNameExist = &Error{
		ResultCode: ResultTargetNameExist,
		StatusCode: 400,
	}

	ErrUnknownTarget = &Error{
		ResultCode: ResultUnknownTarget,
		StatusCode: 404,
	}

	ErrProjectInactive = &Error{
		ResultCode: ResultProjectInactive,
		StatusCode: 403,
	}

	ErrInactiveProject = &Error{
		ResultCode: ResultInactiveProject,
		StatusCode: 403,
	}

	ErrBadImage = &Error{
		ResultCode: ResultBadImage,
		StatusCode: 422,
	}

	ErrImageTooLarge = &Error{
		ResultCode: ResultImageTooLarge,
		StatusCode: 422,
	}

	ErrMetadataTooLarge = &Error{
		ResultCode: ResultMetadataTooLarge,
		StatusCode: 422,
	}
)
