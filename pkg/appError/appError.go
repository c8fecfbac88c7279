package appError

import (
	"errors"
	"net/http"
)

type AppError interface {
	error
	HTTPStatus() int
	Code() int
}

// our custom error
type appErr struct {
	message    string
	httpStatus int
	code       int
}

func (e appErr) Error() string {
	return e.message
}

func (e appErr) HTTPStatus() int {
	return e.httpStatus
}

func (e appErr) Code() int {
	return e.code
}

// below is default errors with default codes
// the error code is equal to the http status

// BadRequest is the validation error: malformed or missing input.
func BadRequest(text string) AppError {
	return appErr{
		message:    text,
		httpStatus: http.StatusBadRequest,
		code:       400,
	}
}

func Internal() AppError {
	return appErr{
		message:    "internal server error",
		httpStatus: http.StatusInternalServerError,
		code:       500,
	}
}

func NotFound(text string) AppError {
	if text == "" {
		text = "not found"
	}
	return appErr{
		message:    text,
		httpStatus: http.StatusNotFound,
		code:       404,
	}
}

func Unauthorized() AppError {
	return appErr{
		message:    "not authorized",
		httpStatus: http.StatusUnauthorized,
		code:       401,
	}
}

func MethodNotAllowed() AppError {
	return appErr{
		message:    "method not allowed",
		httpStatus: http.StatusMethodNotAllowed,
		code:       405,
	}
}

func Forbidden(text string) AppError {
	if text == "" {
		text = "Forbidden"
	}
	return appErr{
		message:    text,
		httpStatus: http.StatusForbidden,
		code:       403,
	}
}

// Conflict is returned when a document kept changing under a
// read-modify-write and the retries ran out.
func Conflict(text string) AppError {
	return appErr{
		message:    text,
		httpStatus: http.StatusConflict,
		code:       409,
	}
}

func TooManyRequests() AppError {
	return appErr{
		message:    "too many requests",
		httpStatus: http.StatusTooManyRequests,
		code:       429,
	}
}

// CodeOf returns the application code of err, 500 for foreign errors.
func CodeOf(err error) int {
	var ae AppError
	if errors.As(err, &ae) {
		return ae.Code()
	}
	return 500
}
