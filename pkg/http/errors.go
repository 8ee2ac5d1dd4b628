package http

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is an error with an HTTP status and a stable machine code.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

// NewAppError builds an error answered with status. An empty code is derived
// from the status text, e.g. ERR_BAD_GATEWAY.
func NewAppError(status int, code, message string) *AppError {
	if code == "" {
		code = statusCode(status)
	}
	return &AppError{Code: code, Message: message, Status: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

var codeReplacer = strings.NewReplacer(" ", "_", "-", "_", "'", "")

func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERR_UNKNOWN"
	}
	return "ERR_" + strings.ToUpper(codeReplacer.Replace(text))
}
