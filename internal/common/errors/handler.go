// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"strings"
)

// ==========================
// 4. Normalization
// ==========================

// Failure is the closed set of raw collaborator outcomes Normalize accepts.
type Failure interface {
	failure()
}

// HTTPStatus is a response that arrived with a non-2xx status code.
type HTTPStatus struct {
	Code int
	Body []byte
}

// TransportFailure is a request that never produced a response.
type TransportFailure struct {
	Err error
}

// ParseFailure is a response whose body could not be decoded.
type ParseFailure struct {
	Err error
}

func (HTTPStatus) failure()       {}
func (TransportFailure) failure() {}
func (ParseFailure) failure()     {}

// rejectionBody is the collaborators' failure document.
type rejectionBody struct {
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// Normalize maps a raw failure onto an AppError.
func Normalize(f Failure) *AppError {
	switch f := f.(type) {
	case HTTPStatus:
		return normalizeStatus(f)
	case TransportFailure:
		if isTimeout(f.Err) {
			return NewTimeoutError(f.Err)
		}
		if stderrors.Is(f.Err, context.Canceled) {
			return NewUnknownError(f.Err)
		}
		return NewNetworkError(f.Err)
	case ParseFailure:
		e := NewUnknownError(f.Err)
		e.Code = ErrCodeParseFailure
		e.Message = MsgParse
		return e
	}
	return NewUnknownError(nil)
}

func normalizeStatus(f HTTPStatus) *AppError {
	code, message := statusDefaults(f.Code)

	var body rejectionBody
	if len(f.Body) > 0 && json.Unmarshal(f.Body, &body) == nil {
		if strings.TrimSpace(body.Message) != "" {
			message = body.Message
		}
	}

	return NewServerRejectedError(f.Code, code, message, fieldErrors(body.Errors))
}

// statusDefaults returns the code and default message for a status class.
func statusDefaults(status int) (ErrorCode, string) {
	switch {
	case status == 400:
		return ErrCodeBadRequest, MsgBadRequest
	case status == 401:
		return ErrCodeUnauthorized, MsgUnauthorized
	case status == 403:
		return ErrCodeForbidden, MsgForbidden
	case status == 404:
		return ErrCodeNotFound, MsgNotFound
	case status == 409:
		return ErrCodeConflict, MsgConflict
	case status == 422:
		return ErrCodeUnprocessable, MsgUnprocessable
	case status == 429:
		return ErrCodeRateLimited, MsgRateLimited
	case status >= 500:
		return ErrCodeServerError, MsgServerError
	default:
		return ErrCodeRequestFailed, MsgRequestFailed
	}
}

// fieldErrors keeps the first message per field. Values may be a list of
// messages or a single string.
func fieldErrors(raw map[string]json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for field, value := range raw {
		var list []string
		if json.Unmarshal(value, &list) == nil {
			if len(list) > 0 {
				out[field] = list[0]
			}
			continue
		}
		var single string
		if json.Unmarshal(value, &single) == nil && single != "" {
			out[field] = single
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// ==========================
// 5. Handler
// ==========================

// Logger is the subset of the common logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler turns arbitrary errors into AppErrors and logs the ones that
// fall outside the taxonomy.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle always returns an AppError for a non-nil err.
func (h *ErrorHandler) Handle(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		if appErr.Kind == KindUnknown {
			h.log(appErr)
		}
		return appErr
	}
	if isTimeout(err) {
		return NewTimeoutError(err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return NewNetworkError(err)
	}

	appErr := NewUnknownError(err)
	h.log(appErr)
	return appErr
}

func (h *ErrorHandler) log(e *AppError) {
	if h.logger == nil {
		return
	}
	h.logger.Error("unclassified error", map[string]interface{}{
		"code":    string(e.Code),
		"details": e.Details,
	})
}
