package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// typeByStatus names the error type for responses built from a bare status.
var typeByStatus = map[int]ErrorType{
	http.StatusBadRequest:         ErrorTypeValidation,
	http.StatusUnauthorized:       ErrorTypeUnauthorized,
	http.StatusNotFound:           ErrorTypeNotFound,
	http.StatusConflict:           ErrorTypeConflict,
	http.StatusServiceUnavailable: ErrorTypeUnavailable,
}

// ErrorHandler renders errors as JSON and logs them at a level that follows
// the response status. Only AppError messages reach clients; anything else
// becomes a generic internal error unless debug is on.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes the response for err. A nil err writes nothing.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	status, body := h.render(r, err)
	h.write(w, status, body)
}

func (h *ErrorHandler) render(r *http.Request, err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: true, RequestID: requestIDOf(r)}

	appErr := GetAppError(err)
	if appErr == nil {
		body.Type = string(ErrorTypeInternal)
		body.Message = "An internal error occurred"
		if h.debug {
			body.Message = err.Error()
		}
		h.log(r, http.StatusInternalServerError, "Unhandled error", zap.Error(err))
		return http.StatusInternalServerError, body
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	body.Type = string(appErr.Type)
	body.Message = appErr.Message
	body.Code = appErr.Code
	body.Details = appErr.Details

	fields := []zap.Field{zap.String("error_type", string(appErr.Type))}
	if appErr.Code != "" {
		fields = append(fields, zap.String("error_code", appErr.Code))
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}
	if appErr.Details != nil {
		fields = append(fields, zap.Any("details", appErr.Details))
	}
	h.log(r, status, appErr.Message, fields...)

	if h.debug && appErr.StackTrace != "" {
		// copy so the shared AppError is not mutated
		details := make(map[string]interface{}, len(body.Details)+1)
		for k, v := range body.Details {
			details[k] = v
		}
		details["stack_trace"] = appErr.StackTrace
		body.Details = details
	}
	return status, body
}

// HandleStatus writes an error response for a status without an AppError.
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	errType, ok := typeByStatus[status]
	if !ok {
		errType = ErrorTypeInternal
	}
	h.log(r, status, message)
	h.write(w, status, ErrorResponse{
		Error:     true,
		Type:      string(errType),
		Message:   message,
		RequestID: requestIDOf(r),
	})
}

func (h *ErrorHandler) log(r *http.Request, status int, msg string, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", requestIDOf(r)),
	}, extra...)

	switch {
	case status >= http.StatusInternalServerError:
		h.logger.Error(msg, fields...)
	case status >= http.StatusBadRequest:
		h.logger.Warn(msg, fields...)
	default:
		h.logger.Info(msg, fields...)
	}
}

func (h *ErrorHandler) write(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err), zap.String("type", body.Type))
	}
}

func requestIDOf(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// Middleware recovers panics from next and answers 500.
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
