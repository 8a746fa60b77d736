package errors

import (
	"errors"
	"fmt"
)

// ErrorCode định nghĩa mã lỗi
type ErrorCode string

const (
	// Auth errors
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken    ErrorCode = "INVALID_TOKEN"
	ErrCodeMissingToken    ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidPassword ErrorCode = "INVALID_PASSWORD"
	ErrCodeUserExists      ErrorCode = "USER_EXISTS"
	ErrCodeInvalidRole     ErrorCode = "INVALID_ROLE"

	// Attendance errors
	ErrCodeTagInUse       ErrorCode = "TAG_IN_USE"
	ErrCodeChildAlreadyIn ErrorCode = "CHILD_ALREADY_IN"
	ErrCodeNoActiveRecord ErrorCode = "NO_ACTIVE_RECORD"
	ErrCodeChildNotFound  ErrorCode = "CHILD_NOT_FOUND"
	ErrCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"

	// Sync errors
	ErrCodeRemoteUnreachable ErrorCode = "REMOTE_UNREACHABLE"
	ErrCodeRemoteRejected    ErrorCode = "REMOTE_REJECTED"
	ErrCodeQueueExhausted    ErrorCode = "QUEUE_EXHAUSTED"

	// Catalog errors
	ErrCodeEventNotFound   ErrorCode = "EVENT_NOT_FOUND"
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Database errors
	ErrCodeDBError     ErrorCode = "DB_ERROR"
	ErrCodeDBNotFound  ErrorCode = "DB_NOT_FOUND"
	ErrCodeDBDuplicate ErrorCode = "DB_DUPLICATE"

	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeRequiredField ErrorCode = "REQUIRED_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// AppError định nghĩa lỗi của ứng dụng
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError tạo một AppError mới
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// GetAppError lấy AppError từ error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

var (
	// Lỗi trạng thái điểm danh (trả thẳng cho người dùng)
	ErrTagInUse       = errors.New("tag is already in use")
	ErrChildAlreadyIn = errors.New("child is already checked in")
	ErrNoActiveRecord = errors.New("no active attendance record for tag")

	// Lỗi tra cứu
	ErrChildNotFound  = errors.New("child not found")
	ErrRecordNotFound = errors.New("attendance record not found")

	// Lỗi phía remote backend
	ErrRemoteUnreachable = errors.New("remote backend unreachable")
	ErrRemoteRejected    = errors.New("remote backend rejected the write")
	ErrQueueExhausted    = errors.New("pending write exceeded retry budget")

	// Lỗi auth
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUnauthorized    = errors.New("unauthorized")
)

// IsStateConflict kiểm tra error có phải vi phạm state machine điểm danh không
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrTagInUse) ||
		errors.Is(err, ErrChildAlreadyIn) ||
		errors.Is(err, ErrNoActiveRecord)
}
