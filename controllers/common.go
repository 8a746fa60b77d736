package controllers

import (
	stderrors "errors"

	"childcare/errors"
	"childcare/response"
	"childcare/utils"

	"github.com/gin-gonic/gin"
)

// handleAppError map lỗi domain sang HTTP response. Lỗi state machine điểm
// danh trả 409 để UI hiện cảnh báo thay vì màn hình lỗi.
func handleAppError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		utils.LogError("Lỗi không phân loại tại %s: %v", c.FullPath(), err)
		response.ServerError(c)
		return
	}

	switch {
	case errors.IsStateConflict(err):
		response.Conflict(c, appErr.Message)
	case stderrors.Is(err, errors.ErrChildNotFound),
		stderrors.Is(err, errors.ErrRecordNotFound),
		appErr.Code == errors.ErrCodeEventNotFound,
		appErr.Code == errors.ErrCodeSessionNotFound:
		response.NotFound(c, appErr.Message)
	case stderrors.Is(err, errors.ErrRemoteUnreachable):
		response.ServiceUnavailable(c, appErr.Message)
	case stderrors.Is(err, errors.ErrRemoteRejected):
		response.BadRequest(c, appErr.Message)
	case appErr.Code == errors.ErrCodeUnauthorized,
		appErr.Code == errors.ErrCodeInvalidPassword,
		appErr.Code == errors.ErrCodeInvalidToken:
		response.Unauthorized(c)
	case appErr.Code == errors.ErrCodeValidation,
		appErr.Code == errors.ErrCodeRequiredField,
		appErr.Code == errors.ErrCodeInvalidFormat,
		appErr.Code == errors.ErrCodeInvalidRole,
		appErr.Code == errors.ErrCodeUserExists,
		appErr.Code == errors.ErrCodeDBDuplicate:
		response.BadRequest(c, appErr.Message)
	default:
		response.ServerError(c)
	}
}
