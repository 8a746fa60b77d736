package controllers

import (
	"childcare/dto"
	"childcare/response"
	"childcare/services"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

type SyncController struct {
	m *melody.Melody
}

func NewSyncController(m *melody.Melody) *SyncController {
	return &SyncController{m: m}
}

// GetStatus trả về trạng thái hàng đợi đồng bộ
func (sc *SyncController) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	count, err := services.Attendance.PendingCount(ctx)
	if err != nil {
		handleAppError(c, err)
		return
	}
	pending, err := services.Attendance.PendingWrites(ctx)
	if err != nil {
		handleAppError(c, err)
		return
	}
	failed, err := services.Attendance.FailedWrites(ctx)
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, dto.SyncStatusResponse{
		PendingCount: count,
		Pending:      pending,
		Failed:       failed,
	})
}

// Flush đẩy hàng đợi lên remote ngay, không chờ cron
func (sc *SyncController) Flush(c *gin.Context) {
	report, err := services.Attendance.Flush(c.Request.Context())
	if err != nil {
		handleAppError(c, err)
		return
	}
	services.BroadcastPendingCount(sc.m, report.Remaining)
	response.Success(c, report)
}

// Retry đưa các entry failed về pending rồi flush lại một lượt
func (sc *SyncController) Retry(c *gin.Context) {
	reset, report, err := services.Attendance.RetryFailed(c.Request.Context())
	if err != nil {
		handleAppError(c, err)
		return
	}
	services.BroadcastPendingCount(sc.m, report.Remaining)
	response.Success(c, dto.RetryResponse{
		Reset:     reset,
		Processed: report.Processed,
		Failed:    report.Failed,
		Remaining: report.Remaining,
	})
}
