package controllers

import (
	"strconv"

	"childcare/constants"
	"childcare/dto"
	"childcare/response"
	"childcare/services"
	"childcare/store"
	"childcare/validator"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

type AttendanceController struct {
	m *melody.Melody
}

func NewAttendanceController(m *melody.Melody) *AttendanceController {
	return &AttendanceController{m: m}
}

// CheckIn tạo lượt check-in. Trả 200 khi bản ghi đã nằm trên backend active,
// 202 khi mất mạng và thao tác mới nằm trong hàng đợi.
func (ac *AttendanceController) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validator.ValidateCheckIn(&req); err != nil {
		handleAppError(c, err)
		return
	}

	result, err := services.CheckIn(c.Request.Context(), &req, ac.m)
	if err != nil {
		handleAppError(c, err)
		return
	}

	body := dto.AttendanceWriteResponse{Record: result.Record, SyncResult: result.SyncResult}
	if result.SyncResult == constants.SyncResultQueuedPending {
		response.Accepted(c, body)
		return
	}
	response.Success(c, body)
}

// CheckOut đóng bản ghi mở của một tag
func (ac *AttendanceController) CheckOut(c *gin.Context) {
	var req dto.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validator.ValidateCheckOut(&req); err != nil {
		handleAppError(c, err)
		return
	}

	result, err := services.CheckOut(c.Request.Context(), &req, ac.m)
	if err != nil {
		handleAppError(c, err)
		return
	}

	body := dto.AttendanceWriteResponse{Record: result.Record, SyncResult: result.SyncResult}
	if result.SyncResult == constants.SyncResultQueuedPending {
		response.Accepted(c, body)
		return
	}
	response.Success(c, body)
}

// GetActiveTags trả về các tag đang được giữ trong session/ngày
func (ac *AttendanceController) GetActiveTags(c *gin.Context) {
	tags, err := services.ActiveTags(c.Request.Context(), c.Query("sessionId"), c.Query("date"))
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.SuccessWithTotal(c, tags, len(tags))
}

// GetRecords trả về bản ghi điểm danh theo filter
func (ac *AttendanceController) GetRecords(c *gin.Context) {
	var f dto.ReportFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	records, _, err := services.QueryReport(c.Request.Context(), &f)
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.SuccessWithTotal(c, records, len(records))
}

// DeleteRecord xóa một bản ghi điểm danh. Query param source=remote thì id là
// số dòng trên sheet.
func (ac *AttendanceController) DeleteRecord(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID không hợp lệ")
		return
	}
	source := c.DefaultQuery("source", "local")
	if err := services.Attendance.DeleteRecord(c.Request.Context(), uint(id), source); err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetPendingRecords trả về các bản ghi shadow chưa lên sheet
func (ac *AttendanceController) GetPendingRecords(c *gin.Context) {
	records, err := services.Attendance.Records(c.Request.Context(), store.RecordFilter{
		SyncStatus: constants.SyncStatusPending,
		Date:       c.Query("date"),
	})
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.SuccessWithTotal(c, records, len(records))
}
