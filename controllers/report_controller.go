package controllers

import (
	"fmt"
	"time"

	"childcare/dto"
	"childcare/response"
	"childcare/services"
	"childcare/store"

	"github.com/gin-gonic/gin"
)

// GetReport trả về bản ghi điểm danh kèm tổng hợp theo filter
func GetReport(c *gin.Context) {
	var f dto.ReportFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	records, classes, err := services.QueryReport(c.Request.Context(), &f)
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, gin.H{
		"records": records,
		"summary": services.Summarize(records, classes),
	})
}

// ExportReport xuất báo cáo ra file CSV
func ExportReport(c *gin.Context) {
	var f dto.ReportFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	records, classes, err := services.QueryReport(c.Request.Context(), &f)
	if err != nil {
		handleAppError(c, err)
		return
	}

	filename := fmt.Sprintf("attendance_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "text/csv")
	if err := services.WriteReportCSV(c.Writer, records, classes); err != nil {
		response.ServerError(c)
	}
}

// GetDashboard trả về số liệu trang chủ cho ngày hôm nay
func GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	date := c.DefaultQuery("date", services.CurrentDate())

	records, err := services.Attendance.Records(ctx, store.RecordFilter{Date: date})
	if err != nil {
		handleAppError(c, err)
		return
	}
	active := 0
	for i := range records {
		if records[i].Open() {
			active++
		}
	}

	pending, err := services.Attendance.PendingCount(ctx)
	if err != nil {
		handleAppError(c, err)
		return
	}
	failed, err := services.Attendance.FailedWrites(ctx)
	if err != nil {
		handleAppError(c, err)
		return
	}
	roster, err := services.ListRoster(ctx)
	if err != nil {
		roster = nil
	}

	response.Success(c, dto.DashboardResponse{
		Date:         date,
		ActiveCount:  active,
		TotalToday:   len(records),
		PendingSync:  pending,
		FailedSync:   len(failed),
		RosterSize:   len(roster),
		RemoteMode:   services.Attendance.RemoteMode(),
		DefaultEvent: defaultEventID(),
	})
}

func defaultEventID() string {
	if event := configDefaultEvent(); event != nil {
		return event.ID
	}
	return ""
}
