package services

import (
	"context"
	"encoding/csv"
	"io"

	"childcare/constants"
	"childcare/dto"
	"childcare/models"
	"childcare/store"
)

var reportCSVHeaders = []string{
	"Date",
	"Child Name",
	"Class Type",
	"Event",
	"Session",
	"Period",
	"State",
	"Church Location",
	"Camp Group",
	"Day Tag",
	"Check-in Time",
	"Check-out Time",
	"Status",
	"Instructor",
	"Sync Status",
}

func toRecordFilter(f *dto.ReportFilter) store.RecordFilter {
	return store.RecordFilter{
		EventID:        f.EventID,
		SessionID:      f.SessionID,
		Period:         f.Period,
		State:          f.State,
		ChurchLocation: f.ChurchLocation,
		ChildName:      f.ChildName,
		DayTag:         f.DayTag,
		Status:         f.Status,
		Date:           f.Date,
		DateFrom:       f.DateFrom,
		DateTo:         f.DateTo,
	}
}

// rosterClassMap tra lớp theo tên bé. Bản ghi điểm danh không lưu lớp (lớp có
// thể đổi giữa camp) nên báo cáo join với roster lúc đọc.
func rosterClassMap(ctx context.Context) map[string]string {
	children, err := ListRoster(ctx)
	if err != nil {
		return nil
	}
	classes := make(map[string]string, len(children))
	for i := range children {
		classes[children[i].FullName] = children[i].ClassType
	}
	return classes
}

// QueryReport trả về bản ghi điểm danh theo filter báo cáo, kèm map lớp
func QueryReport(ctx context.Context, f *dto.ReportFilter) ([]models.AttendanceRecord, map[string]string, error) {
	records, err := Attendance.Records(ctx, toRecordFilter(f))
	if err != nil {
		return nil, nil, err
	}
	classes := rosterClassMap(ctx)
	if f.ClassType != "" {
		filtered := records[:0]
		for _, rec := range records {
			if classes[rec.ChildName] == f.ClassType {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	return records, classes, nil
}

// Summarize tổng hợp số liệu đầu trang báo cáo
func Summarize(records []models.AttendanceRecord, classes map[string]string) dto.ReportSummary {
	summary := dto.ReportSummary{
		ByClass:  make(map[string]int),
		ByDate:   make(map[string]int),
		ByPeriod: make(map[string]int),
	}
	for i := range records {
		rec := &records[i]
		summary.Total++
		if rec.Open() {
			summary.CheckedIn++
		} else {
			summary.CheckedOut++
		}
		if rec.SyncStatus != constants.SyncStatusSynced {
			summary.Pending++
		}
		if class := classes[rec.ChildName]; class != "" {
			summary.ByClass[class]++
		}
		summary.ByDate[rec.Date]++
		if rec.SessionPeriod != "" {
			summary.ByPeriod[rec.SessionPeriod]++
		}
	}
	return summary
}

// WriteReportCSV xuất báo cáo điểm danh ra CSV
func WriteReportCSV(w io.Writer, records []models.AttendanceRecord, classes map[string]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(reportCSVHeaders); err != nil {
		return err
	}
	for i := range records {
		rec := &records[i]
		row := []string{
			rec.Date,
			rec.ChildName,
			classes[rec.ChildName],
			rec.EventName,
			rec.SessionLabel,
			rec.SessionPeriod,
			rec.State,
			rec.ChurchLocation,
			rec.CampGroup,
			rec.DayTag,
			rec.CheckInTime,
			rec.CheckOutTime,
			rec.Status,
			rec.Instructor,
			rec.SyncStatus,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
