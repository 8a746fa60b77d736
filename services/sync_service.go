package services

import (
	"context"
	"log"

	"github.com/olahol/melody"
)

// SyncFlusher implement jobs.QueueFlusher: cron gọi định kỳ để đẩy hàng đợi
// lên Google Sheets và cập nhật chỉ báo pending trên các màn hình
type SyncFlusher struct{}

func (SyncFlusher) FlushQueue(ctx context.Context, m *melody.Melody) error {
	if Attendance == nil || !Attendance.RemoteMode() {
		return nil
	}
	report, err := Attendance.Flush(ctx)
	if err != nil {
		return err
	}
	if report.Processed > 0 || report.Failed > 0 {
		log.Printf("Flush hàng đợi: %d lên sheet, %d lỗi, %d còn chờ",
			report.Processed, report.Failed, report.Remaining)
	}
	BroadcastPendingCount(m, report.Remaining)
	return nil
}
