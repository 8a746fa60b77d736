package services

import (
	"log"

	"childcare/models"

	"github.com/goccy/go-json"
	"github.com/olahol/melody"
)

// WSEvent là message đẩy xuống các màn hình điểm danh đang mở
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

func broadcast(m *melody.Melody, event WSEvent) {
	if m == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Lỗi đóng gói ws event %s: %v", event.Type, err)
		return
	}
	if err := m.Broadcast(data); err != nil {
		log.Printf("Lỗi broadcast ws event %s: %v", event.Type, err)
	}
}

// BroadcastCheckIn báo các màn hình khác có lượt check-in mới
func BroadcastCheckIn(m *melody.Melody, rec *models.AttendanceRecord, syncResult string) {
	broadcast(m, WSEvent{Type: "check_in", Payload: map[string]interface{}{
		"record":     rec,
		"syncResult": syncResult,
	}})
}

// BroadcastCheckOut báo các màn hình khác có lượt check-out
func BroadcastCheckOut(m *melody.Melody, rec *models.AttendanceRecord, syncResult string) {
	broadcast(m, WSEvent{Type: "check_out", Payload: map[string]interface{}{
		"record":     rec,
		"syncResult": syncResult,
	}})
}

// BroadcastPendingCount cập nhật chỉ báo "Pending Sync" trên UI
func BroadcastPendingCount(m *melody.Melody, count int64) {
	broadcast(m, WSEvent{Type: "pending_sync", Payload: map[string]int64{"count": count}})
}
