package store

import (
	"context"
	"sort"

	"childcare/constants"
	"childcare/models"
)

// AttendanceStore là contract chung cho hai backend lưu trữ (SQLite local và
// Google Sheets). Caller phía trên chỉ làm việc qua interface này, không bao
// giờ biết backend nào đang active.
type AttendanceStore interface {
	// FindChild tìm một bé theo tên đầy đủ
	FindChild(ctx context.Context, fullName string) (*models.Child, error)

	// ListChildren trả về toàn bộ danh sách đăng ký
	ListChildren(ctx context.Context) ([]models.Child, error)

	// ActiveTagHolders trả về map tag -> bản ghi đang Checked-In (chưa
	// check-out) cho một session trong một ngày. SessionID rỗng sẽ gom theo
	// ngày, dành cho dữ liệu cũ không gắn session.
	ActiveTagHolders(ctx context.Context, sessionID, date string) (map[string]models.AttendanceRecord, error)

	// CreateCheckIn tạo bản ghi check-in mới. Trả về ErrTagInUse nếu tag đang
	// được bé khác giữ, ErrChildAlreadyIn nếu bé đã có bản ghi mở trong cùng
	// session/ngày.
	CreateCheckIn(ctx context.Context, in CheckInInput) (*models.AttendanceRecord, error)

	// CheckOut đóng bản ghi đang mở của một tag. Trả về ErrNoActiveRecord
	// nếu tag không có bản ghi mở.
	CheckOut(ctx context.Context, in CheckOutInput) (*models.AttendanceRecord, error)

	// DeleteRecord xóa một bản ghi. Với local store id là khóa chính, với
	// sheets store id là số dòng trên sheet.
	DeleteRecord(ctx context.Context, id uint) error

	// QueryRecords trả về danh sách bản ghi theo filter, sắp xếp theo
	// (ngày, session, giờ check-in). Kết quả hữu hạn và chạy lại được.
	QueryRecords(ctx context.Context, f RecordFilter) ([]models.AttendanceRecord, error)
}

// CheckInInput là toàn bộ dữ liệu cần để tạo một lượt check-in. SyncUUID do
// client sinh ra và là identity chống ghi trùng khi replay.
type CheckInInput struct {
	SyncUUID string `json:"sync_uuid"`

	Date      string `json:"date"`
	ChildName string `json:"child_name"`

	EventID       string `json:"event_id"`
	EventName     string `json:"event_name"`
	SessionID     string `json:"session_id"`
	SessionLabel  string `json:"session_label"`
	SessionPeriod string `json:"session_period"`

	State          string `json:"state"`
	ChurchLocation string `json:"church_location"`
	CampGroup      string `json:"camp_group"`

	Service     string `json:"service"`
	DayTag      string `json:"day_tag"`
	CheckInTime string `json:"check_in_time"`
	Instructor  string `json:"instructor"`
	Notes       string `json:"notes"`
}

// Record dựng AttendanceRecord mở từ input
func (in CheckInInput) Record() models.AttendanceRecord {
	return models.AttendanceRecord{
		SyncUUID:       in.SyncUUID,
		Date:           in.Date,
		ChildName:      in.ChildName,
		EventID:        in.EventID,
		EventName:      in.EventName,
		SessionID:      in.SessionID,
		SessionLabel:   in.SessionLabel,
		SessionPeriod:  in.SessionPeriod,
		State:          in.State,
		ChurchLocation: in.ChurchLocation,
		CampGroup:      in.CampGroup,
		Service:        in.Service,
		DayTag:         in.DayTag,
		CheckInTime:    in.CheckInTime,
		Status:         constants.StatusCheckedIn,
		Instructor:     in.Instructor,
		Notes:          in.Notes,
	}
}

// CheckOutInput xác định bản ghi mở cần đóng theo (session, ngày, tag)
type CheckOutInput struct {
	Date         string `json:"date"`
	SessionID    string `json:"session_id"`
	DayTag       string `json:"day_tag"`
	CheckOutTime string `json:"check_out_time"`
}

// RecordFilter là bộ lọc truy vấn dùng cho trang attendance và báo cáo.
// Trường rỗng nghĩa là không lọc theo trường đó.
type RecordFilter struct {
	EventID        string
	SessionID      string
	Period         string
	State          string
	ChurchLocation string
	DayTag         string
	ChildName      string
	Status         string
	SyncStatus     string
	Date           string
	DateFrom       string
	DateTo         string
}

// Match kiểm tra một bản ghi có qua filter không (dùng cho backend không có
// query engine như Google Sheets; local backend đẩy điều kiện xuống SQL)
func (f RecordFilter) Match(r *models.AttendanceRecord) bool {
	// event_id rỗng trên bản ghi cũ vẫn được tính thuộc event đang xem,
	// giống cách bản gốc gom dữ liệu church-service không gắn event
	if f.EventID != "" && r.EventID != "" && r.EventID != f.EventID {
		return false
	}
	if f.SessionID != "" && r.SessionID != f.SessionID {
		return false
	}
	if f.Period != "" && r.SessionPeriod != f.Period {
		return false
	}
	if f.State != "" && r.State != f.State {
		return false
	}
	if f.ChurchLocation != "" && r.ChurchLocation != f.ChurchLocation {
		return false
	}
	if f.DayTag != "" && r.DayTag != f.DayTag {
		return false
	}
	if f.ChildName != "" && r.ChildName != f.ChildName {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.SyncStatus != "" && r.SyncStatus != f.SyncStatus {
		return false
	}
	if f.Date != "" && r.Date != f.Date {
		return false
	}
	if f.DateFrom != "" && r.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && r.Date > f.DateTo {
		return false
	}
	return true
}

// SortRecords sắp theo thứ tự hợp đồng của QueryRecords
func SortRecords(records []models.AttendanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := &records[i], &records[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		return a.CheckInTime < b.CheckInTime
	})
}
