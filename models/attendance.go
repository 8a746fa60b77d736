package models

import "time"

// AttendanceRecord là một lượt check-in/check-out của một bé trong một session.
// Cùng một struct được dùng cho cả bản ghi local (SQLite) và hàng trên
// Google Sheets; SyncUUID là identity ổn định giữa hai phía.
type AttendanceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	SyncUUID string `gorm:"uniqueIndex;not null" json:"syncUuid"`

	Date      string `gorm:"index;not null" json:"date"` // YYYY-MM-DD
	ChildName string `gorm:"index;not null" json:"childName"`

	EventID       string `gorm:"index" json:"eventId"`
	EventName     string `json:"eventName"`
	SessionID     string `gorm:"index" json:"sessionId"`
	SessionLabel  string `json:"sessionLabel"`
	SessionPeriod string `json:"sessionPeriod"`

	State          string `json:"state"`
	ChurchLocation string `json:"churchLocation"`
	CampGroup      string `json:"campGroup"`

	// Service giữ lại cách gọi cũ "Morning Service" cho các event mặc định
	Service string `gorm:"not null" json:"service"`
	DayTag  string `gorm:"index;not null" json:"dayTag"`

	CheckInTime  string `gorm:"not null" json:"checkInTime"` // HH:MM
	CheckOutTime string `gorm:"default:''" json:"checkOutTime"`
	Status       string `gorm:"index;not null" json:"status"`

	Instructor string `json:"instructor"`
	Notes      string `gorm:"type:text" json:"notes"`

	SyncStatus string     `gorm:"index;not null;default:synced" json:"syncStatus"`
	SyncedAt   *time.Time `json:"syncedAt,omitempty"`

	// RemoteRow là số dòng trên sheet nếu bản ghi đã lên remote (0 nếu chưa)
	RemoteRow int `gorm:"-" json:"remoteRow,omitempty"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_log"
}

// Open cho biết bản ghi còn đang Checked-In hay không
func (r *AttendanceRecord) Open() bool {
	return r.Status == "Checked-In" && r.CheckOutTime == ""
}
