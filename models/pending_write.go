package models

import "time"

// PendingWrite là một thao tác ghi chưa được xác nhận trên remote backend.
// ID tự tăng chính là thứ tự replay: flush luôn xử lý theo ID tăng dần,
// không bao giờ đảo thứ tự.
type PendingWrite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Operation string `gorm:"not null" json:"operation"` // check_in | check_out
	RecordID  uint   `gorm:"index" json:"recordId"`
	SyncUUID  string `gorm:"uniqueIndex;not null" json:"syncUuid"`

	Payload string `gorm:"type:text;not null" json:"payload"`

	Status        string     `gorm:"index;not null;default:pending" json:"status"`
	Attempts      int        `gorm:"default:0" json:"attempts"`
	LastError     string     `json:"lastError"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
}

func (PendingWrite) TableName() string {
	return "sync_queue"
}
