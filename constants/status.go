package constants

// Trạng thái điểm danh của một bản ghi
const (
	StatusCheckedIn  = "Checked-In"
	StatusCheckedOut = "Checked-Out"
)

// Trạng thái đồng bộ với Google Sheets
const (
	SyncStatusSynced  = "synced"
	SyncStatusPending = "pending"
	SyncStatusFailed  = "failed"
)

// Kết quả trả về cho caller sau mỗi thao tác check-in/check-out
const (
	SyncResultCommitted     = "committed"
	SyncResultQueuedPending = "queued_pending"
)

// Loại thao tác trong hàng đợi đồng bộ
const (
	OpCheckIn  = "check_in"
	OpCheckOut = "check_out"
)

// Buổi trong ngày của một session
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
	PeriodEvening   = "evening"
)

// Role của người dùng
const (
	RoleInstructor = 0
	RoleAdmin      = 1
)

// Định dạng ngày giờ dùng thống nhất toàn hệ thống
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DefaultTimezone múi giờ của chương trình
const DefaultTimezone = "Africa/Lagos"

// DefaultEventID event mặc định khi không chạy trong một camp cụ thể
const DefaultEventID = "church-service"

// Giới hạn cho hàng đợi đồng bộ
const (
	MaxSyncAttempts = 5
	FlushBatchSize  = 50
)
