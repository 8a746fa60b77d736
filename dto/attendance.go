package dto

import "childcare/models"

// CheckInRequest là request tạo lượt check-in. SyncUUID cho phép client retry
// an toàn: gửi lại cùng uuid không tạo bản ghi trùng.
type CheckInRequest struct {
	ChildName   string `json:"childName" binding:"required"`
	DayTag      string `json:"dayTag" binding:"required"`
	Date        string `json:"date"`
	EventID     string `json:"eventId"`
	SessionID   string `json:"sessionId"`
	Service     string `json:"service"`
	CheckInTime string `json:"checkInTime"`
	Instructor  string `json:"instructor"`
	Notes       string `json:"notes"`
	SyncUUID    string `json:"syncUuid"`
}

// CheckOutRequest đóng bản ghi mở của một tag
type CheckOutRequest struct {
	DayTag       string `json:"dayTag" binding:"required"`
	Date         string `json:"date"`
	SessionID    string `json:"sessionId"`
	CheckOutTime string `json:"checkOutTime"`
}

// AttendanceWriteResponse trả về sau check-in/check-out
type AttendanceWriteResponse struct {
	Record     *models.AttendanceRecord `json:"record"`
	SyncResult string                   `json:"syncResult"`
}

// ActiveTagResponse là một tag đang được giữ
type ActiveTagResponse struct {
	DayTag      string `json:"dayTag"`
	ChildName   string `json:"childName"`
	CheckInTime string `json:"checkInTime"`
	SessionID   string `json:"sessionId"`
}
