package dto

import "childcare/models"

// SyncStatusResponse là trạng thái hàng đợi đồng bộ
type SyncStatusResponse struct {
	PendingCount int64                 `json:"pendingCount"`
	Pending      []models.PendingWrite `json:"pending"`
	Failed       []models.PendingWrite `json:"failed"`
}

// RetryResponse trả về sau khi đưa entry failed về pending và flush lại
type RetryResponse struct {
	Reset     int64 `json:"reset"`
	Processed int   `json:"processed"`
	Failed    int   `json:"failed"`
	Remaining int64 `json:"remaining"`
}
