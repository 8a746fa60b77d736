package store

import (
	"context"
	stderrors "errors"
	"time"

	"childcare/constants"
	apperrors "childcare/errors"
	"childcare/models"
	"childcare/services/logger"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// LocalStore là backend SQLite. Ngoài việc thỏa mãn AttendanceStore, nó còn
// giữ hàng đợi sync_queue và bản sao (shadow) của mọi bản ghi được ghi khi
// chạy ở chế độ remote, để trang điểm danh vẫn hiển thị được khi mất mạng.
type LocalStore struct {
	db  *gorm.DB
	log logger.Logger
}

func NewLocalStore(db *gorm.DB, log logger.Logger) *LocalStore {
	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel)
	}
	return &LocalStore{db: db, log: log}
}

// checkOutPayload là payload hàng đợi cho thao tác check-out. Giữ lại id các
// bản ghi local bị đóng để đánh dấu synced sau khi replay thành công.
type checkOutPayload struct {
	CheckOutInput
	SyncUUID   string   `json:"sync_uuid"`
	RecordIDs  []uint   `json:"record_ids"`
	ChildNames []string `json:"child_names"`
}

// --- AttendanceStore ---

func (s *LocalStore) FindChild(ctx context.Context, fullName string) (*models.Child, error) {
	var child models.Child
	err := s.db.WithContext(ctx).Where("full_name = ?", fullName).First(&child).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeChildNotFound, "Không tìm thấy bé "+fullName, apperrors.ErrChildNotFound)
	}
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi truy vấn children", err)
	}
	return &child, nil
}

func (s *LocalStore) ListChildren(ctx context.Context) ([]models.Child, error) {
	var children []models.Child
	if err := s.db.WithContext(ctx).Order("full_name asc").Find(&children).Error; err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi truy vấn children", err)
	}
	return children, nil
}

func (s *LocalStore) ActiveTagHolders(ctx context.Context, sessionID, date string) (map[string]models.AttendanceRecord, error) {
	records, err := s.openRecords(s.db.WithContext(ctx), sessionID, date)
	if err != nil {
		return nil, err
	}
	holders := make(map[string]models.AttendanceRecord, len(records))
	for _, rec := range records {
		holders[rec.DayTag] = rec
	}
	return holders, nil
}

func (s *LocalStore) CreateCheckIn(ctx context.Context, in CheckInInput) (*models.AttendanceRecord, error) {
	return s.createCheckIn(ctx, in, constants.SyncStatusSynced, false)
}

func (s *LocalStore) CheckOut(ctx context.Context, in CheckOutInput) (*models.AttendanceRecord, error) {
	rec, _, _, err := s.checkOut(ctx, in, constants.SyncStatusSynced, false)
	return rec, err
}

func (s *LocalStore) DeleteRecord(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.AttendanceRecord
		if err := tx.First(&rec, id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewAppError(apperrors.ErrCodeRecordNotFound, "Không tìm thấy bản ghi", apperrors.ErrRecordNotFound)
			}
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi truy vấn attendance_log", err)
		}
		// bản ghi chưa lên remote thì gỡ luôn entry hàng đợi của nó
		if err := tx.Model(&models.PendingWrite{}).
			Where("record_id = ? AND status = ?", rec.ID, constants.SyncStatusPending).
			Update("status", constants.SyncStatusSynced).Error; err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi gỡ entry hàng đợi", err)
		}
		if err := tx.Delete(&models.AttendanceRecord{}, id).Error; err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi xóa bản ghi", err)
		}
		return nil
	})
}

func (s *LocalStore) QueryRecords(ctx context.Context, f RecordFilter) ([]models.AttendanceRecord, error) {
	tx := s.db.WithContext(ctx).Model(&models.AttendanceRecord{})
	if f.EventID != "" {
		// dữ liệu cũ không gắn event vẫn thuộc event đang xem
		tx = tx.Where("event_id = ? OR event_id = ''", f.EventID)
	}
	if f.SessionID != "" {
		tx = tx.Where("session_id = ?", f.SessionID)
	}
	if f.Period != "" {
		tx = tx.Where("session_period = ?", f.Period)
	}
	if f.State != "" {
		tx = tx.Where("state = ?", f.State)
	}
	if f.ChurchLocation != "" {
		tx = tx.Where("church_location = ?", f.ChurchLocation)
	}
	if f.DayTag != "" {
		tx = tx.Where("day_tag = ?", f.DayTag)
	}
	if f.ChildName != "" {
		tx = tx.Where("child_name = ?", f.ChildName)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.SyncStatus != "" {
		tx = tx.Where("sync_status = ?", f.SyncStatus)
	}
	if f.Date != "" {
		tx = tx.Where("date = ?", f.Date)
	}
	if f.DateFrom != "" {
		tx = tx.Where("date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		tx = tx.Where("date <= ?", f.DateTo)
	}

	var records []models.AttendanceRecord
	if err := tx.Order("date asc, session_id asc, check_in_time asc").Find(&records).Error; err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi truy vấn attendance_log", err)
	}
	return records, nil
}

// --- Shadow writes (Sync Engine dùng khi chạy chế độ remote) ---

// CreatePendingCheckIn ghi bản ghi shadow với sync_status pending và enqueue
// một PendingWrite trong cùng một transaction, theo đúng kiểu write-ahead của
// bản gốc: dữ liệu không bao giờ mất dù remote chết ngay sau đó.
func (s *LocalStore) CreatePendingCheckIn(ctx context.Context, in CheckInInput) (*models.AttendanceRecord, uint, error) {
	rec, err := s.createCheckIn(ctx, in, constants.SyncStatusPending, true)
	if err != nil {
		return nil, 0, err
	}
	var pw models.PendingWrite
	if err := s.db.WithContext(ctx).Where("sync_uuid = ?", in.SyncUUID).First(&pw).Error; err != nil {
		return nil, 0, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi đọc lại entry hàng đợi", err)
	}
	return rec, pw.ID, nil
}

// CreatePendingCheckOut đóng bản ghi mở (shadow) và enqueue thao tác check-out
func (s *LocalStore) CreatePendingCheckOut(ctx context.Context, in CheckOutInput, syncUUID string) (*models.AttendanceRecord, uint, []uint, error) {
	return s.checkOut(ctx, in, constants.SyncStatusPending, true, syncUUID)
}

func (s *LocalStore) createCheckIn(ctx context.Context, in CheckInInput, syncStatus string, enqueue bool) (*models.AttendanceRecord, error) {
	rec := in.Record()
	rec.SyncStatus = syncStatus
	if syncStatus == constants.SyncStatusSynced {
		now := time.Now()
		rec.SyncedAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.guardCheckIn(tx, in); err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi ghi bản ghi điểm danh", err)
		}
		if !enqueue {
			return nil
		}
		payload, err := json.Marshal(in)
		if err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Lỗi đóng gói payload check-in", err)
		}
		pw := models.PendingWrite{
			Operation: constants.OpCheckIn,
			RecordID:  rec.ID,
			SyncUUID:  in.SyncUUID,
			Payload:   string(payload),
		}
		return s.enqueue(tx, &pw)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// guardCheckIn là state machine cho check-in, luôn chạy trên dữ liệu đã commit
// trong cùng transaction với lệnh ghi
func (s *LocalStore) guardCheckIn(tx *gorm.DB, in CheckInInput) error {
	open, err := s.openRecords(tx, in.SessionID, in.Date)
	if err != nil {
		return err
	}
	for _, rec := range open {
		if rec.ChildName == in.ChildName {
			return apperrors.NewAppError(apperrors.ErrCodeChildAlreadyIn,
				in.ChildName+" đang được check-in, phải check-out trước", apperrors.ErrChildAlreadyIn)
		}
	}
	for _, rec := range open {
		if rec.DayTag == in.DayTag {
			return apperrors.NewAppError(apperrors.ErrCodeTagInUse,
				"Tag "+in.DayTag+" đang được "+rec.ChildName+" giữ", apperrors.ErrTagInUse)
		}
	}
	return nil
}

func (s *LocalStore) checkOut(ctx context.Context, in CheckOutInput, syncStatus string, enqueue bool, syncUUID ...string) (*models.AttendanceRecord, uint, []uint, error) {
	var closed models.AttendanceRecord
	var seq uint
	var closedIDs []uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := s.openRecords(tx, in.SessionID, in.Date)
		if err != nil {
			return err
		}
		var targets []models.AttendanceRecord
		for _, rec := range open {
			if rec.DayTag == in.DayTag {
				targets = append(targets, rec)
			}
		}
		if len(targets) == 0 {
			return apperrors.NewAppError(apperrors.ErrCodeNoActiveRecord,
				"Không có bản ghi mở cho tag "+in.DayTag, apperrors.ErrNoActiveRecord)
		}

		updates := map[string]interface{}{
			"check_out_time": in.CheckOutTime,
			"status":         constants.StatusCheckedOut,
			"sync_status":    syncStatus,
		}
		if syncStatus == constants.SyncStatusSynced {
			updates["synced_at"] = time.Now()
		} else {
			updates["synced_at"] = nil
		}

		var ids []uint
		var names []string
		for _, rec := range targets {
			ids = append(ids, rec.ID)
			names = append(names, rec.ChildName)
		}
		closedIDs = ids
		if err := tx.Model(&models.AttendanceRecord{}).Where("id IN ?", ids).Updates(updates).Error; err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi cập nhật check-out", err)
		}

		closed = targets[0]
		closed.CheckOutTime = in.CheckOutTime
		closed.Status = constants.StatusCheckedOut
		closed.SyncStatus = syncStatus

		if !enqueue {
			return nil
		}
		uuidValue := ""
		if len(syncUUID) > 0 {
			uuidValue = syncUUID[0]
		}
		payload, err := json.Marshal(checkOutPayload{
			CheckOutInput: in,
			SyncUUID:      uuidValue,
			RecordIDs:     ids,
			ChildNames:    names,
		})
		if err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Lỗi đóng gói payload check-out", err)
		}
		pw := models.PendingWrite{
			Operation: constants.OpCheckOut,
			RecordID:  closed.ID,
			SyncUUID:  uuidValue,
			Payload:   string(payload),
		}
		if err := s.enqueue(tx, &pw); err != nil {
			return err
		}
		seq = pw.ID
		return nil
	})
	if err != nil {
		return nil, 0, nil, err
	}
	return &closed, seq, closedIDs, nil
}

func (s *LocalStore) openRecords(tx *gorm.DB, sessionID, date string) ([]models.AttendanceRecord, error) {
	q := tx.Model(&models.AttendanceRecord{}).
		Where("date = ? AND status = ?", date, constants.StatusCheckedIn)
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	var records []models.AttendanceRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi truy vấn bản ghi mở", err)
	}
	return records, nil
}

// --- Queue operations ---

// enqueue nối một PendingWrite vào cuối hàng đợi, trong cùng transaction với
// lệnh ghi shadow để hai bên không bao giờ lệch nhau
func (s *LocalStore) enqueue(tx *gorm.DB, pw *models.PendingWrite) error {
	pw.Status = constants.SyncStatusPending
	if err := tx.Create(pw).Error; err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi enqueue pending write", err)
	}
	return nil
}

// ListPending trả về các entry pending, cũ nhất trước
func (s *LocalStore) ListPending(ctx context.Context, limit int) ([]models.PendingWrite, error) {
	var items []models.PendingWrite
	q := s.db.WithContext(ctx).
		Where("status = ?", constants.SyncStatusPending).
		Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi đọc hàng đợi", err)
	}
	return items, nil
}

// ListFailed trả về các entry đã vượt ngân sách retry, để operator xử lý tay
func (s *LocalStore) ListFailed(ctx context.Context) ([]models.PendingWrite, error) {
	var items []models.PendingWrite
	if err := s.db.WithContext(ctx).
		Where("status = ?", constants.SyncStatusFailed).
		Order("id asc").Find(&items).Error; err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi đọc entry failed", err)
	}
	return items, nil
}

// MarkResolved đánh dấu một entry đã lên remote. Gọi lần hai là no-op.
func (s *LocalStore) MarkResolved(ctx context.Context, seq uint) error {
	res := s.db.WithContext(ctx).Model(&models.PendingWrite{}).
		Where("id = ? AND status <> ?", seq, constants.SyncStatusSynced).
		Updates(map[string]interface{}{"status": constants.SyncStatusSynced, "last_error": ""})
	if res.Error != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi mark resolved", res.Error)
	}
	return nil
}

// IncrementAttempt tăng bộ đếm retry; chạm MaxSyncAttempts thì entry chuyển
// sang failed và các bản ghi liên quan được gắn sync_status failed
func (s *LocalStore) IncrementAttempt(ctx context.Context, seq uint, cause error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pw models.PendingWrite
		if err := tx.First(&pw, seq).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi đọc entry hàng đợi", err)
		}
		now := time.Now()
		pw.Attempts++
		pw.LastAttemptAt = &now
		if cause != nil {
			msg := cause.Error()
			if len(msg) > 500 {
				msg = msg[:500]
			}
			pw.LastError = msg
		}
		exhausted := pw.Attempts >= constants.MaxSyncAttempts && pw.Status == constants.SyncStatusPending
		if exhausted {
			pw.Status = constants.SyncStatusFailed
			// last_error mang mã QUEUE_EXHAUSTED để operator thấy ngay entry
			// đã dừng retry chứ không phải đang chờ lượt sau
			pw.LastError = apperrors.NewAppError(apperrors.ErrCodeQueueExhausted,
				pw.LastError, apperrors.ErrQueueExhausted).Error()
		}
		if err := tx.Save(&pw).Error; err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi cập nhật entry hàng đợi", err)
		}
		if exhausted {
			s.log.Error("Pending write #%d vượt ngân sách retry (%d lần): %s", pw.ID, pw.Attempts, pw.LastError)
			for _, id := range s.recordIDsOf(&pw) {
				if err := tx.Model(&models.AttendanceRecord{}).Where("id = ?", id).
					Updates(map[string]interface{}{"sync_status": constants.SyncStatusFailed, "synced_at": nil}).Error; err != nil {
					return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi gắn sync_status failed", err)
				}
			}
		}
		return nil
	})
}

// ResetFailed đưa toàn bộ entry failed về pending để retry thêm một vòng
func (s *LocalStore) ResetFailed(ctx context.Context) (int64, error) {
	var recordIDs []uint
	failed, err := s.ListFailed(ctx)
	if err != nil {
		return 0, err
	}
	for i := range failed {
		recordIDs = append(recordIDs, s.recordIDsOf(&failed[i])...)
	}

	var count int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PendingWrite{}).
			Where("status = ?", constants.SyncStatusFailed).
			Updates(map[string]interface{}{
				"status":     constants.SyncStatusPending,
				"attempts":   0,
				"last_error": "",
			})
		if res.Error != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi reset entry failed", res.Error)
		}
		count = res.RowsAffected
		if len(recordIDs) == 0 {
			return nil
		}
		if err := tx.Model(&models.AttendanceRecord{}).Where("id IN ?", recordIDs).
			Update("sync_status", constants.SyncStatusPending).Error; err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi reset sync_status bản ghi", err)
		}
		return nil
	})
	return count, err
}

// PendingCount đếm số thao tác còn chờ đồng bộ (cho chỉ báo "Pending Sync")
func (s *LocalStore) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PendingWrite{}).
		Where("status = ?", constants.SyncStatusPending).Count(&count).Error; err != nil {
		return 0, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi đếm hàng đợi", err)
	}
	return count, nil
}

// MarkRecordsSynced gắn sync_status synced cho các bản ghi đã xác nhận remote
func (s *LocalStore) MarkRecordsSynced(ctx context.Context, recordIDs ...uint) error {
	if len(recordIDs) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&models.AttendanceRecord{}).
		Where("id IN ?", recordIDs).
		Updates(map[string]interface{}{"sync_status": constants.SyncStatusSynced, "synced_at": time.Now()}).Error; err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi gắn sync_status synced", err)
	}
	return nil
}

// DiscardPending gỡ một entry hàng đợi cùng bản ghi shadow của nó. Dùng khi
// remote từ chối vì vi phạm state machine (sheet bị sửa tay) — giữ lại shadow
// sẽ làm local vĩnh viễn lệch với remote.
func (s *LocalStore) DiscardPending(ctx context.Context, seq uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pw models.PendingWrite
		if err := tx.First(&pw, seq).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi đọc entry hàng đợi", err)
		}
		if pw.Operation == constants.OpCheckIn && pw.RecordID != 0 {
			if err := tx.Delete(&models.AttendanceRecord{}, pw.RecordID).Error; err != nil {
				return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi xóa bản ghi shadow", err)
			}
		}
		if err := tx.Delete(&models.PendingWrite{}, seq).Error; err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi xóa entry hàng đợi", err)
		}
		return nil
	})
}

// FindRecordBySyncUUID tra bản ghi local theo identity đồng bộ
func (s *LocalStore) FindRecordBySyncUUID(ctx context.Context, syncUUID string) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.db.WithContext(ctx).Where("sync_uuid = ?", syncUUID).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeRecordNotFound, "Không tìm thấy bản ghi", apperrors.ErrRecordNotFound)
	}
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi truy vấn attendance_log", err)
	}
	return &rec, nil
}

// FindRecordByID tra bản ghi local theo khóa chính
func (s *LocalStore) FindRecordByID(ctx context.Context, id uint) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeRecordNotFound, "Không tìm thấy bản ghi", apperrors.ErrRecordNotFound)
	}
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi truy vấn attendance_log", err)
	}
	return &rec, nil
}

// PendingRecords trả về các bản ghi shadow chưa synced (hiển thị khi offline)
func (s *LocalStore) PendingRecords(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	q := s.db.WithContext(ctx).Model(&models.AttendanceRecord{}).
		Where("sync_status <> ?", constants.SyncStatusSynced)
	if date != "" {
		q = q.Where("date = ?", date)
	}
	var records []models.AttendanceRecord
	if err := q.Order("date asc, check_in_time asc").Find(&records).Error; err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi truy vấn bản ghi pending", err)
	}
	return records, nil
}

func (s *LocalStore) recordIDsOf(pw *models.PendingWrite) []uint {
	if pw.Operation == constants.OpCheckOut {
		var payload checkOutPayload
		if err := json.Unmarshal([]byte(pw.Payload), &payload); err == nil && len(payload.RecordIDs) > 0 {
			return payload.RecordIDs
		}
	}
	if pw.RecordID != 0 {
		return []uint{pw.RecordID}
	}
	return nil
}
