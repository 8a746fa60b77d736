package store

import (
	"context"
	stderrors "errors"
	"sync"

	"childcare/constants"
	apperrors "childcare/errors"
	"childcare/models"
	"childcare/services/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// errCheckOutAwaitsCheckIn báo replay một check-out chưa áp được vì check-in
// tương ứng còn nằm trong hàng đợi; entry phải được giữ lại, không được gỡ
var errCheckOutAwaitsCheckIn = stderrors.New("check-out is waiting for its queued check-in")

// ChildAppender là năng lực tùy chọn của backend remote: mirror bé mới đăng ký
// lên sheet. LocalStore không cần implement.
type ChildAppender interface {
	AppendChild(ctx context.Context, child *models.Child) error
}

// WriteResult cho caller biết thao tác đã nằm trên remote hay mới chỉ nằm
// trong hàng đợi local
type WriteResult struct {
	Record     *models.AttendanceRecord `json:"record"`
	SyncResult string                   `json:"sync_result"` // committed | queued_pending
}

// FlushReport tóm tắt một lượt flush hàng đợi
type FlushReport struct {
	Processed int   `json:"processed"`
	Failed    int   `json:"failed"`
	Remaining int64 `json:"remaining"`
}

// EngineOptions cấu hình Sync Engine
type EngineOptions struct {
	Local     *LocalStore
	Remote    AttendanceStore // nil khi chạy LOCAL_DEV
	BatchSize int
	Logger    logger.Logger
	// OnPending được gọi sau mỗi thay đổi hàng đợi với số entry còn chờ,
	// dùng đẩy chỉ báo "Pending Sync" qua websocket
	OnPending func(count int64)
}

// Engine điều phối ghi giữa hai backend: remote trước, hàng đợi local khi
// remote không với tới, và flush lại theo đúng thứ tự enqueue. Caller phía
// controller chỉ nói chuyện với Engine, không bao giờ gọi thẳng backend.
type Engine struct {
	local     *LocalStore
	remote    AttendanceStore
	batchSize int
	log       logger.Logger
	onPending func(int64)

	// mu đảm bảo chỉ một lượt flush chạy tại một thời điểm, giữ bất biến
	// thứ tự replay
	mu sync.Mutex
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = constants.FlushBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewDefaultLogger(logger.InfoLevel)
	}
	return &Engine{
		local:     opts.Local,
		remote:    opts.Remote,
		batchSize: opts.BatchSize,
		log:       opts.Logger,
		onPending: opts.OnPending,
	}
}

// RemoteMode cho biết engine có backend remote để đồng bộ hay không
func (e *Engine) RemoteMode() bool {
	return e.remote != nil
}

// --- Ghi điểm danh ---

// CheckIn tạo lượt check-in. Chế độ local ghi thẳng SQLite. Chế độ remote ghi
// shadow + enqueue trước, rồi mới thử remote: remote chết ngay sau đó thì dữ
// liệu vẫn còn trong hàng đợi.
func (e *Engine) CheckIn(ctx context.Context, in CheckInInput) (*WriteResult, error) {
	if in.SyncUUID == "" {
		in.SyncUUID = uuid.NewString()
	}
	if !e.RemoteMode() {
		rec, err := e.local.CreateCheckIn(ctx, in)
		if err != nil {
			return nil, err
		}
		return &WriteResult{Record: rec, SyncResult: constants.SyncResultCommitted}, nil
	}

	// tra trạng thái remote trước khi nhận vào hàng đợi: tag đang bị giữ
	// trên sheet thì phải từ chối ngay chứ không được enqueue
	if err := e.guardRemoteCheckIn(ctx, in); err != nil {
		return nil, err
	}

	rec, seq, err := e.local.CreatePendingCheckIn(ctx, in)
	if err != nil {
		return nil, err
	}

	if _, err := e.remote.CreateCheckIn(ctx, in); err != nil {
		return e.afterRemoteWrite(ctx, rec, seq, err, []uint{rec.ID})
	}
	e.resolve(ctx, seq, rec.ID)
	rec.SyncStatus = constants.SyncStatusSynced
	e.notifyPending(ctx)
	return &WriteResult{Record: rec, SyncResult: constants.SyncResultCommitted}, nil
}

// CheckOut đóng bản ghi mở của một tag. Chế độ remote: đóng shadow + enqueue
// trước, rồi cập nhật sheet.
func (e *Engine) CheckOut(ctx context.Context, in CheckOutInput) (*WriteResult, error) {
	if !e.RemoteMode() {
		rec, err := e.local.CheckOut(ctx, in)
		if err != nil {
			return nil, err
		}
		return &WriteResult{Record: rec, SyncResult: constants.SyncResultCommitted}, nil
	}

	syncUUID := uuid.NewString()
	rec, seq, closedIDs, err := e.local.CreatePendingCheckOut(ctx, in, syncUUID)
	if err != nil {
		if !stderrors.Is(err, apperrors.ErrNoActiveRecord) {
			return nil, err
		}
		// local không thấy bản ghi mở nhưng sheet có thể có (check-in từ
		// máy khác). Remote không với tới thì đành trả NoActiveRecord.
		return e.remoteOnlyCheckOut(ctx, in)
	}

	if _, err := e.remote.CheckOut(ctx, in); err != nil {
		if stderrors.Is(err, apperrors.ErrNoActiveRecord) {
			// check-in tương ứng vẫn đang nằm trong hàng đợi phía trước;
			// replay theo thứ tự sẽ tự vá
			e.notifyPending(ctx)
			return &WriteResult{Record: rec, SyncResult: constants.SyncResultQueuedPending}, nil
		}
		return e.afterRemoteWrite(ctx, rec, seq, err, closedIDs)
	}
	e.resolve(ctx, seq, closedIDs...)
	rec.SyncStatus = constants.SyncStatusSynced
	e.notifyPending(ctx)
	return &WriteResult{Record: rec, SyncResult: constants.SyncResultCommitted}, nil
}

// remoteOnlyCheckOut xử lý tag chỉ mở trên sheet, không có shadow local
func (e *Engine) remoteOnlyCheckOut(ctx context.Context, in CheckOutInput) (*WriteResult, error) {
	rec, err := e.remote.CheckOut(ctx, in)
	if err != nil {
		if stderrors.Is(err, apperrors.ErrRemoteUnreachable) {
			return nil, apperrors.NewAppError(apperrors.ErrCodeNoActiveRecord,
				"Không có bản ghi mở cho tag "+in.DayTag, apperrors.ErrNoActiveRecord)
		}
		return nil, err
	}
	return &WriteResult{Record: rec, SyncResult: constants.SyncResultCommitted}, nil
}

// afterRemoteWrite phân loại lỗi remote sau khi shadow + queue entry đã nằm
// trong SQLite
func (e *Engine) afterRemoteWrite(ctx context.Context, rec *models.AttendanceRecord, seq uint, cause error, recordIDs []uint) (*WriteResult, error) {
	switch {
	case stderrors.Is(cause, apperrors.ErrRemoteUnreachable):
		e.log.Info("Remote không với tới, thao tác #%d nằm lại hàng đợi: %v", seq, cause)
		e.notifyPending(ctx)
		return &WriteResult{Record: rec, SyncResult: constants.SyncResultQueuedPending}, nil
	case apperrors.IsStateConflict(cause):
		// sheet bị sửa tay ngoài hệ thống; giữ shadow lại sẽ làm local
		// lệch vĩnh viễn
		if err := e.local.DiscardPending(ctx, seq); err != nil {
			e.log.Error("Lỗi gỡ entry #%d sau conflict: %v", seq, err)
		}
		e.notifyPending(ctx)
		return nil, cause
	default:
		// remote từ chối vì request hỏng: đếm attempt, entry nằm lại chờ
		// operator xử lý
		if err := e.local.IncrementAttempt(ctx, seq, cause); err != nil {
			e.log.Error("Lỗi đếm attempt cho entry #%d: %v", seq, err)
		}
		e.notifyPending(ctx)
		return nil, cause
	}
}

// guardRemoteCheckIn chạy state machine trên dữ liệu sheet. Sheet không với
// tới thì bỏ qua — guard local trong transaction vẫn chặn trùng tag nội bộ.
func (e *Engine) guardRemoteCheckIn(ctx context.Context, in CheckInInput) error {
	holders, err := e.remote.ActiveTagHolders(ctx, in.SessionID, in.Date)
	if err != nil {
		if stderrors.Is(err, apperrors.ErrRemoteUnreachable) {
			return nil
		}
		return err
	}
	for _, rec := range holders {
		if rec.ChildName == in.ChildName {
			return apperrors.NewAppError(apperrors.ErrCodeChildAlreadyIn,
				in.ChildName+" đang được check-in, phải check-out trước", apperrors.ErrChildAlreadyIn)
		}
	}
	if rec, ok := holders[in.DayTag]; ok {
		return apperrors.NewAppError(apperrors.ErrCodeTagInUse,
			"Tag "+in.DayTag+" đang được "+rec.ChildName+" giữ", apperrors.ErrTagInUse)
	}
	return nil
}

func (e *Engine) resolve(ctx context.Context, seq uint, recordIDs ...uint) {
	if err := e.local.MarkResolved(ctx, seq); err != nil {
		e.log.Error("Lỗi mark resolved entry #%d: %v", seq, err)
	}
	if err := e.local.MarkRecordsSynced(ctx, recordIDs...); err != nil {
		e.log.Error("Lỗi gắn synced cho bản ghi của entry #%d: %v", seq, err)
	}
}

// --- Flush hàng đợi ---

// Flush replay hàng đợi pending theo thứ tự enqueue, tối đa batchSize entry
// một lượt. Remote không với tới thì dừng cả lượt để giữ thứ tự; remote từ
// chối thì đếm attempt và đi tiếp sang entry sau.
func (e *Engine) Flush(ctx context.Context) (*FlushReport, error) {
	if !e.RemoteMode() {
		return &FlushReport{}, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.local.ListPending(ctx, e.batchSize)
	if err != nil {
		return nil, err
	}

	report := &FlushReport{}
	for i := range items {
		pw := &items[i]
		err := e.replay(ctx, pw)
		switch {
		case err == nil:
			e.resolve(ctx, pw.ID, e.local.recordIDsOf(pw)...)
			report.Processed++
		case stderrors.Is(err, apperrors.ErrRemoteUnreachable):
			// mất mạng giữa chừng: dừng cả lượt, entry sau không được
			// vượt mặt entry này
			e.log.Info("Remote không với tới khi flush entry #%d, dừng lượt", pw.ID)
			e.finishFlush(ctx, report)
			return report, nil
		case stderrors.Is(err, errCheckOutAwaitsCheckIn):
			// check-in phía trước chưa lên sheet (vd vừa bị từ chối ở entry
			// trước); đếm attempt và giữ entry lại cho lượt sau
			e.log.Info("Entry #%d chờ check-in tương ứng lên sheet, giữ lại hàng đợi", pw.ID)
			if ierr := e.local.IncrementAttempt(ctx, pw.ID, err); ierr != nil {
				e.log.Error("Lỗi đếm attempt cho entry #%d: %v", pw.ID, ierr)
			}
			report.Failed++
		case apperrors.IsStateConflict(err):
			e.log.Error("Entry #%d bị remote từ chối vì conflict, gỡ khỏi hàng đợi: %v", pw.ID, err)
			if derr := e.local.DiscardPending(ctx, pw.ID); derr != nil {
				e.log.Error("Lỗi gỡ entry #%d: %v", pw.ID, derr)
			}
			report.Failed++
		default:
			e.log.Error("Entry #%d replay thất bại: %v", pw.ID, err)
			if ierr := e.local.IncrementAttempt(ctx, pw.ID, err); ierr != nil {
				e.log.Error("Lỗi đếm attempt cho entry #%d: %v", pw.ID, ierr)
			}
			report.Failed++
		}
	}
	e.finishFlush(ctx, report)
	return report, nil
}

func (e *Engine) finishFlush(ctx context.Context, report *FlushReport) {
	remaining, err := e.local.PendingCount(ctx)
	if err != nil {
		e.log.Error("Lỗi đếm hàng đợi sau flush: %v", err)
		return
	}
	report.Remaining = remaining
	if e.onPending != nil {
		e.onPending(remaining)
	}
}

// replay áp một PendingWrite lên remote. Backend tự chống ghi trùng qua
// Sync UUID nên replay entry đã lên sheet rồi là no-op.
func (e *Engine) replay(ctx context.Context, pw *models.PendingWrite) error {
	switch pw.Operation {
	case constants.OpCheckIn:
		var in CheckInInput
		if err := json.Unmarshal([]byte(pw.Payload), &in); err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Payload check-in hỏng", err)
		}
		_, err := e.remote.CreateCheckIn(ctx, in)
		return err
	case constants.OpCheckOut:
		var payload checkOutPayload
		if err := json.Unmarshal([]byte(pw.Payload), &payload); err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Payload check-out hỏng", err)
		}
		_, err := e.remote.CheckOut(ctx, payload.CheckOutInput)
		if stderrors.Is(err, apperrors.ErrNoActiveRecord) {
			return e.checkOutAlreadyApplied(ctx, &payload)
		}
		return err
	default:
		return apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Thao tác không hỗ trợ: "+pw.Operation, nil)
	}
}

// checkOutAlreadyApplied phân biệt hai lý do remote báo NoActiveRecord khi
// replay check-out: check-out đã áp ở lượt trước (entry coi như xong) hay
// check-in tương ứng chưa lên sheet (entry phải chờ tiếp, tuyệt đối không
// được gỡ như một conflict)
func (e *Engine) checkOutAlreadyApplied(ctx context.Context, payload *checkOutPayload) error {
	for _, id := range payload.RecordIDs {
		rec, err := e.local.FindRecordByID(ctx, id)
		if err != nil {
			continue
		}
		if rec.SyncStatus != constants.SyncStatusSynced {
			// bản ghi check-in vẫn pending/failed: remote chưa từng thấy
			// lượt vào này, check-out chưa thể áp
			return errCheckOutAwaitsCheckIn
		}
	}
	return nil
}

// --- Đọc ---

// Records đọc qua remote khi online, trộn thêm bản ghi shadow chưa kịp lên
// sheet để trang điểm danh không "mất" lượt vào vừa ghi lúc offline
func (e *Engine) Records(ctx context.Context, f RecordFilter) ([]models.AttendanceRecord, error) {
	if !e.RemoteMode() {
		return e.local.QueryRecords(ctx, f)
	}
	records, err := e.remote.QueryRecords(ctx, f)
	if err != nil {
		e.log.Info("Đọc remote thất bại, fallback local: %v", err)
		return e.local.QueryRecords(ctx, f)
	}
	pending, err := e.local.PendingRecords(ctx, f.Date)
	if err != nil {
		e.log.Error("Lỗi đọc bản ghi pending: %v", err)
		return records, nil
	}
	seen := make(map[string]bool, len(records))
	for i := range records {
		seen[records[i].SyncUUID] = true
	}
	for i := range pending {
		rec := pending[i]
		if rec.SyncUUID != "" && seen[rec.SyncUUID] {
			continue
		}
		if !f.Match(&rec) {
			continue
		}
		records = append(records, rec)
	}
	SortRecords(records)
	return records, nil
}

// ActiveTagHolders tra trạng thái tag từ backend đang active
func (e *Engine) ActiveTagHolders(ctx context.Context, sessionID, date string) (map[string]models.AttendanceRecord, error) {
	if !e.RemoteMode() {
		return e.local.ActiveTagHolders(ctx, sessionID, date)
	}
	holders, err := e.remote.ActiveTagHolders(ctx, sessionID, date)
	if err != nil {
		e.log.Info("Đọc tag holders remote thất bại, fallback local: %v", err)
		return e.local.ActiveTagHolders(ctx, sessionID, date)
	}
	// trộn thêm shadow đang mở để tag vừa phát lúc offline không bị phát
	// trùng lần nữa
	pending, perr := e.local.PendingRecords(ctx, date)
	if perr != nil {
		return holders, nil
	}
	for _, rec := range pending {
		if !rec.Open() {
			continue
		}
		if sessionID != "" && rec.SessionID != "" && rec.SessionID != sessionID {
			continue
		}
		if _, ok := holders[rec.DayTag]; !ok {
			holders[rec.DayTag] = rec
		}
	}
	return holders, nil
}

// FindChild tra roster: remote trước, local làm fallback
func (e *Engine) FindChild(ctx context.Context, fullName string) (*models.Child, error) {
	if !e.RemoteMode() {
		return e.local.FindChild(ctx, fullName)
	}
	child, err := e.remote.FindChild(ctx, fullName)
	if err == nil {
		return child, nil
	}
	if stderrors.Is(err, apperrors.ErrChildNotFound) {
		return nil, err
	}
	return e.local.FindChild(ctx, fullName)
}

// ListChildren đọc roster: remote trước, local làm fallback
func (e *Engine) ListChildren(ctx context.Context) ([]models.Child, error) {
	if !e.RemoteMode() {
		return e.local.ListChildren(ctx)
	}
	children, err := e.remote.ListChildren(ctx)
	if err != nil {
		e.log.Info("Đọc roster remote thất bại, fallback local: %v", err)
		return e.local.ListChildren(ctx)
	}
	return children, nil
}

// RegisterChild ghi bé mới vào roster local và mirror lên sheet nếu backend
// remote hỗ trợ. Mirror thất bại không chặn đăng ký.
func (e *Engine) RegisterChild(ctx context.Context, child *models.Child) error {
	if err := e.local.db.WithContext(ctx).Create(child).Error; err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "Lỗi ghi bé vào roster", err)
	}
	if appender, ok := e.remote.(ChildAppender); ok {
		if err := appender.AppendChild(ctx, child); err != nil {
			e.log.Error("Lỗi mirror bé %s lên sheet: %v", child.FullName, err)
		}
	}
	return nil
}

// DeleteRecord xóa bản ghi trên backend được chỉ định. source là "local" hoặc
// "remote" (id lúc đó là số dòng trên sheet).
func (e *Engine) DeleteRecord(ctx context.Context, id uint, source string) error {
	if source == "remote" {
		if !e.RemoteMode() {
			return apperrors.NewAppError(apperrors.ErrCodeRemoteUnreachable,
				"Không có backend remote", apperrors.ErrRemoteUnreachable)
		}
		return e.remote.DeleteRecord(ctx, id)
	}
	return e.local.DeleteRecord(ctx, id)
}

// --- Quan sát hàng đợi ---

// PendingCount đếm thao tác còn chờ đồng bộ
func (e *Engine) PendingCount(ctx context.Context) (int64, error) {
	return e.local.PendingCount(ctx)
}

// PendingWrites liệt kê hàng đợi pending (trang quản trị sync)
func (e *Engine) PendingWrites(ctx context.Context) ([]models.PendingWrite, error) {
	return e.local.ListPending(ctx, 0)
}

// FailedWrites liệt kê entry đã vượt ngân sách retry
func (e *Engine) FailedWrites(ctx context.Context) ([]models.PendingWrite, error) {
	return e.local.ListFailed(ctx)
}

// RetryFailed đưa entry failed về pending rồi flush ngay một lượt
func (e *Engine) RetryFailed(ctx context.Context) (int64, *FlushReport, error) {
	count, err := e.local.ResetFailed(ctx)
	if err != nil {
		return 0, nil, err
	}
	report, err := e.Flush(ctx)
	if err != nil {
		return count, nil, err
	}
	return count, report, nil
}

func (e *Engine) notifyPending(ctx context.Context) {
	if e.onPending == nil {
		return
	}
	count, err := e.local.PendingCount(ctx)
	if err != nil {
		e.log.Error("Lỗi đếm hàng đợi: %v", err)
		return
	}
	e.onPending(count)
}
