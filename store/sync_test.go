package store

import (
	"context"
	"testing"

	"childcare/constants"
	apperrors "childcare/errors"
	"childcare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote giả lập backend Google Sheets trong bộ nhớ, có công tắc mất mạng
// và kịch bản lỗi để tập sự cố cho Sync Engine
type fakeRemote struct {
	records []models.AttendanceRecord

	unreachable bool
	// failAfter > 0: cho phép chừng đó lượt ghi thành công rồi mất mạng
	failAfter int
	// applyThenFail: ghi thành công nhưng vẫn báo unreachable (timeout sau
	// khi ghi), kịch bản sinh ghi trùng nếu không có Sync UUID
	applyThenFail bool
	rejectWrites  bool
	// rejectCheckIns: chỉ từ chối check-in, check-out vẫn xử lý bình thường
	rejectCheckIns bool

	checkInCalls int
}

func unreachableErr() error {
	return apperrors.NewAppError(apperrors.ErrCodeRemoteUnreachable, "mất mạng", apperrors.ErrRemoteUnreachable)
}

func (f *fakeRemote) gateWrite() error {
	if f.unreachable {
		return unreachableErr()
	}
	if f.failAfter > 0 {
		f.failAfter--
		if f.failAfter == 0 {
			f.unreachable = true
		}
	}
	if f.rejectWrites {
		return apperrors.NewAppError(apperrors.ErrCodeRemoteRejected, "sheet từ chối", apperrors.ErrRemoteRejected)
	}
	return nil
}

func (f *fakeRemote) FindChild(ctx context.Context, fullName string) (*models.Child, error) {
	if f.unreachable {
		return nil, unreachableErr()
	}
	return nil, apperrors.NewAppError(apperrors.ErrCodeChildNotFound, "không thấy", apperrors.ErrChildNotFound)
}

func (f *fakeRemote) ListChildren(ctx context.Context) ([]models.Child, error) {
	if f.unreachable {
		return nil, unreachableErr()
	}
	return nil, nil
}

func (f *fakeRemote) ActiveTagHolders(ctx context.Context, sessionID, date string) (map[string]models.AttendanceRecord, error) {
	if f.unreachable {
		return nil, unreachableErr()
	}
	holders := make(map[string]models.AttendanceRecord)
	for _, rec := range f.records {
		if !rec.Open() || rec.Date != date {
			continue
		}
		if sessionID != "" && rec.SessionID != "" && rec.SessionID != sessionID {
			continue
		}
		holders[rec.DayTag] = rec
	}
	return holders, nil
}

func (f *fakeRemote) CreateCheckIn(ctx context.Context, in CheckInInput) (*models.AttendanceRecord, error) {
	f.checkInCalls++
	if err := f.gateWrite(); err != nil {
		return nil, err
	}
	if f.rejectCheckIns {
		return nil, apperrors.NewAppError(apperrors.ErrCodeRemoteRejected, "sheet từ chối", apperrors.ErrRemoteRejected)
	}
	for i := range f.records {
		if in.SyncUUID != "" && f.records[i].SyncUUID == in.SyncUUID {
			return &f.records[i], nil
		}
	}
	for _, rec := range f.records {
		if !rec.Open() || rec.Date != in.Date {
			continue
		}
		if in.SessionID != "" && rec.SessionID != "" && rec.SessionID != in.SessionID {
			continue
		}
		if rec.ChildName == in.ChildName {
			return nil, apperrors.NewAppError(apperrors.ErrCodeChildAlreadyIn, "đã check-in", apperrors.ErrChildAlreadyIn)
		}
		if rec.DayTag == in.DayTag {
			return nil, apperrors.NewAppError(apperrors.ErrCodeTagInUse, "tag đang giữ", apperrors.ErrTagInUse)
		}
	}
	rec := in.Record()
	f.records = append(f.records, rec)
	if f.applyThenFail {
		return nil, unreachableErr()
	}
	return &rec, nil
}

func (f *fakeRemote) CheckOut(ctx context.Context, in CheckOutInput) (*models.AttendanceRecord, error) {
	if err := f.gateWrite(); err != nil {
		return nil, err
	}
	var closed *models.AttendanceRecord
	for i := range f.records {
		rec := &f.records[i]
		if !rec.Open() || rec.Date != in.Date || rec.DayTag != in.DayTag {
			continue
		}
		if in.SessionID != "" && rec.SessionID != "" && rec.SessionID != in.SessionID {
			continue
		}
		rec.CheckOutTime = in.CheckOutTime
		rec.Status = constants.StatusCheckedOut
		if closed == nil {
			closed = rec
		}
	}
	if closed == nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNoActiveRecord, "không có bản ghi mở", apperrors.ErrNoActiveRecord)
	}
	return closed, nil
}

func (f *fakeRemote) DeleteRecord(ctx context.Context, id uint) error {
	if f.unreachable {
		return unreachableErr()
	}
	return nil
}

func (f *fakeRemote) QueryRecords(ctx context.Context, filter RecordFilter) ([]models.AttendanceRecord, error) {
	if f.unreachable {
		return nil, unreachableErr()
	}
	var out []models.AttendanceRecord
	for i := range f.records {
		if filter.Match(&f.records[i]) {
			out = append(out, f.records[i])
		}
	}
	SortRecords(out)
	return out, nil
}

func (f *fakeRemote) openTags(date string) []string {
	var tags []string
	for _, rec := range f.records {
		if rec.Open() && rec.Date == date {
			tags = append(tags, rec.DayTag)
		}
	}
	return tags
}

func newTestEngine(t *testing.T, remote *fakeRemote) (*Engine, *LocalStore) {
	t.Helper()
	local := newTestStore(t)
	engine := NewEngine(EngineOptions{Local: local, Remote: remote})
	return engine, local
}

func TestEngineCheckInCommitted(t *testing.T) {
	remote := &fakeRemote{}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	result, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	assert.Equal(t, constants.SyncResultCommitted, result.SyncResult)
	assert.Len(t, remote.records, 1)

	count, err := local.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	rec, err := local.FindRecordBySyncUUID(ctx, "uuid-An-14")
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusSynced, rec.SyncStatus)
}

func TestEngineCheckInQueuedWhenUnreachable(t *testing.T) {
	remote := &fakeRemote{unreachable: true}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	result, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	assert.Equal(t, constants.SyncResultQueuedPending, result.SyncResult)
	assert.Empty(t, remote.records)

	count, err := local.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// mạng trở lại, flush đẩy thao tác lên remote
	remote.unreachable = false
	report, err := engine.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Zero(t, report.Remaining)
	assert.Len(t, remote.records, 1)

	rec, err := local.FindRecordBySyncUUID(ctx, "uuid-An-14")
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusSynced, rec.SyncStatus)
}

func TestEngineCheckInRejectedByRemoteGuard(t *testing.T) {
	remote := &fakeRemote{records: []models.AttendanceRecord{
		{Date: "2026-08-30", SessionID: "s1", ChildName: "Khac", DayTag: "14", Status: constants.StatusCheckedIn},
	}}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	// tag 14 đang bị giữ trên sheet: từ chối ngay, không enqueue
	_, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTagInUse)

	count, err := local.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngineFlushStopsOnUnreachableAndKeepsOrder(t *testing.T) {
	remote := &fakeRemote{unreachable: true}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	// ba thao tác enqueue khi offline
	_, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	_, err = engine.CheckOut(ctx, CheckOutInput{Date: "2026-08-30", SessionID: "s1", DayTag: "14", CheckOutTime: "10:00"})
	require.NoError(t, err)
	_, err = engine.CheckIn(ctx, checkIn("Binh", "15"))
	require.NoError(t, err)

	// mạng chỉ sống được một lượt ghi rồi rớt tiếp: flush phải dừng tại W2,
	// không cho W3 vượt mặt
	remote.unreachable = false
	remote.failAfter = 1
	report, err := engine.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.EqualValues(t, 2, report.Remaining)

	pending, err := local.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, constants.OpCheckOut, pending[0].Operation)

	// mạng ổn định trở lại, phần còn lại lên theo đúng thứ tự
	remote.unreachable = false
	remote.failAfter = 0
	report, err = engine.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Zero(t, report.Remaining)

	assert.Equal(t, []string{"15"}, remote.openTags("2026-08-30"))
}

func TestEngineReplayDoesNotDuplicate(t *testing.T) {
	// remote ghi thành công nhưng trả lỗi timeout: entry nằm lại hàng đợi,
	// replay sau đó phải nhận ra dòng đã tồn tại qua Sync UUID
	remote := &fakeRemote{applyThenFail: true}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	result, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	assert.Equal(t, constants.SyncResultQueuedPending, result.SyncResult)
	assert.Len(t, remote.records, 1)

	remote.applyThenFail = false
	report, err := engine.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Len(t, remote.records, 1, "replay không được tạo dòng trùng")

	count, err := local.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngineFlushSkipsRejectedEntry(t *testing.T) {
	remote := &fakeRemote{unreachable: true}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	_, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	_, err = engine.CheckIn(ctx, checkIn("Binh", "15"))
	require.NoError(t, err)

	// remote từ chối mọi lượt ghi (request hỏng): cả hai entry bị đếm
	// attempt nhưng flush không dừng giữa chừng
	remote.unreachable = false
	remote.rejectWrites = true
	report, err := engine.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
	assert.Equal(t, 2, report.Failed)

	pending, err := local.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, 1, pending[1].Attempts)
}

func TestEngineFlushExhaustsToFailed(t *testing.T) {
	remote := &fakeRemote{unreachable: true}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	_, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	remote.unreachable = false
	remote.rejectWrites = true
	for i := 0; i < constants.MaxSyncAttempts; i++ {
		_, err := engine.Flush(ctx)
		require.NoError(t, err)
	}

	failed, err := engine.FailedWrites(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	// RetryFailed đưa entry về pending và thử lại ngay
	remote.rejectWrites = false
	reset, report, err := engine.RetryFailed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reset)
	assert.Equal(t, 1, report.Processed)

	rec, err := local.FindRecordBySyncUUID(ctx, "uuid-An-14")
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusSynced, rec.SyncStatus)
}

func TestEngineOfflineTagCycleReplaysInOrder(t *testing.T) {
	// kịch bản đầy đủ: offline check-in bé An tag 14, check-out, rồi bé
	// Binh nhận lại tag 14 — ba thao tác replay theo thứ tự khi có mạng
	remote := &fakeRemote{unreachable: true}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	_, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	result, err := engine.CheckOut(ctx, CheckOutInput{Date: "2026-08-30", SessionID: "s1", DayTag: "14", CheckOutTime: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, constants.SyncResultQueuedPending, result.SyncResult)

	// tag 14 đã rảnh trên shadow local nên nhận lại được dù đang offline
	binh := checkIn("Binh", "14")
	binh.CheckInTime = "10:05"
	_, err = engine.CheckIn(ctx, binh)
	require.NoError(t, err)

	count, err := local.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	remote.unreachable = false
	report, err := engine.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.Zero(t, report.Remaining)

	// trạng thái cuối trên remote: An đã check-out, Binh đang giữ tag 14
	holders, err := remote.ActiveTagHolders(ctx, "s1", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, "Binh", holders["14"].ChildName)

	records, err := remote.QueryRecords(ctx, RecordFilter{Date: "2026-08-30"})
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestEngineRecordsMergesPendingShadow(t *testing.T) {
	remote := &fakeRemote{records: []models.AttendanceRecord{
		{SyncUUID: "u-remote", Date: "2026-08-30", SessionID: "s1", ChildName: "Chi", DayTag: "1", CheckInTime: "08:00", Status: constants.StatusCheckedIn},
	}}
	engine, _ := newTestEngine(t, remote)
	ctx := context.Background()

	// ghi lúc offline: bản ghi chỉ có trong shadow local
	remote.unreachable = true
	_, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	remote.unreachable = false

	records, err := engine.Records(ctx, RecordFilter{Date: "2026-08-30"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Chi", records[0].ChildName)
	assert.Equal(t, "An", records[1].ChildName)
	assert.Equal(t, constants.SyncStatusPending, records[1].SyncStatus)
}

func TestEngineRecordsFallsBackToLocal(t *testing.T) {
	remote := &fakeRemote{}
	engine, _ := newTestEngine(t, remote)
	ctx := context.Background()

	_, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	remote.unreachable = true
	records, err := engine.Records(ctx, RecordFilter{Date: "2026-08-30"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "An", records[0].ChildName)
}

func TestEngineLocalModePassthrough(t *testing.T) {
	local := newTestStore(t)
	engine := NewEngine(EngineOptions{Local: local})
	ctx := context.Background()

	assert.False(t, engine.RemoteMode())

	result, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	assert.Equal(t, constants.SyncResultCommitted, result.SyncResult)

	count, err := engine.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	report, err := engine.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
}

func TestEngineFlushKeepsCheckOutAwaitingRejectedCheckIn(t *testing.T) {
	// check-in và check-out của cùng một lượt cùng nằm trong hàng đợi; remote
	// từ chối riêng check-in nên replay check-out nhận NoActiveRecord. Entry
	// check-out không được gỡ như một conflict — nó chỉ đang chờ check-in
	// phía trước lên sheet
	remote := &fakeRemote{unreachable: true}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	_, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	_, err = engine.CheckOut(ctx, CheckOutInput{Date: "2026-08-30", SessionID: "s1", DayTag: "14", CheckOutTime: "10:00"})
	require.NoError(t, err)

	remote.unreachable = false
	remote.rejectCheckIns = true
	report, err := engine.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
	assert.Equal(t, 2, report.Failed)

	pending, err := local.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, constants.OpCheckIn, pending[0].Operation)
	assert.Equal(t, constants.OpCheckOut, pending[1].Operation)
	assert.Equal(t, 1, pending[1].Attempts)

	// sheet nhận lại check-in: cả chu kỳ replay theo đúng thứ tự, tag 14
	// kết thúc ở trạng thái rảnh
	remote.rejectCheckIns = false
	report, err = engine.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Empty(t, remote.openTags("2026-08-30"))
}

func TestEngineCheckOutQueuedWhenCheckInStillPending(t *testing.T) {
	// check-in nằm trong hàng đợi, check-out ngay sau đó khi mạng vừa trở
	// lại: remote chưa thấy lượt vào nên báo NoActiveRecord, entry check-out
	// phải nằm lại chờ replay theo thứ tự
	remote := &fakeRemote{unreachable: true}
	engine, local := newTestEngine(t, remote)
	ctx := context.Background()

	_, err := engine.CheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	remote.unreachable = false
	result, err := engine.CheckOut(ctx, CheckOutInput{Date: "2026-08-30", SessionID: "s1", DayTag: "14", CheckOutTime: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, constants.SyncResultQueuedPending, result.SyncResult)

	count, err := local.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	report, err := engine.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Empty(t, remote.openTags("2026-08-30"))
}
