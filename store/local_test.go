package store

import (
	"context"
	"fmt"
	"testing"

	"childcare/constants"
	apperrors "childcare/errors"
	"childcare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:store_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Child{},
		&models.Instructor{},
		&models.AttendanceRecord{},
		&models.PendingWrite{},
	))
	return NewLocalStore(db, nil)
}

func checkIn(name, tag string) CheckInInput {
	return CheckInInput{
		SyncUUID:    "uuid-" + name + "-" + tag,
		Date:        "2026-08-30",
		ChildName:   name,
		SessionID:   "s1",
		DayTag:      tag,
		CheckInTime: "09:00",
	}
}

func TestCreateCheckInRejectsHeldTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	_, err = s.CreateCheckIn(ctx, checkIn("Binh", "14"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTagInUse)
}

func TestCreateCheckInRejectsChildAlreadyIn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	in := checkIn("An", "15")
	_, err = s.CreateCheckIn(ctx, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrChildAlreadyIn)
}

func TestTagReusableAfterCheckOut(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	rec, err := s.CheckOut(ctx, CheckOutInput{
		Date: "2026-08-30", SessionID: "s1", DayTag: "14", CheckOutTime: "11:00",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCheckedOut, rec.Status)
	assert.Equal(t, "11:00", rec.CheckOutTime)

	// tag 14 giờ rảnh, bé khác dùng lại được
	_, err = s.CreateCheckIn(ctx, checkIn("Binh", "14"))
	require.NoError(t, err)
}

func TestCheckOutWithoutOpenRecord(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CheckOut(context.Background(), CheckOutInput{
		Date: "2026-08-30", SessionID: "s1", DayTag: "99", CheckOutTime: "11:00",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveRecord)
}

func TestCheckOutClosesAllOpenRowsForTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// hai dòng mở cùng tag (sheet bị sửa tay rồi import về): check-out phải
	// đóng cả hai
	for _, name := range []string{"An", "Binh"} {
		rec := checkIn(name, "14").Record()
		rec.SyncStatus = constants.SyncStatusSynced
		require.NoError(t, s.db.Create(&rec).Error)
	}

	_, _, ids, err := s.checkOut(ctx, CheckOutInput{
		Date: "2026-08-30", SessionID: "s1", DayTag: "14", CheckOutTime: "11:00",
	}, constants.SyncStatusSynced, false)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	holders, err := s.ActiveTagHolders(ctx, "s1", "2026-08-30")
	require.NoError(t, err)
	assert.Empty(t, holders)
}

func TestSessionScopedTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	// cùng tag ở session khác là hợp lệ
	other := checkIn("Binh", "14")
	other.SyncUUID = "uuid-khac-session"
	other.SessionID = "s2"
	_, err = s.CreateCheckIn(ctx, other)
	require.NoError(t, err)

	holders, err := s.ActiveTagHolders(ctx, "s1", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, "An", holders["14"].ChildName)
}

func TestPendingCheckInWritesShadowAndQueue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, seq, err := s.CreatePendingCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusPending, rec.SyncStatus)
	assert.NotZero(t, seq)

	pending, err := s.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, constants.OpCheckIn, pending[0].Operation)
	assert.Equal(t, rec.SyncUUID, pending[0].SyncUUID)

	count, err := s.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestQueuePreservesEnqueueOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, seq1, err := s.CreatePendingCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	_, _, _, err = s.CreatePendingCheckOut(ctx, CheckOutInput{
		Date: "2026-08-30", SessionID: "s1", DayTag: "14", CheckOutTime: "10:00",
	}, "uuid-co-1")
	require.NoError(t, err)
	_, seq3, err := s.CreatePendingCheckIn(ctx, checkIn("Binh", "15"))
	require.NoError(t, err)

	pending, err := s.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, seq1, pending[0].ID)
	assert.Equal(t, constants.OpCheckOut, pending[1].Operation)
	assert.Equal(t, seq3, pending[2].ID)
}

func TestMarkResolvedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, seq, err := s.CreatePendingCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	require.NoError(t, s.MarkResolved(ctx, seq))
	require.NoError(t, s.MarkResolved(ctx, seq))

	count, err := s.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIncrementAttemptExhaustsToFailed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, seq, err := s.CreatePendingCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	cause := apperrors.NewAppError(apperrors.ErrCodeRemoteRejected, "sheet từ chối", apperrors.ErrRemoteRejected)
	for i := 0; i < constants.MaxSyncAttempts; i++ {
		require.NoError(t, s.IncrementAttempt(ctx, seq, cause))
	}

	failed, err := s.ListFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, constants.MaxSyncAttempts, failed[0].Attempts)
	// last_error phải mang mã QUEUE_EXHAUSTED cho operator
	assert.Contains(t, failed[0].LastError, string(apperrors.ErrCodeQueueExhausted))

	// bản ghi shadow cũng phải bị gắn failed
	got, err := s.FindRecordByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusFailed, got.SyncStatus)

	count, err := s.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestResetFailedRequeues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, seq, err := s.CreatePendingCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)
	cause := apperrors.NewAppError(apperrors.ErrCodeRemoteRejected, "sheet từ chối", apperrors.ErrRemoteRejected)
	for i := 0; i < constants.MaxSyncAttempts; i++ {
		require.NoError(t, s.IncrementAttempt(ctx, seq, cause))
	}

	reset, err := s.ResetFailed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reset)

	pending, err := s.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Zero(t, pending[0].Attempts)
}

func TestDiscardPendingRemovesShadowCheckIn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, seq, err := s.CreatePendingCheckIn(ctx, checkIn("An", "14"))
	require.NoError(t, err)

	require.NoError(t, s.DiscardPending(ctx, seq))

	_, err = s.FindRecordByID(ctx, rec.ID)
	assert.ErrorIs(t, err, apperrors.ErrRecordNotFound)

	count, err := s.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQueryRecordsFilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, in := range []CheckInInput{
		{SyncUUID: "u1", Date: "2026-08-30", ChildName: "An", SessionID: "s1", DayTag: "1", CheckInTime: "10:00"},
		{SyncUUID: "u2", Date: "2026-08-29", ChildName: "Binh", SessionID: "s1", DayTag: "2", CheckInTime: "09:00"},
		{SyncUUID: "u3", Date: "2026-08-30", ChildName: "Chi", SessionID: "s1", DayTag: "3", CheckInTime: "08:30"},
	} {
		_, err := s.CreateCheckIn(ctx, in)
		require.NoError(t, err, "record %d", i)
	}

	records, err := s.QueryRecords(ctx, RecordFilter{DateFrom: "2026-08-29", DateTo: "2026-08-30"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Binh", records[0].ChildName)
	assert.Equal(t, "Chi", records[1].ChildName)
	assert.Equal(t, "An", records[2].ChildName)

	records, err = s.QueryRecords(ctx, RecordFilter{Date: "2026-08-30", ChildName: "An"})
	require.NoError(t, err)
	require.Len(t, records, 1)
}
