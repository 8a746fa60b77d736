package services

import (
	"bytes"
	"encoding/csv"
	"testing"

	"childcare/constants"
	"childcare/dto"
	"childcare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []models.AttendanceRecord {
	return []models.AttendanceRecord{
		{
			Date: "2026-08-30", ChildName: "An", SessionPeriod: constants.PeriodMorning,
			DayTag: "14", CheckInTime: "09:00", Status: constants.StatusCheckedIn,
			SyncStatus: constants.SyncStatusSynced,
		},
		{
			Date: "2026-08-30", ChildName: "Binh", SessionPeriod: constants.PeriodMorning,
			DayTag: "15", CheckInTime: "09:05", CheckOutTime: "11:00",
			Status: constants.StatusCheckedOut, SyncStatus: constants.SyncStatusSynced,
		},
		{
			Date: "2026-08-31", ChildName: "An", SessionPeriod: constants.PeriodAfternoon,
			DayTag: "14", CheckInTime: "14:00", Status: constants.StatusCheckedIn,
			SyncStatus: constants.SyncStatusPending,
		},
	}
}

func TestSummarize(t *testing.T) {
	classes := map[string]string{"An": "Kids 6-8", "Binh": "Kids 9-11"}
	summary := Summarize(sampleRecords(), classes)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.CheckedIn)
	assert.Equal(t, 1, summary.CheckedOut)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 2, summary.ByClass["Kids 6-8"])
	assert.Equal(t, 2, summary.ByDate["2026-08-30"])
	assert.Equal(t, 1, summary.ByPeriod[constants.PeriodAfternoon])
}

func TestWriteReportCSV(t *testing.T) {
	var buf bytes.Buffer
	classes := map[string]string{"An": "Kids 6-8"}
	require.NoError(t, WriteReportCSV(&buf, sampleRecords(), classes))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, reportCSVHeaders, rows[0])
	assert.Equal(t, "An", rows[1][1])
	assert.Equal(t, "Kids 6-8", rows[1][2])
	assert.Equal(t, constants.SyncStatusPending, rows[3][14])
}

func TestToRecordFilter(t *testing.T) {
	f := dto.ReportFilter{
		EventID:  "camp-2026",
		Period:   constants.PeriodMorning,
		DayTag:   "14",
		Date:     "2026-08-30",
		DateFrom: "2026-08-01",
	}
	got := toRecordFilter(&f)
	assert.Equal(t, "camp-2026", got.EventID)
	assert.Equal(t, constants.PeriodMorning, got.Period)
	assert.Equal(t, "14", got.DayTag)
	assert.Equal(t, "2026-08-30", got.Date)
	assert.Equal(t, "2026-08-01", got.DateFrom)
	assert.Empty(t, got.SyncStatus)
}
