package store

import (
	stderrors "errors"
	"testing"

	apperrors "childcare/errors"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestClassifyRemoteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"bad request là rejected", &googleapi.Error{Code: 400, Message: "bad range"}, apperrors.ErrRemoteRejected},
		{"forbidden là rejected", &googleapi.Error{Code: 403}, apperrors.ErrRemoteRejected},
		{"timeout 408 retry được", &googleapi.Error{Code: 408}, apperrors.ErrRemoteUnreachable},
		{"rate limit 429 retry được", &googleapi.Error{Code: 429}, apperrors.ErrRemoteUnreachable},
		{"server error là unreachable", &googleapi.Error{Code: 503}, apperrors.ErrRemoteUnreachable},
		{"lỗi mạng thường là unreachable", stderrors.New("dial tcp: i/o timeout"), apperrors.ErrRemoteUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRemoteError(tt.err)
			assert.ErrorIs(t, got, tt.sentinel)
		})
	}

	assert.NoError(t, classifyRemoteError(nil))
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(0))
	assert.Equal(t, "N", columnLetter(13))
	assert.Equal(t, "Z", columnLetter(25))
	assert.Equal(t, "AA", columnLetter(26))
	assert.Equal(t, "AB", columnLetter(27))
}

func TestHeaderIndexAndCell(t *testing.T) {
	header := []string{"Date", " Child Name ", "Day Tag"}
	assert.Equal(t, 1, headerIndex(header, "Child Name"))
	assert.Equal(t, -1, headerIndex(header, "Sync UUID"))

	row := []string{"2026-08-30", " An "}
	assert.Equal(t, "An", cell(row, header, "Child Name"))
	// dòng ngắn hơn header: cột thiếu trả rỗng
	assert.Equal(t, "", cell(row, header, "Day Tag"))
}

func TestRowForFollowsHeaderOrder(t *testing.T) {
	s := &SheetsStore{}
	in := checkIn("An", "14")
	rec := in.Record()

	// header sheet cũ: thiếu cột, thứ tự khác chuẩn
	header := []string{"Child Name", "Date", "Day Tag", "Sync UUID"}
	row := s.rowFor(header, &rec)

	assert.Equal(t, []interface{}{"An", "2026-08-30", "14", "uuid-An-14"}, row)
}

func TestRecordOpen(t *testing.T) {
	in := checkIn("An", "14")
	rec := in.Record()
	assert.True(t, rec.Open())

	rec.CheckOutTime = "11:00"
	assert.False(t, rec.Open())
}
