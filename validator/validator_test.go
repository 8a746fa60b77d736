package validator

import (
	"testing"

	"childcare/dto"
	"childcare/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCheckIn(t *testing.T) {
	req := dto.CheckInRequest{ChildName: "An", DayTag: "14", Date: "2026-08-30", CheckInTime: "09:00"}
	assert.NoError(t, ValidateCheckIn(&req))

	bad := req
	bad.ChildName = "  "
	assert.Error(t, ValidateCheckIn(&bad))

	bad = req
	bad.DayTag = "tag có dấu cách"
	assert.Error(t, ValidateCheckIn(&bad))

	bad = req
	bad.Date = "30/08/2026"
	assert.Error(t, ValidateCheckIn(&bad))

	bad = req
	bad.CheckInTime = "25:00"
	assert.Error(t, ValidateCheckIn(&bad))
}

func TestValidateCheckOut(t *testing.T) {
	req := dto.CheckOutRequest{DayTag: "14", Date: "2026-08-30", CheckOutTime: "11:00"}
	assert.NoError(t, ValidateCheckOut(&req))

	bad := req
	bad.DayTag = ""
	err := ValidateCheckOut(&bad)
	require.Error(t, err)
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCodeRequiredField, appErr.Code)
}

func TestValidateChild(t *testing.T) {
	req := dto.CreateChildRequest{
		FullName:     "Nguyễn Văn An",
		GuardianName: "Nguyễn Văn B",
		ClassType:    "Kids 6-8",
	}
	assert.NoError(t, ValidateChild(&req))

	bad := req
	bad.GuardianPhone = "abc"
	assert.Error(t, ValidateChild(&bad))

	bad = req
	bad.ClassType = ""
	assert.Error(t, ValidateChild(&bad))
}

func TestValidateRegister(t *testing.T) {
	req := dto.RegisterInput{Username: "teacher1", Password: "secret1", FullName: "Cô Ba"}
	assert.NoError(t, ValidateRegister(&req))

	bad := req
	bad.Password = "123"
	assert.Error(t, ValidateRegister(&bad))

	bad = req
	bad.Role = 5
	assert.Error(t, ValidateRegister(&bad))
}
