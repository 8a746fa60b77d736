package validator

import (
	"regexp"
	"strings"
	"time"

	"childcare/dto"
	"childcare/errors"
)

var (
	dayTagRegex = regexp.MustCompile(`^[A-Za-z0-9-]{1,10}$`)
	timeRegex   = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	phoneRegex  = regexp.MustCompile(`^[0-9+][0-9 -]{6,14}$`)
)

// ValidateCheckIn validate request check-in
func ValidateCheckIn(req *dto.CheckInRequest) error {
	if strings.TrimSpace(req.ChildName) == "" {
		return errors.NewAppError(errors.ErrCodeRequiredField, "Tên bé không được để trống", nil)
	}
	if err := ValidateDayTag(req.DayTag); err != nil {
		return err
	}
	if req.Date != "" {
		if err := ValidateDate(req.Date); err != nil {
			return err
		}
	}
	if req.CheckInTime != "" && !timeRegex.MatchString(req.CheckInTime) {
		return errors.NewAppError(errors.ErrCodeInvalidFormat, "Giờ check-in phải theo định dạng HH:MM", nil)
	}
	return nil
}

// ValidateCheckOut validate request check-out
func ValidateCheckOut(req *dto.CheckOutRequest) error {
	if err := ValidateDayTag(req.DayTag); err != nil {
		return err
	}
	if req.Date != "" {
		if err := ValidateDate(req.Date); err != nil {
			return err
		}
	}
	if req.CheckOutTime != "" && !timeRegex.MatchString(req.CheckOutTime) {
		return errors.NewAppError(errors.ErrCodeInvalidFormat, "Giờ check-out phải theo định dạng HH:MM", nil)
	}
	return nil
}

// ValidateDayTag kiểm tra mã tag hợp lệ
func ValidateDayTag(tag string) error {
	if strings.TrimSpace(tag) == "" {
		return errors.NewAppError(errors.ErrCodeRequiredField, "Tag không được để trống", nil)
	}
	if !dayTagRegex.MatchString(strings.TrimSpace(tag)) {
		return errors.NewAppError(errors.ErrCodeInvalidFormat, "Tag chỉ gồm chữ, số và dấu gạch, tối đa 10 ký tự", nil)
	}
	return nil
}

// ValidateDate kiểm tra ngày theo định dạng YYYY-MM-DD
func ValidateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return errors.NewAppError(errors.ErrCodeInvalidFormat, "Ngày phải theo định dạng YYYY-MM-DD", err)
	}
	return nil
}

// ValidateChild validate thông tin đăng ký bé
func ValidateChild(req *dto.CreateChildRequest) error {
	if strings.TrimSpace(req.FullName) == "" {
		return errors.NewAppError(errors.ErrCodeRequiredField, "Tên bé không được để trống", nil)
	}
	if strings.TrimSpace(req.GuardianName) == "" {
		return errors.NewAppError(errors.ErrCodeRequiredField, "Tên phụ huynh không được để trống", nil)
	}
	if strings.TrimSpace(req.ClassType) == "" {
		return errors.NewAppError(errors.ErrCodeRequiredField, "Lớp không được để trống", nil)
	}
	if req.GuardianPhone != "" && !phoneRegex.MatchString(req.GuardianPhone) {
		return errors.NewAppError(errors.ErrCodeInvalidFormat, "Số điện thoại phụ huynh không hợp lệ", nil)
	}
	return nil
}

// ValidateRegister validate thông tin đăng ký giáo viên
func ValidateRegister(req *dto.RegisterInput) error {
	if strings.TrimSpace(req.Username) == "" {
		return errors.NewAppError(errors.ErrCodeRequiredField, "Username không được để trống", nil)
	}
	if len(req.Password) < 6 {
		return errors.NewAppError(errors.ErrCodeValidation, "Mật khẩu phải có ít nhất 6 ký tự", nil)
	}
	if strings.TrimSpace(req.FullName) == "" {
		return errors.NewAppError(errors.ErrCodeRequiredField, "Tên giáo viên không được để trống", nil)
	}
	if req.Role < 0 || req.Role > 1 {
		return errors.NewAppError(errors.ErrCodeInvalidRole, "Role không hợp lệ", nil)
	}
	return nil
}
