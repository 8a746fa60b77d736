package services

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"childcare/config"
	"childcare/dto"
	"childcare/errors"
	"childcare/models"

	"gorm.io/gorm"
)

// Cột chuẩn của file CSV import roster, khớp header trên sheet đăng ký
var childCSVHeaders = []string{
	"Child Full Name",
	"Guardian Name",
	"Guardian Phone",
	"Class Type",
	"State",
	"Church Location",
	"Camp Group",
	"Notes",
}

// ListRoster trả về roster, ưu tiên cache Redis
func ListRoster(ctx context.Context) ([]models.Child, error) {
	var children []models.Child
	hit, err := GetFromRedis(ctx, config.RedisClient, RosterCacheKey, &children)
	if err == nil && hit {
		return children, nil
	}
	children, err = Attendance.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	if err := SetToRedis(ctx, config.RedisClient, RosterCacheKey, children, RosterCacheTTL); err != nil {
		// cache hỏng không chặn đọc
		fmt.Println("Lỗi cache roster:", err)
	}
	return children, nil
}

func invalidateRoster(ctx context.Context) {
	if err := DeleteFromRedis(ctx, config.RedisClient, RosterCacheKey); err != nil {
		fmt.Println("Lỗi xóa cache roster:", err)
	}
}

// CreateChild đăng ký một bé mới vào roster
func CreateChild(ctx context.Context, req *dto.CreateChildRequest) (*models.Child, error) {
	var existing models.Child
	err := config.DB.Where("full_name = ?", strings.TrimSpace(req.FullName)).First(&existing).Error
	if err == nil {
		return nil, errors.NewAppError(errors.ErrCodeDBDuplicate,
			"Bé "+req.FullName+" đã có trong roster", nil)
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NewAppError(errors.ErrCodeDBError, "Lỗi truy vấn children", err)
	}

	child := models.Child{
		FullName:       strings.TrimSpace(req.FullName),
		GuardianName:   req.GuardianName,
		GuardianPhone:  req.GuardianPhone,
		ClassType:      req.ClassType,
		State:          req.State,
		ChurchLocation: req.ChurchLocation,
		CampGroup:      req.CampGroup,
		Notes:          req.Notes,
	}
	if err := Attendance.RegisterChild(ctx, &child); err != nil {
		return nil, err
	}
	invalidateRoster(ctx)
	return &child, nil
}

// UpdateChild cập nhật thông tin một bé
func UpdateChild(ctx context.Context, id uint, req *dto.UpdateChildRequest) (*models.Child, error) {
	var child models.Child
	if err := config.DB.First(&child, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewAppError(errors.ErrCodeChildNotFound, "Không tìm thấy bé", errors.ErrChildNotFound)
		}
		return nil, errors.NewAppError(errors.ErrCodeDBError, "Lỗi truy vấn children", err)
	}

	if req.GuardianName != "" {
		child.GuardianName = req.GuardianName
	}
	if req.GuardianPhone != "" {
		child.GuardianPhone = req.GuardianPhone
	}
	if req.ClassType != "" {
		child.ClassType = req.ClassType
	}
	if req.State != "" {
		child.State = req.State
	}
	if req.ChurchLocation != "" {
		child.ChurchLocation = req.ChurchLocation
	}
	if req.CampGroup != "" {
		child.CampGroup = req.CampGroup
	}
	if req.Notes != "" {
		child.Notes = req.Notes
	}

	if err := config.DB.Save(&child).Error; err != nil {
		return nil, errors.NewAppError(errors.ErrCodeDBError, "Lỗi cập nhật bé", err)
	}
	invalidateRoster(ctx)
	return &child, nil
}

// UpdateChildPhoto gắn URL ảnh sau khi upload Cloudinary xong
func UpdateChildPhoto(ctx context.Context, id uint, photoURL string) (*models.Child, error) {
	var child models.Child
	if err := config.DB.First(&child, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewAppError(errors.ErrCodeChildNotFound, "Không tìm thấy bé", errors.ErrChildNotFound)
		}
		return nil, errors.NewAppError(errors.ErrCodeDBError, "Lỗi truy vấn children", err)
	}
	child.PhotoURL = photoURL
	if err := config.DB.Save(&child).Error; err != nil {
		return nil, errors.NewAppError(errors.ErrCodeDBError, "Lỗi cập nhật ảnh", err)
	}
	invalidateRoster(ctx)
	return &child, nil
}

// DeleteChild gỡ một bé khỏi roster local
func DeleteChild(ctx context.Context, id uint) error {
	res := config.DB.Delete(&models.Child{}, id)
	if res.Error != nil {
		return errors.NewAppError(errors.ErrCodeDBError, "Lỗi xóa bé", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NewAppError(errors.ErrCodeChildNotFound, "Không tìm thấy bé", errors.ErrChildNotFound)
	}
	invalidateRoster(ctx)
	return nil
}

// ImportChildrenCSV nạp roster từ file CSV. Dòng trùng tên hoặc thiếu trường
// bắt buộc bị bỏ qua và ghi vào báo cáo, các dòng còn lại vẫn được import.
func ImportChildrenCSV(ctx context.Context, r io.Reader) (*dto.ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCodeInvalidFormat, "File CSV rỗng hoặc không đọc được", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	if _, ok := col["Child Full Name"]; !ok {
		return nil, errors.NewAppError(errors.ErrCodeInvalidFormat, "File CSV thiếu cột Child Full Name", nil)
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	report := &dto.ImportReport{}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("dòng %d: %v", line, err))
			continue
		}
		req := dto.CreateChildRequest{
			FullName:       field(row, "Child Full Name"),
			GuardianName:   field(row, "Guardian Name"),
			GuardianPhone:  field(row, "Guardian Phone"),
			ClassType:      field(row, "Class Type"),
			State:          field(row, "State"),
			ChurchLocation: field(row, "Church Location"),
			CampGroup:      field(row, "Camp Group"),
			Notes:          field(row, "Notes"),
		}
		if req.FullName == "" || req.GuardianName == "" || req.ClassType == "" {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("dòng %d: thiếu trường bắt buộc", line))
			continue
		}
		if _, err := CreateChild(ctx, &req); err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("dòng %d: %v", line, err))
			continue
		}
		report.Imported++
	}
	return report, nil
}

// WriteChildrenCSVTemplate ghi file CSV mẫu cho import roster
func WriteChildrenCSVTemplate(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(childCSVHeaders); err != nil {
		return err
	}
	example := []string{"Nguyen Van A", "Nguyen Van B", "0901234567", "Kids 6-8", "Lagos", "Ikeja", "Group 1", ""}
	if err := writer.Write(example); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
