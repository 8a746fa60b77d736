package services

import (
	"context"
	stderrors "errors"
	"log"

	"childcare/config"
	"childcare/errors"
	"childcare/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// GetInstructorByUsername tìm giáo viên theo username
func GetInstructorByUsername(username string) (models.Instructor, error) {
	var instructor models.Instructor
	result := config.DB.Where("username = ?", username).First(&instructor)
	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return instructor, errors.NewAppError(errors.ErrCodeUnauthorized, "Sai tên đăng nhập hoặc mật khẩu", errors.ErrUserNotFound)
	}
	if result.Error != nil {
		return instructor, errors.NewAppError(errors.ErrCodeDBError, "Lỗi truy vấn instructors", result.Error)
	}
	return instructor, nil
}

// Login xác thực giáo viên và trả về instructor nếu mật khẩu đúng
func Login(username, password string) (models.Instructor, error) {
	instructor, err := GetInstructorByUsername(username)
	if err != nil {
		return instructor, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(instructor.Password), []byte(password)); err != nil {
		return instructor, errors.NewAppError(errors.ErrCodeInvalidPassword, "Sai tên đăng nhập hoặc mật khẩu", errors.ErrInvalidPassword)
	}
	return instructor, nil
}

// CreateInstructor tạo tài khoản giáo viên mới
func CreateInstructor(input models.Instructor) (models.Instructor, error) {
	var existing models.Instructor
	if err := config.DB.Where("username = ?", input.Username).First(&existing).Error; err == nil {
		return models.Instructor{}, errors.NewAppError(errors.ErrCodeUserExists, "Username "+input.Username+" đã được sử dụng", nil)
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return models.Instructor{}, errors.NewAppError(errors.ErrCodeValidation, "Không hash được mật khẩu", err)
	}
	input.Password = hashed

	if err := config.DB.Create(&input).Error; err != nil {
		return models.Instructor{}, errors.NewAppError(errors.ErrCodeDBError, "Lỗi tạo giáo viên", err)
	}
	return input, nil
}

// InstructorLister là nguồn danh sách giáo viên phía remote (sheet
// Instructors)
type InstructorLister interface {
	Instructors(ctx context.Context) ([]models.Instructor, error)
}

// SeedInstructors đồng bộ danh sách giáo viên từ sheet về SQLite lúc khởi
// động. Mật khẩu trên sheet là plaintext do admin nhập tay, hash lại trước
// khi lưu. Giáo viên đã có trong DB thì giữ nguyên.
func SeedInstructors(ctx context.Context, src InstructorLister) error {
	instructors, err := src.Instructors(ctx)
	if err != nil {
		return err
	}
	for _, ins := range instructors {
		var existing models.Instructor
		err := config.DB.Where("username = ?", ins.Username).First(&existing).Error
		if err == nil {
			continue
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NewAppError(errors.ErrCodeDBError, "Lỗi truy vấn instructors", err)
		}
		hashed, herr := HashPassword(ins.Password)
		if herr != nil {
			continue
		}
		ins.Password = hashed
		if cerr := config.DB.Create(&ins).Error; cerr != nil {
			log.Printf("Lỗi seed giáo viên %s: %v", ins.Username, cerr)
		}
	}
	return nil
}
