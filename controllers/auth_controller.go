package controllers

import (
	"childcare/config"
	"childcare/dto"
	"childcare/models"
	"childcare/response"
	"childcare/services"
	"childcare/validator"

	"github.com/gin-gonic/gin"
)

func Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	instructor, err := services.Login(input.Username, input.Password)
	if err != nil {
		response.BadRequest(c, "Sai tên đăng nhập hoặc mật khẩu")
		return
	}

	userInfo := services.UserInfo{
		UserId: instructor.ID,
		Role:   instructor.Role,
	}

	accessToken, err := services.GenerateToken(userInfo, 60*24*3)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, dto.LoginResponse{
		Token:      accessToken,
		Instructor: toInstructorResponse(&instructor),
	})
}

func Logout(c *gin.Context) {
	cookies := c.Request.Cookies()
	for _, cookie := range cookies {
		c.SetCookie(cookie.Name, "", -1, "/", "", cookie.Secure, cookie.HttpOnly)
	}

	response.Success(c, nil)
}

// RegisterInstructor tạo tài khoản giáo viên, chỉ admin gọi được
func RegisterInstructor(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validator.ValidateRegister(&input); err != nil {
		handleAppError(c, err)
		return
	}

	instructor, err := services.CreateInstructor(models.Instructor{
		Username:     input.Username,
		Password:     input.Password,
		FullName:     input.FullName,
		PhoneNumber:  input.PhoneNumber,
		ChurchBranch: input.ChurchBranch,
		Role:         input.Role,
	})
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, toInstructorResponse(&instructor))
}

// GetProfile trả về thông tin giáo viên đang đăng nhập
func GetProfile(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		response.Unauthorized(c)
		return
	}
	var instructor models.Instructor
	if err := config.DB.First(&instructor, userID).Error; err != nil {
		response.NotFound(c, "Không tìm thấy giáo viên")
		return
	}
	response.Success(c, toInstructorResponse(&instructor))
}

func toInstructorResponse(ins *models.Instructor) dto.InstructorResponse {
	return dto.InstructorResponse{
		ID:           ins.ID,
		Username:     ins.Username,
		FullName:     ins.FullName,
		PhoneNumber:  ins.PhoneNumber,
		ChurchBranch: ins.ChurchBranch,
		Role:         ins.Role,
		CreatedAt:    ins.CreatedAt,
	}
}
