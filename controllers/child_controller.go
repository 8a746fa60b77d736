package controllers

import (
	"strconv"

	"childcare/config"
	"childcare/dto"
	"childcare/response"
	"childcare/services"
	"childcare/validator"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
)

// GetChildren trả về roster, lọc theo lớp/bang/điểm nhóm và phân trang
func GetChildren(c *gin.Context) {
	children, err := services.ListRoster(c.Request.Context())
	if err != nil {
		handleAppError(c, err)
		return
	}

	class := c.Query("class")
	state := c.Query("state")
	location := c.Query("location")
	if class != "" || state != "" || location != "" {
		filtered := children[:0:0]
		for _, child := range children {
			if class != "" && child.ClassType != class {
				continue
			}
			if state != "" && child.State != state {
				continue
			}
			if location != "" && child.ChurchLocation != location {
				continue
			}
			filtered = append(filtered, child)
		}
		children = filtered
	}

	total := len(children)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * limit
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}
		children = children[start:end]
	}

	response.SuccessWithTotal(c, children, total)
}

// SearchChildren tìm kiếm mờ trên roster, dùng cho ô gõ tên lúc check-in
func SearchChildren(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.BadRequest(c, "Thiếu tham số q")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	results, err := services.SearchChildren(c.Request.Context(), query, limit)
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.SuccessWithTotal(c, results, len(results))
}

// CreateChild đăng ký bé mới
func CreateChild(c *gin.Context) {
	var req dto.CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validator.ValidateChild(&req); err != nil {
		handleAppError(c, err)
		return
	}

	child, err := services.CreateChild(c.Request.Context(), &req)
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, child)
}

// UpdateChild cập nhật thông tin bé
func UpdateChild(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID không hợp lệ")
		return
	}
	var req dto.UpdateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	child, err := services.UpdateChild(c.Request.Context(), uint(id), &req)
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, child)
}

// DeleteChild gỡ bé khỏi roster
func DeleteChild(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID không hợp lệ")
		return
	}
	if err := services.DeleteChild(c.Request.Context(), uint(id)); err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, nil)
}

// UploadChildPhoto upload ảnh bé lên Cloudinary rồi gắn URL vào roster
func UploadChildPhoto(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID không hợp lệ")
		return
	}
	if config.Cloudinary == nil {
		response.BadRequest(c, "Upload ảnh chưa được cấu hình")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Không có file")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "Không đọc được file")
		return
	}
	defer src.Close()

	resp, err := config.Cloudinary.Upload.Upload(c.Request.Context(), src, uploader.UploadParams{Folder: "children"})
	if err != nil {
		response.ServerError(c)
		return
	}

	child, err := services.UpdateChildPhoto(c.Request.Context(), uint(id), resp.SecureURL)
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, child)
}

// ImportChildren nạp roster từ file CSV upload
func ImportChildren(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Không có file")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "Không đọc được file")
		return
	}
	defer src.Close()

	report, err := services.ImportChildrenCSV(c.Request.Context(), src)
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, report)
}

// GetImportTemplate tải file CSV mẫu
func GetImportTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="roster_template.csv"`)
	c.Header("Content-Type", "text/csv")
	if err := services.WriteChildrenCSVTemplate(c.Writer); err != nil {
		response.ServerError(c)
	}
}
