package controllers

import (
	"childcare/config"
	"childcare/models"
	"childcare/response"
	"childcare/services"

	"github.com/gin-gonic/gin"
)

func configDefaultEvent() *models.Event {
	if config.AppCatalog == nil {
		return nil
	}
	return config.FindEvent(config.AppCatalog.DefaultEventID)
}

// GetCatalog trả về toàn bộ danh mục event/session cho UI dựng dropdown
func GetCatalog(c *gin.Context) {
	if config.AppCatalog == nil {
		response.NotFound(c, "Chưa nạp catalog")
		return
	}
	response.Success(c, config.AppCatalog)
}

// GetEvents liệt kê các event đang mở
func GetEvents(c *gin.Context) {
	if config.AppCatalog == nil {
		response.NotFound(c, "Chưa nạp catalog")
		return
	}
	response.SuccessWithTotal(c, config.AppCatalog.Events, len(config.AppCatalog.Events))
}

// GetEvent trả về một event, kèm các session của ngày được hỏi
func GetEvent(c *gin.Context) {
	event := config.FindEvent(c.Param("id"))
	if event == nil {
		response.NotFound(c, "Không tìm thấy event")
		return
	}

	date := c.Query("date")
	if date == "" {
		response.Success(c, event)
		return
	}
	response.Success(c, gin.H{
		"event":    event,
		"date":     date,
		"sessions": event.SessionsForDate(date),
	})
}

// GetCurrentSession trả về session đang diễn ra của event mặc định, UI điểm
// danh dùng để chọn sẵn session lúc mở trang
func GetCurrentSession(c *gin.Context) {
	event := config.FindEvent(c.Query("eventId"))
	if event == nil {
		response.NotFound(c, "Không tìm thấy event")
		return
	}
	date := c.DefaultQuery("date", services.CurrentDate())
	session, err := services.ResolveSession(event, "", date, services.CurrentTime())
	if err != nil {
		handleAppError(c, err)
		return
	}
	response.Success(c, gin.H{
		"event":   event.ID,
		"date":    date,
		"session": session,
	})
}
