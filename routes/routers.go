package routes

import (
	"childcare/constants"
	"childcare/controllers"
	middlewares "childcare/middleware"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

func SetupRoutes(router *gin.Engine, m *melody.Melody) {

	attendanceController := controllers.NewAttendanceController(m)
	syncController := controllers.NewSyncController(m)

	v1 := router.Group("/api/v1")

	v1.POST("/auth/login", controllers.Login)
	v1.DELETE("/auth/logout", controllers.Logout)
	v1.POST("/auth/register", middlewares.AuthMiddleware(constants.RoleAdmin), controllers.RegisterInstructor)
	v1.GET("/profile", middlewares.AuthMiddleware(), controllers.GetProfile)

	v1.GET("/children", controllers.GetChildren)
	v1.GET("/children/search", controllers.SearchChildren)
	v1.POST("/children", middlewares.AuthMiddleware(), controllers.CreateChild)
	v1.PUT("/children/:id", middlewares.AuthMiddleware(), controllers.UpdateChild)
	v1.DELETE("/children/:id", middlewares.AuthMiddleware(constants.RoleAdmin), controllers.DeleteChild)
	v1.POST("/children/:id/photo", middlewares.AuthMiddleware(), controllers.UploadChildPhoto)
	v1.POST("/children/import", middlewares.AuthMiddleware(constants.RoleAdmin), controllers.ImportChildren)
	v1.GET("/children/import/template", controllers.GetImportTemplate)

	v1.POST("/attendance/checkin", middlewares.AuthMiddleware(), attendanceController.CheckIn)
	v1.POST("/attendance/checkout", middlewares.AuthMiddleware(), attendanceController.CheckOut)
	v1.GET("/attendance/active", attendanceController.GetActiveTags)
	v1.GET("/attendance/records", attendanceController.GetRecords)
	v1.GET("/attendance/pending", attendanceController.GetPendingRecords)
	v1.DELETE("/attendance/records/:id", middlewares.AuthMiddleware(constants.RoleAdmin), attendanceController.DeleteRecord)

	v1.GET("/reports", controllers.GetReport)
	v1.GET("/reports/export", controllers.ExportReport)
	v1.GET("/dashboard", controllers.GetDashboard)

	v1.GET("/sync/status", syncController.GetStatus)
	v1.POST("/sync/flush", middlewares.AuthMiddleware(), syncController.Flush)
	v1.POST("/sync/retry", middlewares.AuthMiddleware(constants.RoleAdmin), syncController.Retry)

	v1.GET("/catalog", controllers.GetCatalog)
	v1.GET("/catalog/events", controllers.GetEvents)
	v1.GET("/catalog/events/:id", controllers.GetEvent)
	v1.GET("/catalog/session/current", controllers.GetCurrentSession)
}
