package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"childcare/config"
	"childcare/jobs"
	"childcare/routes"
	"childcare/services"
	"childcare/services/logger"
	"childcare/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: không load được file .env, sử dụng biến môi trường có sẵn: %v", err)
	}

	router, m, c, err := config.InitApp()
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	appLogger := logger.NewDefaultLogger(logger.InfoLevel)
	local := store.NewLocalStore(config.DB, appLogger.WithPrefix("[local]"))

	var remote store.AttendanceStore
	var sheetsStore *store.SheetsStore
	if config.LocalDev() {
		log.Println("LOCAL_DEV bật: chạy thuần SQLite, không đồng bộ Google Sheets")
	} else {
		srv, sheetsCfg, err := config.ConnectSheets(context.Background())
		if err != nil {
			log.Fatalf("Failed to connect to Google Sheets: %v", err)
		}
		sheetsStore = store.NewSheetsStore(srv, sheetsCfg, appLogger.WithPrefix("[sheets]"))
		remote = sheetsStore
	}

	engine := store.NewEngine(store.EngineOptions{
		Local:  local,
		Remote: remote,
		Logger: appLogger.WithPrefix("[sync]"),
		OnPending: func(count int64) {
			services.BroadcastPendingCount(m, count)
		},
	})
	services.SetEngine(engine)

	if sheetsStore != nil {
		if err := services.SeedInstructors(context.Background(), sheetsStore); err != nil {
			log.Printf("Warning: không seed được giáo viên từ sheet: %v", err)
		}
	}

	jobs.SetQueueFlusher(services.SyncFlusher{})

	if err := jobs.InitCronJobs(c, m); err != nil {
		log.Fatalf("Failed to initialize cron jobs: %v", err)
	}

	config.InitWebSocket(router, m)

	routes.SetupRoutes(router, m)

	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8083"
	}

	log.Println("Server starting on port " + port + "...")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
