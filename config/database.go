package config

import (
	"fmt"
	"log"

	"childcare/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	path := GetEnvDefault("SQLITE_PATH", "attendance.db")

	// busy_timeout tránh SQLITE_BUSY khi cron flush và request ghi cùng lúc
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Fail to connect to db : %v", err)
	}

	if err := DB.AutoMigrate(
		&models.Child{},
		&models.Instructor{},
		&models.AttendanceRecord{},
		&models.PendingWrite{},
	); err != nil {
		log.Fatalf("Lỗi migrate schema: %v", err)
	}

	fmt.Println("Successfully connected to db")
}
