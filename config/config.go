package config

import (
	"log"
	"os"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
)

var Cloudinary *cloudinary.Cloudinary

func ConnectCloudinary() {
	url := os.Getenv("CLOUDINARY_URL")
	if url == "" {
		log.Println("CLOUDINARY_URL chưa cấu hình, bỏ qua upload ảnh")
		return
	}
	var err error
	Cloudinary, err = cloudinary.NewFromURL(url)
	if err != nil {
		log.Fatalf("Lỗi khi khởi tạo Cloudinary: %v", err)
	}
}

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvDefault đọc biến môi trường, trả về fallback nếu chưa set
func GetEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LocalDev cho biết app đang chạy chế độ dev thuần SQLite, không đồng bộ
// Google Sheets
func LocalDev() bool {
	v := os.Getenv("LOCAL_DEV")
	return v == "1" || v == "true" || v == "True"
}
