package config

import (
	"log"
	"os"

	"childcare/constants"
	"childcare/models"

	"github.com/goccy/go-json"
)

var AppCatalog *models.Catalog

// LoadCatalog nạp danh mục event/session từ file JSON cấu hình camp. Thiếu
// file thì dùng catalog mặc định một event church-service, giống cách bản
// điểm danh Chủ nhật hoạt động trước khi có camp.
func LoadCatalog() {
	path := GetEnvDefault("CATALOG_PATH", "catalog.json")
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Không đọc được catalog %s, dùng catalog mặc định: %v", path, err)
		AppCatalog = defaultCatalog()
		return
	}
	var catalog models.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		log.Fatalf("Catalog %s không hợp lệ: %v", path, err)
	}
	if err := catalog.Validate(); err != nil {
		log.Fatalf("Catalog %s thiếu trường bắt buộc: %v", path, err)
	}
	if catalog.DefaultEventID == "" && len(catalog.Events) > 0 {
		catalog.DefaultEventID = catalog.Events[0].ID
	}
	AppCatalog = &catalog
	log.Printf("Đã nạp catalog %s (%d event)", path, len(catalog.Events))
}

func defaultCatalog() *models.Catalog {
	return &models.Catalog{
		DefaultEventID: constants.DefaultEventID,
		Events: []models.Event{{
			ID:   constants.DefaultEventID,
			Name: "Church Service",
		}},
	}
}

// FindEvent tra event theo id, rỗng thì trả event mặc định
func FindEvent(eventID string) *models.Event {
	if AppCatalog == nil {
		return nil
	}
	if eventID == "" {
		eventID = AppCatalog.DefaultEventID
	}
	for i := range AppCatalog.Events {
		if AppCatalog.Events[i].ID == eventID {
			return &AppCatalog.Events[i]
		}
	}
	return nil
}
