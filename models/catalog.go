package models

import "github.com/go-playground/validator/v10"

// Catalog là dữ liệu tham chiếu (event, session, dropdown) nạp từ file JSON
// cấu hình camp. Core chỉ đọc, không bao giờ ghi.
type Catalog struct {
	Events         []Event `json:"events" validate:"required,min=1,dive"`
	DefaultEventID string  `json:"default_event_id"`
}

type Event struct {
	ID              string    `json:"id" validate:"required"`
	Name            string    `json:"name" validate:"required"`
	StartDate       string    `json:"start_date"` // YYYY-MM-DD
	EndDate         string    `json:"end_date"`
	Location        string    `json:"location"`
	Sessions        []Session `json:"sessions"`
	States          []string  `json:"states"`
	ChurchLocations []string  `json:"church_locations"`
	CampGroups      []string  `json:"camp_groups"`
}

type Session struct {
	ID        string `json:"id" validate:"required"`
	Label     string `json:"label"`
	Date      string `json:"date" validate:"required"` // YYYY-MM-DD
	Period    string `json:"period"`
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`
}

// Validate kiểm tra catalog nạp từ file có đủ trường bắt buộc không
func (c *Catalog) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	for i := range c.Events {
		for j := range c.Events[i].Sessions {
			if err := validate.Struct(&c.Events[i].Sessions[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// FindSession tìm session theo id trong event
func (e *Event) FindSession(sessionID string) *Session {
	if sessionID == "" {
		return nil
	}
	for i := range e.Sessions {
		if e.Sessions[i].ID == sessionID {
			return &e.Sessions[i]
		}
	}
	return nil
}

// SessionsForDate trả về các session diễn ra trong một ngày
func (e *Event) SessionsForDate(date string) []Session {
	var out []Session
	for _, s := range e.Sessions {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out
}

// Dates trả về danh sách ngày (duy nhất, đã sắp xếp theo thứ tự khai báo)
func (e *Event) Dates() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range e.Sessions {
		if s.Date != "" && !seen[s.Date] {
			seen[s.Date] = true
			out = append(out, s.Date)
		}
	}
	return out
}
