package dto

// ReportFilter là bộ lọc query string cho trang báo cáo
type ReportFilter struct {
	EventID        string `form:"eventId"`
	SessionID      string `form:"sessionId"`
	Period         string `form:"period"`
	State          string `form:"state"`
	ChurchLocation string `form:"churchLocation"`
	ClassType      string `form:"classType"`
	ChildName      string `form:"childName"`
	DayTag         string `form:"dayTag"`
	Status         string `form:"status"`
	Date           string `form:"date"`
	DateFrom       string `form:"dateFrom"`
	DateTo         string `form:"dateTo"`
}

// ReportSummary là phần tổng hợp đầu trang báo cáo
type ReportSummary struct {
	Total      int            `json:"total"`
	CheckedIn  int            `json:"checkedIn"`
	CheckedOut int            `json:"checkedOut"`
	Pending    int            `json:"pendingSync"`
	ByClass    map[string]int `json:"byClass"`
	ByDate     map[string]int `json:"byDate"`
	ByPeriod   map[string]int `json:"byPeriod"`
}

// DashboardResponse là số liệu trang chủ
type DashboardResponse struct {
	Date         string `json:"date"`
	ActiveCount  int    `json:"activeCount"`
	TotalToday   int    `json:"totalToday"`
	PendingSync  int64  `json:"pendingSync"`
	FailedSync   int    `json:"failedSync"`
	RosterSize   int    `json:"rosterSize"`
	RemoteMode   bool   `json:"remoteMode"`
	DefaultEvent string `json:"defaultEvent"`
}
