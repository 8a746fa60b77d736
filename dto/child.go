package dto

// CreateChildRequest đăng ký một bé vào roster
type CreateChildRequest struct {
	FullName       string `json:"fullName" binding:"required"`
	GuardianName   string `json:"guardianName" binding:"required"`
	GuardianPhone  string `json:"guardianPhone"`
	ClassType      string `json:"classType" binding:"required"`
	State          string `json:"state"`
	ChurchLocation string `json:"churchLocation"`
	CampGroup      string `json:"campGroup"`
	Notes          string `json:"notes"`
}

type UpdateChildRequest struct {
	GuardianName   string `json:"guardianName"`
	GuardianPhone  string `json:"guardianPhone"`
	ClassType      string `json:"classType"`
	State          string `json:"state"`
	ChurchLocation string `json:"churchLocation"`
	CampGroup      string `json:"campGroup"`
	Notes          string `json:"notes"`
}

// ChildSearchResult là một kết quả tìm kiếm mờ trên roster
type ChildSearchResult struct {
	FullName       string `json:"fullName"`
	ClassType      string `json:"classType"`
	ChurchLocation string `json:"churchLocation"`
	CampGroup      string `json:"campGroup"`
	PhotoURL       string `json:"photoUrl"`
	Score          int    `json:"score"`
}

// ImportReport tóm tắt một lượt import roster từ CSV
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
