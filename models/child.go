package models

import "time"

type Child struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	FullName       string    `gorm:"unique;not null" json:"fullName"`
	GuardianName   string    `gorm:"not null" json:"guardianName"`
	GuardianPhone  string    `json:"guardianPhone"`
	ClassType      string    `gorm:"not null" json:"classType"`
	State          string    `json:"state"`
	ChurchLocation string    `json:"churchLocation"`
	CampGroup      string    `json:"campGroup"`
	PhotoURL       string    `json:"photoUrl"`
	Notes          string    `gorm:"type:text" json:"notes"`
}

func (Child) TableName() string {
	return "children"
}
