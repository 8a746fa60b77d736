package models

import "time"

type Instructor struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	Username     string    `gorm:"unique;not null" json:"username"`
	Password     string    `gorm:"not null" json:"-"`
	FullName     string    `gorm:"not null" json:"fullName"`
	PhoneNumber  string    `json:"phoneNumber"`
	ChurchBranch string    `json:"churchBranch"`
	Role         int       `gorm:"default:0" json:"role"`
}

func (Instructor) TableName() string {
	return "instructors"
}
