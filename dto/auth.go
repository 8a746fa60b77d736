package dto

import "time"

type RegisterInput struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	FullName     string `json:"fullName" binding:"required"`
	PhoneNumber  string `json:"phoneNumber"`
	ChurchBranch string `json:"churchBranch"`
	Role         int    `json:"role"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	Instructor InstructorResponse `json:"instructor"`
}

type InstructorResponse struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	PhoneNumber  string    `json:"phoneNumber"`
	ChurchBranch string    `json:"churchBranch"`
	Role         int       `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
