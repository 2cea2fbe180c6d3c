package domain

import "time"

type User struct {
	ID    uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	Email string `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Name  string `json:"name" gorm:"size:128"`
	Phone string `json:"phone" gorm:"size:32"`
	Guest bool   `json:"guest" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }
