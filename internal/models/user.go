package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Username     string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	Avatar       *string        `json:"avatar" gorm:"size:255"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// 关联
	Tags  []Tag  `json:"tags,omitempty" gorm:"foreignKey:UserID"`
	Notes []Note `json:"notes,omitempty" gorm:"foreignKey:UserID"`
	Chats []Chat `json:"chats,omitempty" gorm:"foreignKey:UserID"`
}

type UserRegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserUpdateRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=255"`
}

type UserResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
