package models

import (
	"time"

	"gorm.io/gorm"
)

type Note struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;index"`
	Title     string         `json:"title" gorm:"size:200;not null"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	Summary   *string        `json:"summary" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// 关联
	User User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tags []Tag `json:"tags,omitempty" gorm:"many2many:note_tags;"`
}

type NoteCreateRequest struct {
	Title         string `json:"title" validate:"required,notblank,max=200"`
	Content       string `json:"content" validate:"required,notblank"`
	TagIDs        []uint `json:"tag_ids"`
	AutoSummarize *bool  `json:"auto_summarize"`
}

// 更新请求使用指针字段，未提供的字段保持原值（PUT/PATCH 共用）
type NoteUpdateRequest struct {
	Title   *string `json:"title" validate:"omitempty,notblank,max=200"`
	Content *string `json:"content" validate:"omitempty,notblank"`
	TagIDs  []uint  `json:"tag_ids"`
}

type NoteListRequest struct {
	Page   int    `form:"page" validate:"omitempty,min=1"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
	TagID  *uint  `form:"tag_id"`
	Search string `form:"search"`
	Sort   string `form:"sort" validate:"omitempty,oneof=created_at updated_at title"`
	Order  string `form:"order" validate:"omitempty,oneof=asc desc"`
}

type NoteSummaryResponse struct {
	Summary string `json:"summary"`
	Model   string `json:"model"`
}
