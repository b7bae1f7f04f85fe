// internal/services/tag_service.go
package services

import (
	"fmt"
	"smartnotes-backend/internal/models"

	"gorm.io/gorm"
)

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// TagWithCount 用于接收联表查询结果
type TagWithCount struct {
	models.Tag
	NoteCount int `gorm:"column:note_count"`
}

func (s *TagService) GetTags(userID uint) ([]models.Tag, error) {
	var tagsWithCount []TagWithCount

	// 联表统计每个标签关联的笔记数量
	err := s.db.Table("tags").
		Select("tags.*, COALESCE(COUNT(DISTINCT note_tags.note_id), 0) as note_count").
		Joins("LEFT JOIN note_tags ON tags.id = note_tags.tag_id").
		Joins("LEFT JOIN notes ON note_tags.note_id = notes.id AND notes.deleted_at IS NULL").
		Where("tags.user_id = ? AND tags.deleted_at IS NULL", userID).
		Group("tags.id").
		Order("tags.name").
		Find(&tagsWithCount).Error
	if err != nil {
		return nil, err
	}

	tags := make([]models.Tag, 0, len(tagsWithCount))
	for _, tagWithCount := range tagsWithCount {
		tag := tagWithCount.Tag
		tag.NoteCount = tagWithCount.NoteCount
		tags = append(tags, tag)
	}

	return tags, nil
}

func (s *TagService) CreateTag(userID uint, req *models.TagCreateRequest) (*models.Tag, error) {
	var count int64
	if err := s.db.Model(&models.Tag{}).Where("user_id = ? AND name = ?", userID, req.Name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("标签名称已存在")
	}

	tag := models.Tag{
		UserID: userID,
		Name:   req.Name,
		Color:  req.Color,
	}

	if err := s.db.Create(&tag).Error; err != nil {
		return nil, err
	}

	tag.NoteCount = 0

	return &tag, nil
}

func (s *TagService) UpdateTag(tagID, userID uint, req *models.TagCreateRequest) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	// 改名时检查用户范围内唯一
	if req.Name != tag.Name {
		var count int64
		if err := s.db.Model(&models.Tag{}).
			Where("user_id = ? AND name = ? AND id != ?", userID, req.Name, tagID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("标签名称已存在")
		}
	}

	updates := map[string]interface{}{"name": req.Name}
	if req.Color != "" {
		updates["color"] = req.Color
	}

	if err := s.db.Model(&tag).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &tag, nil
}

// DeleteTag 删除标签，只解除与笔记的关联，不删除笔记
func (s *TagService) DeleteTag(tagID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var tag models.Tag
		if err := tx.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.ErrNotFound
			}
			return err
		}

		if err := tx.Model(&tag).Association("Notes").Clear(); err != nil {
			return err
		}

		return tx.Delete(&tag).Error
	})
}
