// internal/services/note_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"smartnotes-backend/internal/models"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type NoteService struct {
	db *gorm.DB
	ai AIClient
}

type UserStats struct {
	TotalNotes    int64 `json:"total_notes"`
	TotalTags     int64 `json:"total_tags"`
	TotalChats    int64 `json:"total_chats"`
	TotalMessages int64 `json:"total_messages"`
}

func NewNoteService(db *gorm.DB, ai AIClient) *NoteService {
	return &NoteService{db: db, ai: ai}
}

func (s *NoteService) GetNotes(userID uint, req *models.NoteListRequest) ([]models.Note, *models.Pagination, error) {
	var notes []models.Note
	var total int64

	query := s.db.Model(&models.Note{}).Where("notes.user_id = ?", userID)

	if req.Search != "" {
		pattern := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}

	if req.TagID != nil {
		query = query.Joins("JOIN note_tags ON notes.id = note_tags.note_id").
			Where("note_tags.tag_id = ?", *req.TagID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	offset := (req.Page - 1) * req.Limit
	pages := int(math.Ceil(float64(total) / float64(req.Limit)))

	orderBy := "created_at DESC"
	if req.Sort != "" {
		direction := "DESC"
		if req.Order == "asc" {
			direction = "ASC"
		}
		orderBy = fmt.Sprintf("%s %s", req.Sort, direction)
	}

	err := query.Preload("Tags").
		Order(orderBy).Limit(req.Limit).Offset(offset).Find(&notes).Error
	if err != nil {
		return nil, nil, err
	}

	pagination := &models.Pagination{
		Page:  req.Page,
		Limit: req.Limit,
		Total: int(total),
		Pages: pages,
	}

	return notes, pagination, nil
}

// CreateNote 创建笔记，默认自动生成摘要。
// 摘要失败不影响创建，笔记以 summary 为空落库。
func (s *NoteService) CreateNote(ctx context.Context, userID uint, req *models.NoteCreateRequest) (*models.Note, error) {
	note := models.Note{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&note).Error; err != nil {
			return err
		}

		if len(req.TagIDs) > 0 {
			var tags []models.Tag
			if err := tx.Where("id IN ? AND user_id = ?", req.TagIDs, userID).Find(&tags).Error; err != nil {
				return err
			}
			if err := tx.Model(&note).Association("Tags").Append(tags); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	autoSummarize := true
	if req.AutoSummarize != nil {
		autoSummarize = *req.AutoSummarize
	}

	if autoSummarize {
		summary, err := s.ai.Summarize(ctx, note.Content, 0, FailureAbsorb)
		if err != nil {
			logrus.WithError(err).WithField("note_id", note.ID).Warn("笔记自动摘要失败")
		} else if err := s.db.Model(&note).Update("summary", summary).Error; err != nil {
			return nil, err
		} else {
			note.Summary = &summary
		}
	}

	s.db.Preload("Tags").First(&note, note.ID)

	return &note, nil
}

// UpdateNote 更新笔记，内容变化时清空摘要（摘要只能来自当前内容）
func (s *NoteService) UpdateNote(noteID, userID uint, req *models.NoteUpdateRequest) (*models.Note, error) {
	var note models.Note

	if err := s.db.Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if req.Title != nil {
			updates["title"] = *req.Title
		}
		if req.Content != nil {
			updates["content"] = *req.Content
			if *req.Content != note.Content {
				updates["summary"] = nil
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&note).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.TagIDs != nil {
			if err := tx.Model(&note).Association("Tags").Clear(); err != nil {
				return err
			}
			if len(req.TagIDs) > 0 {
				var tags []models.Tag
				if err := tx.Where("id IN ? AND user_id = ?", req.TagIDs, userID).Find(&tags).Error; err != nil {
					return err
				}
				if err := tx.Model(&note).Association("Tags").Append(tags); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Tags").First(&note, note.ID)

	return &note, nil
}

func (s *NoteService) DeleteNote(noteID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var note models.Note
		if err := tx.Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.ErrNotFound
			}
			return err
		}

		if err := tx.Model(&note).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("删除标签关联失败: %w", err)
		}

		result := tx.Delete(&note)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrNotFound
		}

		return nil
	})
}

func (s *NoteService) GetNoteByID(noteID, userID uint) (*models.Note, error) {
	var note models.Note
	err := s.db.Preload("Tags").
		Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

// SummarizeNote 显式（重新）生成摘要，失败向上传递且不改动已存的摘要
func (s *NoteService) SummarizeNote(ctx context.Context, noteID, userID uint) (string, error) {
	note, err := s.GetNoteByID(noteID, userID)
	if err != nil {
		return "", err
	}

	summary, err := s.ai.Summarize(ctx, note.Content, 0, FailurePropagate)
	if err != nil {
		return "", err
	}

	if err := s.db.Model(note).Update("summary", summary).Error; err != nil {
		return "", err
	}

	return summary, nil
}

// AIModel 摘要使用的模型名，随响应返回给客户端
func (s *NoteService) AIModel() string {
	return s.ai.Model()
}

func (s *NoteService) GetUserStats(userID uint) (*UserStats, error) {
	var stats UserStats

	if err := s.db.Model(&models.Note{}).Where("user_id = ?", userID).Count(&stats.TotalNotes).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Tag{}).Where("user_id = ?", userID).Count(&stats.TotalTags).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Chat{}).Where("user_id = ?", userID).Count(&stats.TotalChats).Error; err != nil {
		return nil, err
	}

	err := s.db.Model(&models.ChatMessage{}).
		Joins("JOIN chats ON chats.id = chat_messages.chat_id").
		Where("chats.user_id = ? AND chats.deleted_at IS NULL", userID).
		Count(&stats.TotalMessages).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
