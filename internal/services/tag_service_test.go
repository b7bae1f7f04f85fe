package services

import (
	"context"
	"smartnotes-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTagDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewTagService(db)

	_, err := svc.CreateTag(user.ID, &models.TagCreateRequest{Name: "工作"})
	require.NoError(t, err)

	_, err = svc.CreateTag(user.ID, &models.TagCreateRequest{Name: "工作"})
	assert.Error(t, err, "同一用户下标签名必须唯一")

	// 不同用户可以使用相同的标签名
	other := models.User{Username: "other", Email: "other@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&other).Error)

	_, err = svc.CreateTag(other.ID, &models.TagCreateRequest{Name: "工作"})
	assert.NoError(t, err)
}

func TestUpdateTagRenameConflict(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewTagService(db)

	_, err := svc.CreateTag(user.ID, &models.TagCreateRequest{Name: "A"})
	require.NoError(t, err)
	tagB, err := svc.CreateTag(user.ID, &models.TagCreateRequest{Name: "B"})
	require.NoError(t, err)

	_, err = svc.UpdateTag(tagB.ID, user.ID, &models.TagCreateRequest{Name: "A"})
	assert.Error(t, err)

	// 不改名只改颜色
	updated, err := svc.UpdateTag(tagB.ID, user.ID, &models.TagCreateRequest{Name: "B", Color: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", updated.Color)
}

func TestDeleteTagDetachesNotes(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewTagService(db)
	noteSvc := NewNoteService(db, &stubAI{})

	tag, err := svc.CreateTag(user.ID, &models.TagCreateRequest{Name: "待删"})
	require.NoError(t, err)

	disabled := false
	note, err := noteSvc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title: "笔记", Content: "内容", TagIDs: []uint{tag.ID}, AutoSummarize: &disabled,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTag(tag.ID, user.ID))

	// 笔记保留，只是不再挂这个标签
	stored, err := noteSvc.GetNoteByID(note.ID, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Tags)

	tags, err := svc.GetTags(user.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestGetTagsWithNoteCount(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewTagService(db)
	noteSvc := NewNoteService(db, &stubAI{})

	tag, err := svc.CreateTag(user.ID, &models.TagCreateRequest{Name: "计数"})
	require.NoError(t, err)
	_, err = svc.CreateTag(user.ID, &models.TagCreateRequest{Name: "空"})
	require.NoError(t, err)

	disabled := false
	for i := 0; i < 2; i++ {
		_, err = noteSvc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
			Title: "笔记", Content: "内容", TagIDs: []uint{tag.ID}, AutoSummarize: &disabled,
		})
		require.NoError(t, err)
	}

	tags, err := svc.GetTags(user.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	// 按名称排序：空 在 计数 之后取决于排序规则，这里按名字查找
	counts := map[string]int{}
	for _, tg := range tags {
		counts[tg.Name] = tg.NoteCount
	}
	assert.Equal(t, 2, counts["计数"])
	assert.Equal(t, 0, counts["空"])
}

func TestDeleteTagNotFound(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewTagService(db)

	err := svc.DeleteTag(999, user.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
