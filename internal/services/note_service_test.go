package services

import (
	"context"
	"smartnotes-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateNoteAutoSummarize(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	ai := &stubAI{summarizeResult: "生成的摘要"}
	svc := NewNoteService(db, ai)

	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:   "测试笔记",
		Content: "这是一段需要摘要的内容",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, ai.summarizeCalls)
	require.NotNil(t, note.Summary)
	assert.Equal(t, "生成的摘要", *note.Summary)
}

func TestCreateNoteAutoSummarizeDisabled(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	ai := &stubAI{summarizeResult: "不应出现"}
	svc := NewNoteService(db, ai)

	disabled := false
	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:         "笔记",
		Content:       "内容",
		AutoSummarize: &disabled,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, ai.summarizeCalls)
	assert.Nil(t, note.Summary)
}

func TestCreateNoteSummarizeFailureAbsorbed(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	ai := &stubAI{summarizeErr: models.NewAIServiceError("摘要生成失败", "boom")}
	svc := NewNoteService(db, ai)

	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:   "笔记",
		Content: "内容",
	})
	require.NoError(t, err, "摘要失败不应影响笔记创建")

	assert.Nil(t, note.Summary)

	var stored models.Note
	require.NoError(t, db.First(&stored, note.ID).Error)
	assert.Nil(t, stored.Summary)
}

func TestCreateNoteWithTags(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewNoteService(db, &stubAI{})
	tagSvc := NewTagService(db)

	tag, err := tagSvc.CreateTag(user.ID, &models.TagCreateRequest{Name: "工作"})
	require.NoError(t, err)

	// 其他用户的标签不可挂到自己的笔记上
	other := models.User{Username: "other", Email: "other@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&other).Error)
	foreign, err := tagSvc.CreateTag(other.ID, &models.TagCreateRequest{Name: "别人的"})
	require.NoError(t, err)

	disabled := false
	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:         "笔记",
		Content:       "内容",
		TagIDs:        []uint{tag.ID, foreign.ID},
		AutoSummarize: &disabled,
	})
	require.NoError(t, err)

	require.Len(t, note.Tags, 1)
	assert.Equal(t, "工作", note.Tags[0].Name)
}

func TestUpdateNoteContentClearsSummary(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewNoteService(db, &stubAI{summarizeResult: "旧摘要"})

	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:   "笔记",
		Content: "旧内容",
	})
	require.NoError(t, err)
	require.NotNil(t, note.Summary)

	updated, err := svc.UpdateNote(note.ID, user.ID, &models.NoteUpdateRequest{
		Content: strPtr("新内容"),
	})
	require.NoError(t, err)

	assert.Nil(t, updated.Summary, "内容变化后摘要必须清空")
	assert.Equal(t, "新内容", updated.Content)
}

func TestUpdateNoteSameContentKeepsSummary(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewNoteService(db, &stubAI{summarizeResult: "摘要"})

	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:   "笔记",
		Content: "内容",
	})
	require.NoError(t, err)

	// 内容不变时摘要保留
	updated, err := svc.UpdateNote(note.ID, user.ID, &models.NoteUpdateRequest{
		Content: strPtr("内容"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Summary)
	assert.Equal(t, "摘要", *updated.Summary)
}

func TestUpdateNoteTitleOnlyKeepsSummary(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewNoteService(db, &stubAI{summarizeResult: "摘要"})

	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:   "旧标题",
		Content: "内容",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateNote(note.ID, user.ID, &models.NoteUpdateRequest{
		Title: strPtr("新标题"),
	})
	require.NoError(t, err)

	assert.Equal(t, "新标题", updated.Title)
	require.NotNil(t, updated.Summary)
	assert.Equal(t, "摘要", *updated.Summary)
}

func TestUpdateNoteReplacesTags(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewNoteService(db, &stubAI{})
	tagSvc := NewTagService(db)

	tagA, err := tagSvc.CreateTag(user.ID, &models.TagCreateRequest{Name: "A"})
	require.NoError(t, err)
	tagB, err := tagSvc.CreateTag(user.ID, &models.TagCreateRequest{Name: "B"})
	require.NoError(t, err)

	disabled := false
	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:         "笔记",
		Content:       "内容",
		TagIDs:        []uint{tagA.ID},
		AutoSummarize: &disabled,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateNote(note.ID, user.ID, &models.NoteUpdateRequest{
		TagIDs: []uint{tagB.ID},
	})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "B", updated.Tags[0].Name)

	// 空切片清空全部标签，nil 则保持不变
	updated, err = svc.UpdateNote(note.ID, user.ID, &models.NoteUpdateRequest{
		TagIDs: []uint{},
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)

	updated, err = svc.UpdateNote(note.ID, user.ID, &models.NoteUpdateRequest{
		Title: strPtr("只改标题"),
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
}

func TestSummarizeNoteFailureKeepsStoredSummary(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	ai := &stubAI{summarizeResult: "旧摘要"}
	svc := NewNoteService(db, ai)

	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:   "笔记",
		Content: "内容",
	})
	require.NoError(t, err)
	require.NotNil(t, note.Summary)

	ai.summarizeErr = models.NewAIServiceError("摘要生成失败", "boom")

	_, err = svc.SummarizeNote(context.Background(), note.ID, user.ID)
	require.Error(t, err)

	var aiErr *models.AIServiceError
	require.ErrorAs(t, err, &aiErr)

	// 失败时已存摘要不受影响
	var stored models.Note
	require.NoError(t, db.First(&stored, note.ID).Error)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, "旧摘要", *stored.Summary)
}

func TestSummarizeNoteUpdatesSummary(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	ai := &stubAI{summarizeResult: "第一版"}
	svc := NewNoteService(db, ai)

	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title:   "笔记",
		Content: "内容",
	})
	require.NoError(t, err)

	ai.summarizeResult = "第二版"
	summary, err := svc.SummarizeNote(context.Background(), note.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "第二版", summary)

	var stored models.Note
	require.NoError(t, db.First(&stored, note.ID).Error)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, "第二版", *stored.Summary)
}

func TestGetNotesSearchAndFilter(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewNoteService(db, &stubAI{})
	tagSvc := NewTagService(db)

	tag, err := tagSvc.CreateTag(user.ID, &models.TagCreateRequest{Name: "旅行"})
	require.NoError(t, err)

	disabled := false
	_, err = svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title: "Tokyo Trip", Content: "plan for tokyo", TagIDs: []uint{tag.ID}, AutoSummarize: &disabled,
	})
	require.NoError(t, err)
	_, err = svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title: "Groceries", Content: "milk and eggs", AutoSummarize: &disabled,
	})
	require.NoError(t, err)

	// 大小写不敏感搜索
	notes, pagination, err := svc.GetNotes(user.ID, &models.NoteListRequest{Page: 1, Limit: 10, Search: "TOKYO"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Tokyo Trip", notes[0].Title)
	assert.Equal(t, 1, pagination.Total)

	// 标签过滤
	notes, _, err = svc.GetNotes(user.ID, &models.NoteListRequest{Page: 1, Limit: 10, TagID: &tag.ID})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Tokyo Trip", notes[0].Title)
}

func TestDeleteNoteKeepsTags(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewNoteService(db, &stubAI{})
	tagSvc := NewTagService(db)

	tag, err := tagSvc.CreateTag(user.ID, &models.TagCreateRequest{Name: "保留"})
	require.NoError(t, err)

	disabled := false
	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title: "笔记", Content: "内容", TagIDs: []uint{tag.ID}, AutoSummarize: &disabled,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNote(note.ID, user.ID))

	_, err = svc.GetNoteByID(note.ID, user.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// 标签本身保留
	tags, err := tagSvc.GetTags(user.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 0, tags[0].NoteCount)
}

func TestNoteNotOwnedByCaller(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewNoteService(db, &stubAI{})

	other := models.User{Username: "other", Email: "other@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&other).Error)

	disabled := false
	note, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title: "私有", Content: "内容", AutoSummarize: &disabled,
	})
	require.NoError(t, err)

	_, err = svc.GetNoteByID(note.ID, other.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = svc.DeleteNote(note.ID, other.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetUserStats(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	svc := NewNoteService(db, &stubAI{})
	chatSvc := NewChatService(db, &stubAI{})
	tagSvc := NewTagService(db)

	disabled := false
	_, err := svc.CreateNote(context.Background(), user.ID, &models.NoteCreateRequest{
		Title: "笔记", Content: "内容", AutoSummarize: &disabled,
	})
	require.NoError(t, err)

	_, err = tagSvc.CreateTag(user.ID, &models.TagCreateRequest{Name: "标签"})
	require.NoError(t, err)

	chat, err := chatSvc.CreateChat(user.ID, &models.ChatCreateRequest{})
	require.NoError(t, err)
	_, err = chatSvc.AddMessage(context.Background(), chat, models.RoleUser, "你好", false)
	require.NoError(t, err)

	stats, err := svc.GetUserStats(user.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.TotalNotes)
	assert.EqualValues(t, 1, stats.TotalTags)
	assert.EqualValues(t, 1, stats.TotalChats)
	assert.EqualValues(t, 1, stats.TotalMessages)
}
