package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Fullname:     "User " + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         models.RoleUser,
		University:   "Unilag",
		Course:       "Computer Science",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedQuestion(t *testing.T, db *gorm.DB, course, text string, tags ...string) models.Question {
	t.Helper()
	question := models.Question{
		Question:      text,
		Options:       []string{"a", "b", "c", "d"},
		CorrectOption: 2,
		Explanation:   "because",
		Course:        course,
		AddedBy:       1,
		Tags:          tags,
	}
	require.NoError(t, db.Create(&question).Error)
	return question
}

func TestQuestionRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	seedQuestion(t, db, "GST111", "What is Nigeria's capital?", "Civics", "Geography")
	seedQuestion(t, db, "GST111", "Who wrote Things Fall Apart?", "literature")
	seedQuestion(t, db, "MTH101", "Solve for x", "algebra")

	items, total, err := repo.List(ctx, QuestionFilter{Course: "GST111"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	items, total, err = repo.List(ctx, QuestionFilter{Search: "CAPITAL"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, []string{"civics", "geography"}, items[0].Tags)

	_, total, err = repo.List(ctx, QuestionFilter{Tags: []string{"geography", "algebra"}})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	paged, total, err := repo.List(ctx, QuestionFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, paged, 1)
}

func TestQuestionRepositoryListTreatsWildcardsLiterally(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	seedQuestion(t, db, "MTH101", "Is 100% of 5 equal to 5?", "a_b")
	seedQuestion(t, db, "MTH101", "Is 1000 greater than 5?", "axb")
	seedQuestion(t, db, "MTH101", `Escape the \ character`, "plain")

	items, total, err := repo.List(ctx, QuestionFilter{Search: "100%"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Is 100% of 5 equal to 5?", items[0].Question)

	items, total, err = repo.List(ctx, QuestionFilter{Tags: []string{"a_b"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, []string{"a_b"}, items[0].Tags)

	_, total, err = repo.List(ctx, QuestionFilter{Search: `\`})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestQuestionRepositorySampleByCourseIsDistinctAndBounded(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestionRepository(db)

	for i := 0; i < 8; i++ {
		seedQuestion(t, db, "GST111", fmt.Sprintf("question %d", i))
	}
	seedQuestion(t, db, "MTH101", "other course")

	sample, err := repo.SampleByCourse(context.Background(), "GST111", 5)
	require.NoError(t, err)
	require.Len(t, sample, 5)

	seen := map[uint]struct{}{}
	for _, q := range sample {
		require.Equal(t, "GST111", q.Course)
		_, dup := seen[q.ID]
		require.False(t, dup)
		seen[q.ID] = struct{}{}
	}

	all, err := repo.SampleByCourse(context.Background(), "GST111", 60)
	require.NoError(t, err)
	require.Len(t, all, 8)

	none, err := repo.SampleByCourse(context.Background(), "EMPTY", 20)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestQuestionRepositoryCreateBatchInsertsEveryEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestionRepository(db)

	batch := []models.Question{
		{Question: "ok", Options: []string{"a", "b", "c", "d"}, CorrectOption: 1, Explanation: "e", Course: "GST111", AddedBy: 1},
		{Question: "ok too", Options: []string{"a", "b", "c", "d"}, CorrectOption: 3, Explanation: "e", Course: "GST111", AddedBy: 1},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))

	var count int64
	require.NoError(t, db.Model(&models.Question{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestQuestionRepositoryFavorites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "ada")
	q := seedQuestion(t, db, "GST111", "favourite me")

	fav, err := repo.IsFavorite(ctx, user.ID, q.ID)
	require.NoError(t, err)
	require.False(t, fav)

	require.NoError(t, repo.AddFavorite(ctx, user.ID, q.ID))
	require.NoError(t, repo.AddFavorite(ctx, user.ID, q.ID))

	favorites, err := repo.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	require.Equal(t, q.ID, favorites[0].ID)

	require.NoError(t, repo.RemoveFavorite(ctx, user.ID, q.ID))
	fav, err = repo.IsFavorite(ctx, user.ID, q.ID)
	require.NoError(t, err)
	require.False(t, fav)
}

func TestQuestionRepositoryDeleteMissingReturnsNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestionRepository(db)

	require.ErrorIs(t, repo.Delete(context.Background(), 999), gorm.ErrRecordNotFound)
}

func TestMockTestRepositorySaveResultAndHistoryOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMockTestRepository(db)
	ctx := context.Background()

	older := models.MockTestSession{UserID: 1, Course: "GST111", QuestionIDs: []uint{3, 1, 2}, StartTime: time.Now().Add(-time.Hour)}
	newer := models.MockTestSession{UserID: 1, Course: "MTH101", QuestionIDs: []uint{4}, StartTime: time.Now()}
	foreign := models.MockTestSession{UserID: 2, Course: "GST111", QuestionIDs: []uint{1}, StartTime: time.Now()}
	require.NoError(t, repo.Create(ctx, &older))
	require.NoError(t, repo.Create(ctx, &newer))
	require.NoError(t, repo.Create(ctx, &foreign))

	one, two := 1, 2
	end := time.Now()
	require.NoError(t, repo.SaveResult(ctx, older.ID, end, 2, []*int{&two, nil, &one}))

	stored, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	require.True(t, stored.Submitted())
	require.Equal(t, 2, stored.Score)
	require.Equal(t, []uint{3, 1, 2}, []uint(stored.QuestionIDs))
	require.Len(t, stored.Answers, 3)
	require.Nil(t, stored.Answers[1])
	require.Equal(t, 2, *stored.Answers[0])

	history, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, newer.ID, history[0].ID)
	require.Equal(t, older.ID, history[1].ID)

	require.ErrorIs(t, repo.SaveResult(ctx, 999, end, 0, nil), gorm.ErrRecordNotFound)
}

func TestCommunityRepositoryMembershipAndSummaries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommunityRepository(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin")
	member := seedUser(t, db, "member")

	community := models.Community{Name: "GST Hub", Description: "General studies", CreatedBy: admin.ID}
	require.NoError(t, repo.Create(ctx, &community))

	taken, err := repo.NameTaken(ctx, "gst hub", 0)
	require.NoError(t, err)
	require.True(t, taken)
	taken, err = repo.NameTaken(ctx, "gst hub", community.ID)
	require.NoError(t, err)
	require.False(t, taken)

	require.NoError(t, repo.AddMember(ctx, &models.CommunityMember{CommunityID: community.ID, UserID: member.ID}))
	require.Error(t, repo.AddMember(ctx, &models.CommunityMember{CommunityID: community.ID, UserID: member.ID}))

	isMember, err := repo.IsMember(ctx, community.ID, member.ID)
	require.NoError(t, err)
	require.True(t, isMember)

	summaries, err := repo.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "User admin", summaries[0].CreatorName)
	require.Equal(t, int64(1), summaries[0].MemberCount)

	members, err := repo.ListMembers(ctx, []uint{community.ID})
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "member", members[0].Username)

	ids, err := repo.MemberCommunityIDs(ctx, member.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{community.ID}, ids)

	require.NoError(t, repo.RemoveMember(ctx, community.ID, member.ID))
	require.ErrorIs(t, repo.RemoveMember(ctx, community.ID, member.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(ctx, community.ID))
	require.ErrorIs(t, repo.Delete(ctx, community.ID), gorm.ErrRecordNotFound)
}

func TestChatRepositoryListsAscendingWithSender(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	sender := seedUser(t, db, "talker")
	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		msg := models.ChatMessage{CommunityID: 7, UserID: sender.ID, Message: fmt.Sprintf("m%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, repo.Save(ctx, &msg))
	}

	messages, err := repo.ListByCommunity(ctx, 7, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "m1", messages[0].Message)
	require.Equal(t, "m2", messages[1].Message)
	require.Equal(t, "talker", messages[0].Sender.Username)

	count, err := repo.CountByCommunity(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

func TestUserRepositoryLookupsAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "grace")

	found, err := repo.GetByEmail(ctx, "GRACE@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	exists, err := repo.ExistsByEmailOrUsername(ctx, "other@example.com", "Grace")
	require.NoError(t, err)
	require.True(t, exists)

	taken, err := repo.EmailTaken(ctx, "grace@example.com", user.ID)
	require.NoError(t, err)
	require.False(t, taken)

	require.NoError(t, db.Create(&models.FavoriteQuestion{UserID: user.ID, QuestionID: 5}).Error)
	require.NoError(t, repo.Delete(ctx, user.ID))

	var favorites int64
	require.NoError(t, db.Model(&models.FavoriteQuestion{}).Count(&favorites).Error)
	require.Zero(t, favorites)

	_, err = repo.GetByID(ctx, user.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.Delete(ctx, user.ID), gorm.ErrRecordNotFound)
}
