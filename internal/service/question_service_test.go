package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/repository"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

func setupQuestionService(t *testing.T) (*gorm.DB, QuestionService) {
	t.Helper()
	db := setupServiceDB(t)
	repo := repository.NewQuestionRepository(db)
	pool := NewQuestionPool(repo, nil, time.Minute, zerolog.Nop())
	return db, NewQuestionService(repo, pool, utils.NewValidator(), zerolog.Nop())
}

func batchEntry(text string) dto.QuestionBatchEntry {
	return dto.QuestionBatchEntry{
		Question:      text,
		Options:       []string{"A", "B", "C", "D"},
		CorrectOption: 2,
		Explanation:   "B is right",
		Tags:          []string{"Algebra"},
		Course:        "mth101",
	}
}

func countQuestions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Question{}).Count(&count).Error)
	return count
}

func TestQuestionServiceCreateNormalisesCourseAndTags(t *testing.T) {
	_, svc := setupQuestionService(t)
	admin := Actor{ID: 1, Role: models.RoleAdmin}

	created, err := svc.Create(context.Background(), admin, dto.QuestionCreateRequest{
		Question:      "  What is 2 + 2?  ",
		Options:       []string{"3", "4", "5", "6"},
		CorrectOption: 2,
		Explanation:   "Basic arithmetic",
		Tags:          []string{" Arithmetic ", "arithmetic"},
		Course:        "mth101",
	})
	require.NoError(t, err)
	require.Equal(t, "What is 2 + 2?", created.Question)
	require.Equal(t, "MTH101", created.Course)
	require.Equal(t, []string{"arithmetic"}, created.Tags)
	require.NotNil(t, created.CorrectOption)
	require.Equal(t, 2, *created.CorrectOption)

	_, err = svc.Create(context.Background(), admin, dto.QuestionCreateRequest{
		Question:      "Broken",
		Options:       []string{"a", "b", "c"},
		CorrectOption: 1,
		Explanation:   "x",
		Course:        "MTH101",
	})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestQuestionServiceCreateBatchIsAllOrNothing(t *testing.T) {
	db, svc := setupQuestionService(t)
	admin := Actor{ID: 1, Role: models.RoleAdmin}

	bad := batchEntry("Second")
	bad.Tags = nil
	_, err := svc.CreateBatch(context.Background(), admin, dto.QuestionBatchRequest{
		Questions: []dto.QuestionBatchEntry{batchEntry("First"), bad},
	})
	require.Error(t, err)
	require.Zero(t, countQuestions(t, db))

	result, err := svc.CreateBatch(context.Background(), admin, dto.QuestionBatchRequest{
		Questions: []dto.QuestionBatchEntry{batchEntry("First"), batchEntry("Second")},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Inserted)
	require.Len(t, result.Questions, 2)
	require.EqualValues(t, 2, countQuestions(t, db))
}

func TestQuestionServiceImportYAMLAndJSON(t *testing.T) {
	db, svc := setupQuestionService(t)
	admin := Actor{ID: 1, Role: models.RoleAdmin}

	yamlDoc := []byte(`questions:
  - question: Who wrote Things Fall Apart?
    options: [Achebe, Soyinka, Okri, Adichie]
    correctOption: 1
    explanation: Chinua Achebe published it in 1958.
    tags: [literature]
    course: ENG101
  - question: Capital of Nigeria?
    options: [Lagos, Abuja, Kano, Ibadan]
    correctOption: 2
    explanation: Abuja has been the capital since 1991.
    tags: [geography]
    course: GST111
`)
	result, err := svc.Import(context.Background(), admin, "bank.yaml", yamlDoc)
	require.NoError(t, err)
	require.Equal(t, 2, result.Inserted)

	jsonDoc := []byte(`{"questions":[{"question":"H2O is?","options":["Water","Salt","Acid","Gas"],"correctOption":1,"explanation":"Two hydrogens, one oxygen.","tags":["chemistry"],"course":"CHM101"}]}`)
	result, err = svc.Import(context.Background(), admin, "bank.json", jsonDoc)
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)
	require.Equal(t, "CHM101", result.Questions[0].Course)

	require.EqualValues(t, 3, countQuestions(t, db))
}

func TestQuestionServiceImportRejectsInvalidDocuments(t *testing.T) {
	db, svc := setupQuestionService(t)
	admin := Actor{ID: 1, Role: models.RoleAdmin}

	missingTags := []byte(`{"questions":[{"question":"Q","options":["a","b","c","d"],"correctOption":1,"explanation":"e","course":"GST111"}]}`)
	_, err := svc.Import(context.Background(), admin, "bank.json", missingTags)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "/questions/0")

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	_, err = svc.Import(context.Background(), admin, "bank.png", png)
	require.ErrorIs(t, err, ErrUnsupportedImport)

	_, err = svc.Import(context.Background(), admin, "bank.yaml", []byte("   "))
	require.ErrorIs(t, err, ErrValidation)

	require.Zero(t, countQuestions(t, db))
}

func TestQuestionServiceListRevealsAnswersToAdminsOnly(t *testing.T) {
	db, svc := setupQuestionService(t)
	seedCourseQuestions(t, db, "GST111", 12)

	page, err := svc.List(context.Background(), Actor{ID: 2, Role: models.RoleUser}, dto.QuestionListRequest{Page: 2, Limit: 5, Course: "gst111"})
	require.NoError(t, err)
	require.EqualValues(t, 12, page.TotalQuestions)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Questions, 5)
	for _, question := range page.Questions {
		require.Nil(t, question.CorrectOption)
	}

	page, err = svc.List(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, dto.QuestionListRequest{})
	require.NoError(t, err)
	require.Len(t, page.Questions, 10)
	require.Equal(t, 1, page.CurrentPage)
	require.NotNil(t, page.Questions[0].CorrectOption)
}

func TestQuestionServiceToggleFavoriteTwice(t *testing.T) {
	db, svc := setupQuestionService(t)
	user := seedTestUser(t, db, "ada", models.RoleUser)
	question := seedCourseQuestions(t, db, "GST111", 1)[0]

	toggled, err := svc.ToggleFavorite(context.Background(), user.ID, question.ID)
	require.NoError(t, err)
	require.True(t, toggled.IsFavorited)

	favorites, err := svc.ListFavorites(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	require.NotNil(t, favorites[0].CorrectOption)

	toggled, err = svc.ToggleFavorite(context.Background(), user.ID, question.ID)
	require.NoError(t, err)
	require.False(t, toggled.IsFavorited)

	favorites, err = svc.ListFavorites(context.Background(), user.ID)
	require.NoError(t, err)
	require.Empty(t, favorites)

	_, err = svc.ToggleFavorite(context.Background(), user.ID, 9999)
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestQuestionServiceSolveUpdateAndDelete(t *testing.T) {
	db, svc := setupQuestionService(t)
	question := seedCourseQuestions(t, db, "GST111", 1)[0]

	solved, err := svc.Solve(context.Background(), dto.QuestionSolveRequest{QuestionID: question.ID, Answer: intPtr(question.CorrectOption)})
	require.NoError(t, err)
	require.True(t, solved.IsCorrect)

	updated, err := svc.Update(context.Background(), question.ID, dto.QuestionUpdateRequest{
		CorrectOption: intPtr(4),
		Course:        strPtr("bio101"),
	})
	require.NoError(t, err)
	require.Equal(t, 4, *updated.CorrectOption)
	require.Equal(t, "BIO101", updated.Course)
	require.Equal(t, question.Question, updated.Question)

	_, err = svc.Update(context.Background(), question.ID, dto.QuestionUpdateRequest{CorrectOption: intPtr(5)})
	require.Error(t, err)

	_, err = svc.Update(context.Background(), 9999, dto.QuestionUpdateRequest{Question: strPtr("new text")})
	require.ErrorIs(t, err, ErrQuestionNotFound)

	require.NoError(t, svc.Delete(context.Background(), question.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), question.ID), ErrQuestionNotFound)
}
