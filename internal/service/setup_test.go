package service

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/models"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedTestUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{
		Fullname:     "User " + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		University:   "Unilag",
		Course:       "Mass Communication",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// seedCourseQuestions inserts n questions whose correct option cycles through 1..4.
func seedCourseQuestions(t *testing.T, db *gorm.DB, course string, n int) []models.Question {
	t.Helper()
	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		question := models.Question{
			Question:      fmt.Sprintf("%s question %d", course, i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectOption: i%4 + 1,
			Explanation:   "because",
			Tags:          []string{"general"},
			Course:        course,
			AddedBy:       1,
		}
		require.NoError(t, db.Create(&question).Error)
		questions = append(questions, question)
	}
	return questions
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
