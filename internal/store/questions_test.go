package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"applicant-workers/internal/common/logger"
	"applicant-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// ==========================================
// Fakes
// ==========================================

type countingSource struct {
	questions []models.Question
	err       error
	calls     int
}

func (s *countingSource) Questions(ctx context.Context, tenantID string) ([]models.Question, error) {
	s.calls++
	return s.questions, s.err
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleQuestions() []models.Question {
	return []models.Question{
		{ID: "q1", Type: models.QuestionRadio, Options: []models.Option{{Value: "Yes", Points: 5}, {Value: "No"}}},
		{ID: "q2", Type: models.QuestionLongTextAI, ScoringRubric: []string{"Teamwork"}, Points: 10},
	}
}

// ==========================================
// CachedQuestions
// ==========================================

func TestCachedQuestions_ReadThrough(t *testing.T) {
	mr, client := setupRedis(t)
	source := &countingSource{questions: sampleQuestions()}
	cache := NewCachedQuestions(source, client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := cache.Questions(ctx, "tenant-1")
	require.NoError(t, err)
	second, err := cache.Questions(ctx, "tenant-1")
	require.NoError(t, err)

	assert.Equal(t, sampleQuestions(), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
	assert.True(t, mr.Exists("questionnaire:tenant-1"))
	assert.Equal(t, time.Minute, mr.TTL("questionnaire:tenant-1"))
}

func TestCachedQuestions_EmptyIsNotCached(t *testing.T) {
	mr, client := setupRedis(t)
	source := &countingSource{}
	cache := NewCachedQuestions(source, client, time.Minute, logger.NewNoOpLogger())

	questions, err := cache.Questions(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Empty(t, questions)
	assert.False(t, mr.Exists("questionnaire:tenant-1"))
}

func TestCachedQuestions_SourceError(t *testing.T) {
	_, client := setupRedis(t)
	source := &countingSource{err: errors.New("mongo down")}
	cache := NewCachedQuestions(source, client, time.Minute, logger.NewNoOpLogger())

	_, err := cache.Questions(context.Background(), "tenant-1")

	assert.EqualError(t, err, "mongo down")
}

func TestCachedQuestions_CorruptEntryFallsThrough(t *testing.T) {
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set("questionnaire:tenant-1", "not json"))
	source := &countingSource{questions: sampleQuestions()}
	cache := NewCachedQuestions(source, client, time.Minute, logger.NewNoOpLogger())

	questions, err := cache.Questions(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Len(t, questions, 2)
	assert.Equal(t, 1, source.calls)
}

func TestCachedQuestions_RedisDown(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()
	source := &countingSource{questions: sampleQuestions()}
	cache := NewCachedQuestions(source, client, time.Minute, logger.NewNoOpLogger())

	questions, err := cache.Questions(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestCachedQuestions_Invalidate(t *testing.T) {
	mr, client := setupRedis(t)
	source := &countingSource{questions: sampleQuestions()}
	cache := NewCachedQuestions(source, client, time.Minute, logger.NewNoOpLogger())
	ctx := context.Background()

	_, err := cache.Questions(ctx, "tenant-1")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, "tenant-1"))

	assert.False(t, mr.Exists("questionnaire:tenant-1"))
}

// ==========================================
// QuestionRepo
// ==========================================

func TestQuestionRepo_Questions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes ordered questions", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hiring.questionnaire", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "q1"},
				{Key: "tenantId", Value: "tenant-1"},
				{Key: "type", Value: "radio"},
				{Key: "question", Value: "Can you work weekends?"},
				{Key: "order", Value: 1},
				{Key: "options", Value: bson.A{
					bson.D{{Key: "value", Value: "Yes"}, {Key: "points", Value: 5}},
					bson.D{{Key: "value", Value: "No"}},
				}},
			},
			bson.D{
				{Key: "_id", Value: "q2"},
				{Key: "tenantId", Value: "tenant-1"},
				{Key: "type", Value: "long-text-ai"},
				{Key: "questionText", Value: "Describe a time you helped a teammate"},
				{Key: "order", Value: 2},
				{Key: "scoringRubric", Value: bson.A{"Teamwork", "Initiative"}},
				{Key: "points", Value: 10},
			},
		))

		questions, err := NewQuestionRepo(mt.Coll).Questions(context.Background(), "tenant-1")

		require.NoError(mt, err)
		require.Len(mt, questions, 2)
		assert.Equal(mt, models.QuestionRadio, questions[0].Type)
		assert.Equal(mt, []models.Option{{Value: "Yes", Points: 5}, {Value: "No", Points: 0}}, questions[0].Options)
		assert.Equal(mt, "Describe a time you helped a teammate", questions[1].Text())
		assert.Equal(mt, []string{"Teamwork", "Initiative"}, questions[1].ScoringRubric)
		assert.Equal(mt, 10, questions[1].Points)
	})

	mt.Run("empty questionnaire", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hiring.questionnaire", mtest.FirstBatch))

		questions, err := NewQuestionRepo(mt.Coll).Questions(context.Background(), "tenant-1")

		require.NoError(mt, err)
		assert.Empty(mt, questions)
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Message: "interrupted"}))

		_, err := NewQuestionRepo(mt.Coll).Questions(context.Background(), "tenant-1")

		assert.Error(mt, err)
	})
}
