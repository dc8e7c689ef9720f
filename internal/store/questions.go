package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"applicant-workers/internal/common/logger"
	"applicant-workers/internal/models"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionSource returns a tenant's questionnaire in display order. An empty
// result means the tenant has no questions.
type QuestionSource interface {
	Questions(ctx context.Context, tenantID string) ([]models.Question, error)
}

// QuestionRepo reads questionnaires from MongoDB.
type QuestionRepo struct {
	coll *mongo.Collection
}

func NewQuestionRepo(coll *mongo.Collection) *QuestionRepo {
	return &QuestionRepo{coll: coll}
}

func (r *QuestionRepo) Questions(ctx context.Context, tenantID string) ([]models.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.M{"tenantId": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	defer cursor.Close(ctx)

	var questions []models.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return questions, nil
}

// CachedQuestions is a Redis read-through cache in front of a QuestionSource.
// Empty questionnaires are never cached. Redis failures fall through to the
// source.
type CachedQuestions struct {
	next   QuestionSource
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedQuestions(next QuestionSource, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedQuestions {
	return &CachedQuestions{next: next, rdb: rdb, ttl: ttl, logger: log}
}

func questionsKey(tenantID string) string {
	return "questionnaire:" + tenantID
}

func (c *CachedQuestions) Questions(ctx context.Context, tenantID string) ([]models.Question, error) {
	key := questionsKey(tenantID)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var questions []models.Question
		if jsonErr := json.Unmarshal([]byte(cached), &questions); jsonErr == nil {
			return questions, nil
		}
		c.logger.Warn("discarding unreadable questionnaire cache entry", map[string]interface{}{"tenantId": tenantID})
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("questionnaire cache read failed", map[string]interface{}{
			"tenantId": tenantID,
			"error":    err.Error(),
		})
	}

	questions, err := c.next.Questions(ctx, tenantID)
	if err != nil || len(questions) == 0 {
		return questions, err
	}

	if data, err := json.Marshal(questions); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("questionnaire cache write failed", map[string]interface{}{
				"tenantId": tenantID,
				"error":    err.Error(),
			})
		}
	}
	return questions, nil
}

// Invalidate drops the cached questionnaire of a tenant.
func (c *CachedQuestions) Invalidate(ctx context.Context, tenantID string) error {
	return c.rdb.Del(ctx, questionsKey(tenantID)).Err()
}
