package scoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"applicant-workers/internal/common/logger"
	"applicant-workers/internal/models"
	"applicant-workers/internal/oracle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeText(ids ...string) []FreeTextAnswer {
	out := make([]FreeTextAnswer, 0, len(ids))
	for _, id := range ids {
		out = append(out, FreeTextAnswer{QuestionID: id, Rubric: []string{"A", "B"}, Points: 10, Text: "answer to " + id})
	}
	return out
}

func fixedScores(a, b float64) *models.AIAnalysis {
	return &models.AIAnalysis{
		TraitScores: map[string]interface{}{"A": a, "B": b},
		Analysis:    map[string]string{"A": "ok", "B": "ok"},
	}
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, req oracle.Request) (*models.AIAnalysis, error) {
		switch req.AnswerText {
		case "answer to Q2":
			return nil, oracle.ErrInvalidResponse
		case "answer to Q4":
			panic("boom")
		}
		return fixedScores(8, 6), nil
	})
	d := NewDispatcher(o, DispatcherOptions{Concurrency: 2, CallTimeout: time.Second}, logger.NewTestLogger(t))

	result := d.Dispatch(context.Background(), freeText("Q1", "Q2", "Q3", "Q4"))

	assert.Len(t, result.Analyses, 2)
	assert.Contains(t, result.Analyses, "Q1")
	assert.Contains(t, result.Analyses, "Q3")
	assert.Equal(t, []string{"Q2", "Q4"}, result.Failed)
}

func TestDispatcher_PassesRequestContract(t *testing.T) {
	var got oracle.Request
	o := oracle.Func(func(ctx context.Context, req oracle.Request) (*models.AIAnalysis, error) {
		got = req
		return fixedScores(1, 1), nil
	})
	d := NewDispatcher(o, DispatcherOptions{Concurrency: 1}, logger.NewNoOpLogger())

	d.Dispatch(context.Background(), []FreeTextAnswer{{QuestionID: "Q", Rubric: []string{"Grit"}, Points: 7, Text: "story"}})

	assert.Equal(t, oracle.Request{RubricTraits: []string{"Grit"}, AnswerText: "story", MaxPointsPerTrait: 7}, got)
}

func TestDispatcher_RespectsConcurrencyLimit(t *testing.T) {
	var active, peak int32
	o := oracle.Func(func(ctx context.Context, req oracle.Request) (*models.AIAnalysis, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return fixedScores(5, 5), nil
	})
	d := NewDispatcher(o, DispatcherOptions{Concurrency: 2, CallTimeout: time.Second}, logger.NewNoOpLogger())

	result := d.Dispatch(context.Background(), freeText("Q1", "Q2", "Q3", "Q4", "Q5", "Q6"))

	assert.Len(t, result.Analyses, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestDispatcher_TimeoutDoesNotCancelSiblings(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, req oracle.Request) (*models.AIAnalysis, error) {
		if req.AnswerText == "answer to slow" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		time.Sleep(10 * time.Millisecond)
		return fixedScores(9, 9), nil
	})
	d := NewDispatcher(o, DispatcherOptions{Concurrency: 4, CallTimeout: 50 * time.Millisecond}, logger.NewNoOpLogger())

	result := d.Dispatch(context.Background(), freeText("slow", "fast1", "fast2"))

	assert.Equal(t, []string{"slow"}, result.Failed)
	assert.Len(t, result.Analyses, 2)
}

func TestDispatcher_NilResultIsFailure(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, req oracle.Request) (*models.AIAnalysis, error) {
		return nil, nil
	})
	d := NewDispatcher(o, DispatcherOptions{}, logger.NewNoOpLogger())

	result := d.Dispatch(context.Background(), freeText("Q1"))

	assert.Empty(t, result.Analyses)
	assert.Equal(t, []string{"Q1"}, result.Failed)
}

func TestDispatcher_NoAnswers(t *testing.T) {
	called := false
	o := oracle.Func(func(ctx context.Context, req oracle.Request) (*models.AIAnalysis, error) {
		called = true
		return nil, errors.New("unexpected")
	})

	result := NewDispatcher(o, DispatcherOptions{}, logger.NewNoOpLogger()).Dispatch(context.Background(), nil)

	require.NotNil(t, result.Analyses)
	assert.Empty(t, result.Analyses)
	assert.False(t, called)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "timeout", outcome(oracle.ErrTimeout))
	assert.Equal(t, "timeout", outcome(context.DeadlineExceeded))
	assert.Equal(t, "invalid_response", outcome(oracle.ErrInvalidResponse))
	assert.Equal(t, "failure", outcome(errors.New("network")))
}

func TestExcerpt(t *testing.T) {
	long := make([]rune, 100)
	for i := range long {
		long[i] = 'é'
	}

	assert.Equal(t, "short", excerpt("short"))
	assert.Equal(t, string(long[:80])+"...", excerpt(string(long)))
}
