package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"applicant-workers/internal/common/logger"
	"applicant-workers/internal/common/metrics"
	"applicant-workers/internal/models"
	"applicant-workers/internal/oracle"

	"golang.org/x/sync/errgroup"
)

const excerptLength = 80

// DispatcherOptions bounds the oracle fan-out.
type DispatcherOptions struct {
	// Backend labels metrics, e.g. "genai" or "vertex".
	Backend     string
	Concurrency int
	CallTimeout time.Duration
}

// Dispatcher sends free-text answers to the oracle concurrently. A failed,
// timed out or panicking call drops only its own question.
type Dispatcher struct {
	oracle  oracle.Oracle
	options DispatcherOptions
	logger  logger.Logger
}

// DispatchResult holds the analyses of the questions that succeeded and the
// ids of those that did not.
type DispatchResult struct {
	Analyses map[string]models.AIAnalysis
	Failed   []string
}

func NewDispatcher(o oracle.Oracle, opts DispatcherOptions, log logger.Logger) *Dispatcher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 20 * time.Second
	}
	if opts.Backend == "" {
		opts.Backend = "oracle"
	}
	return &Dispatcher{oracle: o, options: opts, logger: log}
}

// Dispatch waits for every call to finish before returning. Cancelling ctx
// ends all outstanding calls.
func (d *Dispatcher) Dispatch(ctx context.Context, answers []FreeTextAnswer) DispatchResult {
	result := DispatchResult{Analyses: make(map[string]models.AIAnalysis, len(answers))}
	if len(answers) == 0 {
		return result
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.options.Concurrency)

	for _, answer := range answers {
		g.Go(func() error {
			analysis, err := d.call(ctx, answer)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, answer.QuestionID)
				d.logger.Warn("AI scoring failed, question omitted", map[string]interface{}{
					"questionId": answer.QuestionID,
					"excerpt":    excerpt(answer.Text),
					"error":      err.Error(),
				})
				return nil
			}
			result.Analyses[answer.QuestionID] = *analysis
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(result.Failed)
	return result
}

func (d *Dispatcher) call(ctx context.Context, answer FreeTextAnswer) (analysis *models.AIAnalysis, err error) {
	callCtx, cancel := context.WithTimeout(ctx, d.options.CallTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			analysis, err = nil, fmt.Errorf("%w: oracle panic: %v", oracle.ErrCallFailed, r)
		}
		metrics.OracleCallDuration.WithLabelValues(d.options.Backend).Observe(time.Since(start).Seconds())
		metrics.OracleCalls.WithLabelValues(d.options.Backend, outcome(err)).Inc()
	}()

	analysis, err = d.oracle.Score(callCtx, oracle.Request{
		RubricTraits:      answer.Rubric,
		AnswerText:        answer.Text,
		MaxPointsPerTrait: answer.Points,
	})
	if err == nil && analysis == nil {
		err = fmt.Errorf("%w: empty result", oracle.ErrInvalidResponse)
	}
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, oracle.ErrTimeout) {
		err = fmt.Errorf("%w: %v", oracle.ErrTimeout, err)
	}
	return analysis, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, oracle.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	case errors.Is(err, oracle.ErrInvalidResponse):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailure
	}
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return string(runes[:excerptLength]) + "..."
}
