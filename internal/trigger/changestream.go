// Package trigger starts scoring runs from MongoDB change events, as an
// alternative to Zeebe jobs.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "applicant-workers/internal/common/errors"
	"applicant-workers/internal/common/logger"
	"applicant-workers/internal/common/metrics"
	"applicant-workers/internal/store"
	processnewapplicant "applicant-workers/internal/workers/applicant/process-new-applicant"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const triggerLabel = "changestream"

var errMissingTenant = errors.New("insert event has no tenantId")

// Runner executes one scoring run.
type Runner interface {
	Execute(ctx context.Context, input *processnewapplicant.Input) (*processnewapplicant.Output, error)
}

type ChangeStreamOptions struct {
	MaxConcurrent int
	RunTimeout    time.Duration
	RetryDelay    time.Duration
}

// ChangeStreamWatcher turns applicant inserts into scoring runs.
type ChangeStreamWatcher struct {
	coll    *mongo.Collection
	runner  Runner
	options ChangeStreamOptions
	logger  logger.Logger
}

func NewChangeStreamWatcher(coll *mongo.Collection, runner Runner, opts ChangeStreamOptions, log logger.Logger) *ChangeStreamWatcher {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 2 * time.Minute
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &ChangeStreamWatcher{
		coll:    coll,
		runner:  runner,
		options: opts,
		logger:  log.WithFields(map[string]interface{}{"trigger": triggerLabel}),
	}
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID interface{} `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument struct {
		TenantID string `bson:"tenantId"`
	} `bson:"fullDocument"`
}

func inputFromChange(ev changeEvent) (*processnewapplicant.Input, error) {
	if ev.OperationType != "insert" {
		return nil, fmt.Errorf("unexpected operation %q", ev.OperationType)
	}
	if ev.FullDocument.TenantID == "" {
		return nil, errMissingTenant
	}
	id := store.IDString(ev.DocumentKey.ID)
	if id == "" {
		return nil, errors.New("insert event has no document key")
	}
	return &processnewapplicant.Input{TenantID: ev.FullDocument.TenantID, ApplicantID: id}, nil
}

// Run watches until ctx is cancelled, reopening the stream from the last
// resume token after errors. In-flight runs finish before Run returns.
func (w *ChangeStreamWatcher) Run(ctx context.Context) error {
	var (
		g           errgroup.Group
		resumeToken bson.Raw
	)
	g.SetLimit(w.options.MaxConcurrent)
	defer func() { _ = g.Wait() }()

	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}}}

	for {
		opts := options.ChangeStream()
		if resumeToken != nil {
			opts.SetResumeAfter(resumeToken)
		}

		stream, err := w.coll.Watch(ctx, pipeline, opts)
		if err == nil {
			w.logger.Info("change stream opened", nil)
			resumeToken = w.consume(ctx, stream, &g, resumeToken)
			err = stream.Err()
			_ = stream.Close(context.Background())
		}

		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			w.logger.Warn("change stream interrupted, reopening", map[string]interface{}{
				"error":   err.Error(),
				"resumed": resumeToken != nil,
			})
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.options.RetryDelay):
		}
	}
}

func (w *ChangeStreamWatcher) consume(ctx context.Context, stream *mongo.ChangeStream, g *errgroup.Group, token bson.Raw) bson.Raw {
	for stream.Next(ctx) {
		token = stream.ResumeToken()

		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			w.logger.Warn("failed to decode change event", map[string]interface{}{"error": err.Error()})
			continue
		}
		input, err := inputFromChange(ev)
		if err != nil {
			w.logger.Warn("ignoring change event", map[string]interface{}{"error": err.Error()})
			continue
		}

		g.Go(func() error {
			w.process(ctx, input)
			return nil
		})
	}
	return token
}

// process runs one applicant. Retryable failures are re-run up to the code's
// retry count with a linear backoff; a shutdown stops further attempts.
func (w *ChangeStreamWatcher) process(ctx context.Context, input *processnewapplicant.Input) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(triggerLabel).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(triggerLabel).Dec()

	log := w.logger.WithFields(map[string]interface{}{
		"tenantId":    input.TenantID,
		"applicantId": input.ApplicantID,
	})

	for attempt := 1; ; attempt++ {
		output, err := w.run(ctx, input)
		if err == nil {
			metrics.WorkerJobsCompleted.WithLabelValues(triggerLabel).Inc()
			metrics.WorkerJobDuration.WithLabelValues(triggerLabel).Observe(time.Since(start).Seconds())
			log.Debug("scoring run finished", map[string]interface{}{
				"status":   output.Status,
				"skipped":  output.Skipped,
				"attempts": attempt,
			})
			return
		}

		stdErr := apperrors.Normalize(err)
		maxRetries := 0
		if stdErr.Retryable {
			maxRetries = apperrors.GetRetryCount(stdErr.Code)
		}
		if attempt > maxRetries {
			metrics.WorkerJobsFailed.WithLabelValues(triggerLabel, string(stdErr.Code)).Inc()
			log.Error("scoring run failed", map[string]interface{}{
				"errorCode": string(stdErr.Code),
				"details":   stdErr.Details,
				"attempts":  attempt,
			})
			return
		}

		log.Warn("scoring run failed, retrying", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"attempt":   attempt,
		})
		select {
		case <-ctx.Done():
			log.Warn("shutdown before retry, applicant left unscored", nil)
			return
		case <-time.After(time.Duration(attempt) * w.options.RetryDelay):
		}
	}
}

func (w *ChangeStreamWatcher) run(ctx context.Context, input *processnewapplicant.Input) (*processnewapplicant.Output, error) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.options.RunTimeout)
	defer cancel()
	return w.runner.Execute(runCtx, input)
}
