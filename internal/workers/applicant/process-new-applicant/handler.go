package processnewapplicant

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"applicant-workers/internal/common/errors"
	"applicant-workers/internal/common/logger"
	"applicant-workers/internal/common/metrics"
	"applicant-workers/internal/common/observability"
	"applicant-workers/internal/common/validation"
	"applicant-workers/internal/models"
	"applicant-workers/internal/scoring"
	"applicant-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "process-new-applicant"

type Handler struct {
	config        *Config
	logger        logger.Logger
	applicants    ApplicantStore
	questions     QuestionSource
	thresholds    ThresholdSource
	locker        Locker
	dispatcher    *scoring.Dispatcher
	router        scoring.Router
	sinks         []ResultSink
	observability *observability.Observability
	errorHandler  *errors.ErrorHandler
	now           func() time.Time
}

type HandlerOptions struct {
	Config        *Config
	Applicants    ApplicantStore
	Questions     QuestionSource
	Thresholds    ThresholdSource
	Locker        Locker
	Dispatcher    *scoring.Dispatcher
	Router        scoring.Router
	Sinks         []ResultSink
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Applicants == nil || opts.Questions == nil || opts.Dispatcher == nil {
		return nil, fmt.Errorf("%s requires applicants, questions and dispatcher", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	router := opts.Router
	if router.PassStatus == "" || router.ReviewStatus == "" {
		router = scoring.NewRouter(router.PassStatus, router.ReviewStatus)
	}

	return &Handler{
		config:        cfg,
		logger:        log,
		applicants:    opts.Applicants,
		questions:     opts.Questions,
		thresholds:    opts.Thresholds,
		locker:        opts.Locker,
		dispatcher:    opts.Dispatcher,
		router:        router,
		sinks:         opts.Sinks,
		observability: opts.Observability,
		errorHandler:  errors.NewErrorHandler(log),
		now:           time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"retries":            job.GetRetries(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.observability.RecordJobProcessed(ctx, TaskType, "completed")
	h.observability.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInputValidationError(fmt.Sprintf("%v", result.GetErrorMessages()))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	return &input, nil
}

// Execute runs the scoring pipeline for one applicant. Redelivered or
// concurrent runs complete as skipped without writing.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	log := h.logger.WithFields(map[string]interface{}{
		"tenantId":    input.TenantID,
		"applicantId": input.ApplicantID,
	})

	applicant, err := h.loadApplicant(ctx, input, log)
	if err != nil {
		return nil, err
	}
	if applicant.Processed() {
		log.Info("applicant already processed, skipping", map[string]interface{}{
			"processedAt": applicant.ProcessedAt.UTC().Format(time.RFC3339),
		})
		return skipped(SkipAlreadyProcessed, applicant), nil
	}

	lock, err := h.acquireLock(ctx, input, log)
	if stderrors.Is(err, store.ErrLocked) {
		log.Info("applicant is being scored by another run, skipping", nil)
		return skipped(SkipInProgress, nil), nil
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to release applicant lock", map[string]interface{}{"error": err.Error()})
		}
	}()

	schema, err := h.questions.Questions(ctx, input.TenantID)
	if err != nil {
		return nil, errors.NewSchemaReadFailedError(err)
	}
	if len(schema) == 0 {
		log.Error("tenant has no questions, aborting", nil)
		return nil, errors.NewSchemaNotFoundError(input.TenantID)
	}

	threshold := h.threshold(ctx, input.TenantID, log)

	partition := scoring.Classify(schema, applicant.Answers, h.config.DefaultTraitPoints)
	manual := scoring.ManualScore(partition.Choices)

	dispatched := h.dispatcher.Dispatch(ctx, partition.FreeText)
	h.observability.RecordAIQuestions(ctx, len(dispatched.Analyses), len(dispatched.Failed))

	budgets := make(map[string]int, len(partition.FreeText))
	for _, a := range partition.FreeText {
		budgets[a.QuestionID] = a.Points
	}
	totals := scoring.Aggregate(manual, dispatched.Analyses, budgets)
	status := h.router.Route(totals.FinalScore, threshold)

	processedAt := h.now().UTC()
	update := models.ScoreUpdate{
		Score:       totals.FinalScore,
		ManualScore: totals.ManualScore,
		AIAnalysis:  dispatched.Analyses,
		Status:      status,
		ProcessedAt: processedAt,
		Contact:     partition.Contact,
	}

	if err := h.applicants.ApplyScore(ctx, input.TenantID, input.ApplicantID, update); err != nil {
		switch {
		case stderrors.Is(err, store.ErrAlreadyProcessed):
			log.Info("applicant processed by a concurrent run, result discarded", nil)
			return skipped(SkipAlreadyProcessed, nil), nil
		case stderrors.Is(err, store.ErrApplicantNotFound):
			return nil, errors.NewApplicantNotFoundError(input.TenantID, input.ApplicantID)
		default:
			return nil, errors.NewPersistenceFailedError(err)
		}
	}

	h.record(ctx, &models.ScoringOutcome{
		RunID:             uuid.NewString(),
		TenantID:          input.TenantID,
		ApplicantID:       input.ApplicantID,
		Score:             totals.FinalScore,
		ManualScore:       totals.ManualScore,
		AIScoreTotal:      totals.AIScoreTotal,
		Threshold:         threshold,
		Status:            status,
		AIQuestionsScored: len(dispatched.Analyses),
		AIQuestionsFailed: len(dispatched.Failed),
		Contact:           partition.Contact,
		ProcessedAt:       processedAt,
	}, log)

	metrics.ApplicantsRouted.WithLabelValues(status).Inc()
	metrics.ApplicantFinalScore.Observe(float64(totals.FinalScore))

	log.Info("applicant scored", map[string]interface{}{
		"score":             totals.FinalScore,
		"manualScore":       totals.ManualScore,
		"aiScoreTotal":      round2(totals.AIScoreTotal),
		"threshold":         threshold,
		"status":            status,
		"aiQuestionsFailed": dispatched.Failed,
		"unknownAnswers":    partition.Unknown,
	})

	return &Output{
		Score:             totals.FinalScore,
		ManualScore:       totals.ManualScore,
		AIScoreTotal:      totals.AIScoreTotal,
		Status:            status,
		AIQuestionsScored: len(dispatched.Analyses),
		AIQuestionsFailed: len(dispatched.Failed),
	}, nil
}

// loadApplicant prefers the answers carried on the job but still reads the
// stored document so a redelivery of an already processed applicant is
// skipped before any oracle call.
func (h *Handler) loadApplicant(ctx context.Context, input *Input, log logger.Logger) (*models.Applicant, error) {
	stored, err := h.applicants.Get(ctx, input.TenantID, input.ApplicantID)

	if input.Applicant != nil && input.Applicant.Answers != nil {
		switch {
		case err == nil && stored.Processed():
			return stored, nil
		case err != nil && !stderrors.Is(err, store.ErrApplicantNotFound):
			log.Warn("stored applicant unreadable, scoring job body", map[string]interface{}{
				"error": err.Error(),
			})
		}
		a := *input.Applicant
		a.ID = input.ApplicantID
		a.TenantID = input.TenantID
		return &a, nil
	}

	if err != nil {
		if stderrors.Is(err, store.ErrApplicantNotFound) {
			return nil, errors.NewApplicantNotFoundError(input.TenantID, input.ApplicantID)
		}
		return nil, errors.NewApplicantReadFailedError(err)
	}
	return stored, nil
}

// acquireLock returns store.ErrLocked when another run holds the applicant.
// Any other lock failure is logged and the run continues unlocked, leaving
// the conditional write as the only guard.
func (h *Handler) acquireLock(ctx context.Context, input *Input, log logger.Logger) (*store.Lock, error) {
	if h.locker == nil {
		return nil, nil
	}
	lock, err := h.locker.Acquire(ctx, input.TenantID, input.ApplicantID)
	switch {
	case err == nil:
		return lock, nil
	case stderrors.Is(err, store.ErrLocked):
		return nil, err
	default:
		log.Warn("applicant lock unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		return nil, nil
	}
}

func (h *Handler) threshold(ctx context.Context, tenantID string, log logger.Logger) int {
	if h.thresholds == nil {
		return h.config.DefaultThreshold
	}
	value, err := h.thresholds.ScoreThreshold(ctx, tenantID)
	if err != nil {
		log.Warn("failed to read tenant threshold, using default", map[string]interface{}{
			"error":     err.Error(),
			"threshold": h.config.DefaultThreshold,
		})
		return h.config.DefaultThreshold
	}
	return scoring.ResolveThreshold(value, h.config.DefaultThreshold)
}

func (h *Handler) record(ctx context.Context, outcome *models.ScoringOutcome, log logger.Logger) {
	for _, sink := range h.sinks {
		if err := sink.Record(ctx, outcome); err != nil {
			log.Warn("result sink failed", map[string]interface{}{
				"sink":  sink.Name(),
				"error": err.Error(),
			})
		}
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(output.Variables())
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":  job.GetKey(),
		"status":  output.Status,
		"skipped": output.Skipped,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.observability.RecordJobProcessed(ctx, TaskType, "failed")
	h.observability.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")

	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}
