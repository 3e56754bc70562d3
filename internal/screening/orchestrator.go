package screening

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/metrics"
	"github.com/spigell/cv-screener/internal/textutil"
)

// State is a step of a single orchestrated request.
type State string

const (
	StatePending         State = "PENDING"
	StateCallingProvider State = "CALLING_PROVIDER"
	StateExtracting      State = "EXTRACTING"
	StateValidating      State = "VALIDATING"
	StateSucceeded       State = "SUCCEEDED"
	StateFailed          State = "FAILED"
	StateFallbackApplied State = "FALLBACK_APPLIED"
	StateDone            State = "DONE"
)

const (
	DefaultTimeout         = 15 * time.Second
	DefaultMaxOutputTokens = 1024
	DefaultTemperature     = 0.2
	defaultMaxLogLength    = 200
)

// Config tunes the orchestrator.
type Config struct {
	Timeout         time.Duration
	MaxOutputTokens int
	Temperature     float64
	MaxLogLength    int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxLogLength <= 0 {
		c.MaxLogLength = defaultMaxLogLength
	}
	return c
}

// Orchestrator drives every operation through prompt rendering, one provider
// call, extraction and validation. Any failure after rendering yields the
// catalog fallback instead of an error.
type Orchestrator struct {
	gateway  ai.Gateway
	prompts  *PromptEngine
	fallback *Catalog
	cfg      Config
	logger   *zap.Logger
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(gateway ai.Gateway, prompts *PromptEngine, fallback *Catalog, cfg Config, log *zap.Logger) *Orchestrator {
	provider, model := "", ""
	if gateway != nil {
		provider, model = gateway.Name(), gateway.Model()
	}

	return &Orchestrator{
		gateway:  gateway,
		prompts:  prompts,
		fallback: fallback,
		cfg:      cfg.withDefaults(),
		logger:   logger.WithProviderFields(log, provider, model),
	}
}

// ScreenResume evaluates a resume against a job description. The only error
// it returns is a *CallerInputError.
func (o *Orchestrator) ScreenResume(ctx context.Context, in ScreeningInput) (ScreeningResult, error) {
	result, err := run(ctx, o, OpScreenResume, in.Inputs(), ValidateScreening, o.fallback.Screening)
	if err == nil {
		metrics.ScreeningScore.Observe(float64(result.Score))
	}
	return result, err
}

// GenerateJobDescription writes a job description for the given role.
func (o *Orchestrator) GenerateJobDescription(ctx context.Context, in JobDescriptionInput) (JobDescription, error) {
	return run(ctx, o, OpGenerateJobDescription, in.Inputs(), ValidateJobDescription, o.fallback.JobDescription)
}

// AnalyzePerformance reads a performance review.
func (o *Orchestrator) AnalyzePerformance(ctx context.Context, in PerformanceInput) (PerformanceAnalysis, error) {
	return run(ctx, o, OpAnalyzePerformance, in.Inputs(), ValidatePerformance, o.fallback.Performance)
}

// AskHR answers a free-form HR question.
func (o *Orchestrator) AskHR(ctx context.Context, in HRQuestionInput) (HRAnswer, error) {
	return run(ctx, o, OpHRQuestion, in.Inputs(), ValidateHRAnswer, o.fallback.Answer)
}

func run[T any](ctx context.Context, o *Orchestrator, op Operation, in Inputs, validate func(string) (T, error), fallback func() T) (T, error) {
	prompt, err := o.prompts.Render(op, in)
	if err != nil {
		var zero T
		return zero, err
	}

	result, reached, failure := attempt(ctx, o, op, prompt, validate)

	provenance := ProvenanceLive
	if failure != nil {
		// FAILED -> FALLBACK_APPLIED
		result = fallback()
		provenance = ProvenanceFallback
	}

	kind := ai.KindOf(failure)
	fields := append(logger.ScreeningFields(string(op), string(provenance), string(kind)),
		zap.String("state", string(StateDone)),
	)
	if failure != nil {
		fields = append(fields, zap.String("failed_at", string(reached)), zap.Error(failure))
		o.logger.Warn("live path failed, fallback applied", fields...)
	} else {
		o.logger.Info("request completed", fields...)
	}
	metrics.ObserveRequest(string(op), string(provenance), string(kind))

	return result, nil
}

// attempt runs the live path once. It returns the last state reached and,
// on failure, a *ai.ProviderError for it. Success returns a nil interface.
func attempt[T any](ctx context.Context, o *Orchestrator, op Operation, prompt string, validate func(string) (T, error)) (T, State, error) {
	var zero T

	if o.gateway == nil {
		return zero, StatePending, ai.NewError(ai.KindUnknown, "no provider configured", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	o.logger.Debug("provider request",
		zap.String(logger.FieldOperation, string(op)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", textutil.TruncateForLog(prompt, o.cfg.MaxLogLength)),
	)

	started := time.Now()
	raw, err := o.gateway.Send(callCtx, prompt, ai.Options{
		MaxOutputTokens: o.cfg.MaxOutputTokens,
		Temperature:     o.cfg.Temperature,
	})
	metrics.ObserveProvider(o.gateway.Name(), string(op), time.Since(started))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return zero, StateCallingProvider, ai.NewError(ai.KindTimeout, fmt.Sprintf("no response within %s", o.cfg.Timeout), err)
		}
		return zero, StateCallingProvider, ai.Classify(err)
	}

	o.logger.Debug("provider response",
		zap.String(logger.FieldOperation, string(op)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", textutil.TruncateForLog(raw, o.cfg.MaxLogLength)),
	)

	candidate, err := ExtractJSON(raw)
	if err != nil {
		return zero, StateExtracting, ai.NewError(ai.KindMalformedResponse, err.Error(), err)
	}

	result, err := validate(candidate)
	if err != nil {
		return zero, StateValidating, ai.NewError(ai.KindSchemaInvalid, err.Error(), err)
	}

	return result, StateSucceeded, nil
}
