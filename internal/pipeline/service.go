// Package pipeline screens resumes and records the results on candidates.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/metrics"
	"github.com/spigell/cv-screener/internal/screening"
)

const (
	DefaultWorkers = 4
	MaxWorkers     = 8

	unnamedCandidate = "Unnamed candidate"
)

// Screener evaluates a single resume.
type Screener interface {
	ScreenResume(ctx context.Context, in screening.ScreeningInput) (screening.ScreeningResult, error)
}

// Outcome is a screening result together with the candidate it was stored on.
type Outcome struct {
	Candidate candidates.Candidate      `json:"candidate"`
	Result    screening.ScreeningResult `json:"result"`
}

// Service runs screenings and persists them.
type Service struct {
	screener Screener
	store    candidates.Store
	workers  int
	logger   *zap.Logger

	// inflight tracks screenings that may outlive their caller.
	inflight sync.WaitGroup
}

// New creates a Service. Workers is clamped to [1, MaxWorkers]; zero selects
// DefaultWorkers.
func New(screener Screener, store candidates.Store, workers int, log *zap.Logger) *Service {
	switch {
	case workers == 0:
		workers = DefaultWorkers
	case workers < 1:
		workers = 1
	case workers > MaxWorkers:
		workers = MaxWorkers
	}

	return &Service{
		screener: screener,
		store:    store,
		workers:  workers,
		logger:   logger.WithFields(log),
	}
}

// Workers reports the effective batch concurrency.
func (s *Service) Workers() int { return s.workers }

// ScreenResume screens one resume. Without a CandidateID a new candidate is
// created; otherwise the result is appended to the existing one. When ctx is
// done before the screening finishes, ctx.Err() is returned and the result is
// discarded.
func (s *Service) ScreenResume(ctx context.Context, in screening.ScreeningInput) (Outcome, error) {
	if err := s.precheck(ctx, []screening.ScreeningInput{in}); err != nil {
		return Outcome{}, err
	}

	type reply struct {
		outcome Outcome
		err     error
	}
	ch := make(chan reply, 1)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		outcome, err := s.screenOne(ctx, in)
		ch <- reply{outcome, err}
	}()

	select {
	case r := <-ch:
		return r.outcome, r.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// ScreenBatch screens every input with at most Workers concurrent provider
// calls, dispatched in submission order. Outcomes keep the input order. All
// inputs are checked before the first provider call.
//
// When some results cannot be stored, the outcomes that were stored are still
// returned, together with an error joining one *ItemError per failed input.
func (s *Service) ScreenBatch(ctx context.Context, inputs []screening.ScreeningInput) ([]Outcome, error) {
	if err := s.precheck(ctx, inputs); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(inputs))
	failures := make([]error, len(inputs))
	done := make(chan struct{})

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer close(done)

		var g errgroup.Group
		g.SetLimit(s.workers)

		for i, in := range inputs {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				metrics.BatchInFlight.Inc()
				defer metrics.BatchInFlight.Dec()

				outcome, err := s.screenOne(ctx, in)
				if err != nil {
					failures[i] = &ItemError{Index: i, Err: err}
					return nil
				}
				outcomes[i] = outcome
				return nil
			})
		}

		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := make([]Outcome, 0, len(inputs))
	for i := range inputs {
		if failures[i] == nil {
			stored = append(stored, outcomes[i])
		}
	}
	if err := errors.Join(failures...); err != nil {
		s.logger.Warn("batch finished with failures",
			zap.Int("stored", len(stored)),
			zap.Int("failed", len(inputs)-len(stored)),
			zap.Error(err),
		)
		return stored, err
	}
	return stored, nil
}

// ItemError is a batch input whose result could not be stored.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string { return fmt.Sprintf("input %d: %v", e.Index, e.Err) }

func (e *ItemError) Unwrap() error { return e.Err }

// ItemErrors lists the per-input failures carried by a ScreenBatch error.
func ItemErrors(err error) []*ItemError {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		var item *ItemError
		if errors.As(err, &item) {
			return []*ItemError{item}
		}
		return nil
	}

	var items []*ItemError
	for _, e := range joined.Unwrap() {
		var item *ItemError
		if errors.As(e, &item) {
			items = append(items, item)
		}
	}
	return items
}

// Wait blocks until screenings abandoned by their callers have finished.
func (s *Service) Wait() { s.inflight.Wait() }

// precheck rejects bad input before any provider call is made.
func (s *Service) precheck(ctx context.Context, inputs []screening.ScreeningInput) error {
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			if len(inputs) > 1 {
				return fmt.Errorf("input %d: %w", i, err)
			}
			return err
		}

		id := strings.TrimSpace(in.CandidateID)
		if id == "" {
			continue
		}
		if _, err := s.store.Get(ctx, id); err != nil {
			if errors.Is(err, candidates.ErrNotFound) {
				return &screening.CallerInputError{
					Operation: screening.OpScreenResume,
					Field:     "candidateId",
					Reason:    fmt.Sprintf("unknown candidate %q", id),
				}
			}
			return fmt.Errorf("look up candidate %s: %w", id, err)
		}
	}
	return nil
}

// screenOne runs the provider call on a context that ignores caller
// cancellation and persists the result only if ctx is still live.
func (s *Service) screenOne(ctx context.Context, in screening.ScreeningInput) (Outcome, error) {
	result, err := s.screener.ScreenResume(context.WithoutCancel(ctx), in)
	if err != nil {
		return Outcome{}, err
	}

	if ctx.Err() != nil {
		s.logger.Info("caller gone, screening result discarded",
			zap.String(logger.FieldCandidateID, in.CandidateID),
			zap.String(logger.FieldProvenance, string(result.Provenance)),
		)
		return Outcome{}, ctx.Err()
	}

	id := strings.TrimSpace(in.CandidateID)
	if id == "" {
		name := strings.TrimSpace(in.CandidateName)
		if name == "" {
			name = unnamedCandidate
		}
		created, err := s.store.Create(ctx, candidates.Profile{Name: name, Email: in.Email})
		if err != nil {
			return Outcome{}, fmt.Errorf("create candidate: %w", err)
		}
		id = created.ID
	}

	candidate, err := s.store.AppendResult(ctx, id, result)
	if err != nil {
		return Outcome{}, fmt.Errorf("append result to %s: %w", id, err)
	}

	s.logger.Debug("screening stored",
		zap.String(logger.FieldCandidateID, candidate.ID),
		zap.Int("score", result.Score),
		zap.String(logger.FieldProvenance, string(result.Provenance)),
	)

	return Outcome{Candidate: candidate, Result: result}, nil
}
