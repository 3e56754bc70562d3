package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/screening"
)

// scoreGateway answers every prompt with a screening whose score is looked
// up by a marker in the resume text.
type scoreGateway struct {
	scores  map[string]int
	gate    chan struct{}
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (g *scoreGateway) Send(ctx context.Context, prompt string, _ ai.Options) (string, error) {
	g.calls.Add(1)
	n := g.active.Add(1)
	defer g.active.Add(-1)
	for {
		seen := g.maxSeen.Load()
		if n <= seen || g.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return "", ai.Classify(ctx.Err())
		}
	}

	for marker, score := range g.scores {
		if strings.Contains(prompt, "resume-"+marker+";") {
			return fmt.Sprintf(`{"score": %d, "strengths": [], "weaknesses": [], "recommendation": "fair_match", "reasoning": "%s"}`, score, marker), nil
		}
	}
	return "no json here", nil
}

func (g *scoreGateway) Name() string  { return "score" }
func (g *scoreGateway) Model() string { return "" }

func newService(t *testing.T, gw ai.Gateway, workers int) (*Service, candidates.Store) {
	t.Helper()
	orch := screening.NewOrchestrator(gw, screening.MustPromptEngine(0), screening.NewCatalog(), screening.Config{Timeout: 5 * time.Second}, zap.NewNop())
	store := candidates.NewMemoryStore()
	return New(orch, store, workers, zap.NewNop()), store
}

func input(name string) screening.ScreeningInput {
	return screening.ScreeningInput{
		ResumeText:     "resume-" + name + ";",
		JobDescription: "Go engineer",
		CandidateName:  name,
	}
}

func TestScreenResumeCreatesAndAppends(t *testing.T) {
	gw := &scoreGateway{scores: map[string]int{"ada": 91}}
	svc, store := newService(t, gw, 0)
	ctx := context.Background()

	first, err := svc.ScreenResume(ctx, input("ada"))
	require.NoError(t, err)
	require.Equal(t, 91, first.Result.Score)
	require.Equal(t, screening.ProvenanceLive, first.Result.Provenance)
	require.Equal(t, "ada", first.Candidate.Name)
	require.Len(t, first.Candidate.History, 1)

	again := input("ada")
	again.CandidateID = first.Candidate.ID
	second, err := svc.ScreenResume(ctx, again)
	require.NoError(t, err)
	require.Equal(t, first.Candidate.ID, second.Candidate.ID)
	require.Len(t, second.Candidate.History, 2)

	all, err := store.List(ctx, candidates.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestScreenResumeRejectsBadInputWithoutCalls(t *testing.T) {
	gw := &scoreGateway{}
	svc, store := newService(t, gw, 0)
	ctx := context.Background()

	bad := input("x")
	bad.ResumeText = ""
	_, err := svc.ScreenResume(ctx, bad)
	require.True(t, screening.IsCallerInputError(err))

	unknown := input("x")
	unknown.CandidateID = "does-not-exist"
	_, err = svc.ScreenResume(ctx, unknown)
	require.True(t, screening.IsCallerInputError(err))

	require.Zero(t, gw.calls.Load())
	all, err := store.List(ctx, candidates.Filter{})
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestScreenBatchKeepsOrderAndBoundsConcurrency(t *testing.T) {
	gw := &scoreGateway{scores: map[string]int{"a": 10, "b": 20, "c": 30, "d": 40, "e": 50, "f": 60}}
	svc, _ := newService(t, gw, 2)

	inputs := []screening.ScreeningInput{input("a"), input("b"), input("c"), input("d"), input("e"), input("f"), input("g")}
	outcomes, err := svc.ScreenBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, outcomes, len(inputs))

	for i, want := range []int{10, 20, 30, 40, 50, 60} {
		require.Equal(t, want, outcomes[i].Result.Score)
		require.Equal(t, inputs[i].CandidateName, outcomes[i].Candidate.Name)
	}
	// "g" has no score, so the provider reply is prose and the fallback is used.
	require.Equal(t, screening.ProvenanceFallback, outcomes[6].Result.Provenance)

	require.EqualValues(t, len(inputs), gw.calls.Load())
	require.LessOrEqual(t, gw.maxSeen.Load(), int32(2))
}

func TestScreenBatchValidatesEverythingFirst(t *testing.T) {
	gw := &scoreGateway{scores: map[string]int{"a": 10}}
	svc, _ := newService(t, gw, 4)

	bad := input("b")
	bad.JobDescription = "  "
	_, err := svc.ScreenBatch(context.Background(), []screening.ScreeningInput{input("a"), bad})

	var cie *screening.CallerInputError
	require.True(t, errors.As(err, &cie))
	require.Equal(t, "jobDescription", cie.Field)
	require.Zero(t, gw.calls.Load())
}

func TestScreenBatchSameCandidateSerializesHistory(t *testing.T) {
	gw := &scoreGateway{scores: map[string]int{"same": 75}}
	svc, store := newService(t, gw, 8)
	ctx := context.Background()

	first, err := svc.ScreenResume(ctx, input("same"))
	require.NoError(t, err)

	inputs := make([]screening.ScreeningInput, 10)
	for i := range inputs {
		inputs[i] = input("same")
		inputs[i].CandidateID = first.Candidate.ID
	}

	_, err = svc.ScreenBatch(ctx, inputs)
	require.NoError(t, err)

	got, err := store.Get(ctx, first.Candidate.ID)
	require.NoError(t, err)
	require.Len(t, got.History, 11)
}

func TestScreenBatchCancellationDiscardsResults(t *testing.T) {
	gw := &scoreGateway{scores: map[string]int{"a": 10, "b": 20, "c": 30}, gate: make(chan struct{})}
	svc, store := newService(t, gw, 2)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	var batchErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, batchErr = svc.ScreenBatch(ctx, []screening.ScreeningInput{input("a"), input("b"), input("c")})
	}()

	require.Eventually(t, func() bool { return gw.calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()
	require.ErrorIs(t, batchErr, context.Canceled)

	// In-flight provider calls were not aborted; let them finish.
	close(gw.gate)
	svc.Wait()

	require.EqualValues(t, 2, gw.calls.Load())
	all, err := store.List(context.Background(), candidates.Filter{})
	require.NoError(t, err)
	require.Empty(t, all)
}

// flakyStore refuses to create candidates with the given name.
type flakyStore struct {
	candidates.Store
	refuse string
}

func (f *flakyStore) Create(ctx context.Context, p candidates.Profile) (candidates.Candidate, error) {
	if p.Name == f.refuse {
		return candidates.Candidate{}, errors.New("disk full")
	}
	return f.Store.Create(ctx, p)
}

func TestScreenBatchKeepsStoredOutcomesOnStorageFailure(t *testing.T) {
	gw := &scoreGateway{scores: map[string]int{"a": 10, "b": 20, "c": 30}}
	orch := screening.NewOrchestrator(gw, screening.MustPromptEngine(0), screening.NewCatalog(), screening.Config{Timeout: 5 * time.Second}, zap.NewNop())
	store := &flakyStore{Store: candidates.NewMemoryStore(), refuse: "b"}
	svc := New(orch, store, 2, zap.NewNop())

	outcomes, err := svc.ScreenBatch(context.Background(), []screening.ScreeningInput{input("a"), input("b"), input("c")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")

	require.Len(t, outcomes, 2)
	require.Equal(t, "a", outcomes[0].Candidate.Name)
	require.Equal(t, "c", outcomes[1].Candidate.Name)

	items := ItemErrors(err)
	require.Len(t, items, 1)
	require.Equal(t, 1, items[0].Index)

	all, err := store.List(context.Background(), candidates.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestNewClampsWorkers(t *testing.T) {
	cases := map[int]int{0: DefaultWorkers, -3: 1, 1: 1, 8: 8, 50: MaxWorkers}
	for in, want := range cases {
		require.Equal(t, want, New(nil, nil, in, nil).Workers(), "workers %d", in)
	}
}
