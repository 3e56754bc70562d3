package candidates

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-screener/internal/screening"
)

func result(score int) screening.ScreeningResult {
	return screening.ScreeningResult{
		Score:          score,
		Strengths:      []string{"Go"},
		Weaknesses:     []string{},
		Recommendation: screening.GoodMatch,
		Reasoning:      fmt.Sprintf("score %d", score),
		KeySkills:      []string{"Go", "SQL"},
		Provenance:     screening.ProvenanceLive,
	}
}

func stores(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "db", "candidates.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStoreCreateAndAppend(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			c, err := s.Create(ctx, Profile{Name: "  Ada Lovelace ", Email: "ada@example.com"})
			require.NoError(t, err)
			require.NotEmpty(t, c.ID)
			require.Equal(t, "Ada Lovelace", c.Name)
			require.Nil(t, c.LatestResult)
			require.Empty(t, c.History)

			_, err = s.AppendResult(ctx, c.ID, result(70))
			require.NoError(t, err)
			updated, err := s.AppendResult(ctx, c.ID, result(85))
			require.NoError(t, err)

			require.Len(t, updated.History, 2)
			require.Equal(t, 70, updated.History[0].Score)
			require.NotNil(t, updated.LatestResult)
			require.Equal(t, result(85), *updated.LatestResult)
			require.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

			got, err := s.Get(ctx, c.ID)
			require.NoError(t, err)
			require.Equal(t, updated.History, got.History)
			require.Equal(t, "ada@example.com", got.Email)
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			_, err := s.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			_, err = s.AppendResult(ctx, "missing", result(10))
			require.ErrorIs(t, err, ErrNotFound)

			_, err = s.Create(ctx, Profile{Name: " "})
			require.Error(t, err)
		})
	}
}

func TestStoreList(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			scores := map[string]int{"Zoe": 92, "Bo": 81, "Al": 55}
			for _, n := range []string{"Zoe", "Bo", "Al", "Amy"} {
				c, err := s.Create(ctx, Profile{Name: n, Email: strings.ToLower(n) + "@mail.io"})
				require.NoError(t, err)
				if score, ok := scores[n]; ok {
					_, err = s.AppendResult(ctx, c.ID, result(score))
					require.NoError(t, err)
				}
			}

			all, err := s.List(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, all, 4)
			require.Equal(t, "Zoe", all[0].Name)
			require.Equal(t, "Amy", all[3].Name)

			high, err := s.List(ctx, Filter{MinScore: 80})
			require.NoError(t, err)
			require.Len(t, high, 2)

			queried, err := s.List(ctx, Filter{Query: "a"})
			require.NoError(t, err)
			// every email contains "mail"
			require.Len(t, queried, 4)

			byName, err := s.List(ctx, Filter{Query: "AM"})
			require.NoError(t, err)
			require.Len(t, byName, 1)
			require.Equal(t, "Amy", byName[0].Name)

			limited, err := s.List(ctx, Filter{Limit: 1})
			require.NoError(t, err)
			require.Len(t, limited, 1)
		})
	}
}

func TestStoreSerializesAppendsPerCandidate(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			c, err := s.Create(ctx, Profile{Name: "Concurrent"})
			require.NoError(t, err)

			const writers = 20
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := range writers {
				wg.Add(1)
				go func(score int) {
					defer wg.Done()
					_, err := s.AppendResult(ctx, c.ID, result(score))
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				require.NoError(t, err)
			}

			got, err := s.Get(ctx, c.ID)
			require.NoError(t, err)
			require.Len(t, got.History, writers)
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	c, err := s.Create(ctx, Profile{Name: "Copy"})
	require.NoError(t, err)
	updated, err := s.AppendResult(ctx, c.ID, result(60))
	require.NoError(t, err)

	updated.History[0].Strengths[0] = "tampered"
	updated.LatestResult.Score = 1

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, result(60), *got.LatestResult)
}

func TestMemoryStoreLocksOnlyKnownCandidates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	c, err := s.Create(ctx, Profile{Name: "Known"})
	require.NoError(t, err)
	_, err = s.AppendResult(ctx, c.ID, result(70))
	require.NoError(t, err)

	for i := range 5 {
		_, err := s.AppendResult(ctx, fmt.Sprintf("missing-%d", i), result(10))
		require.ErrorIs(t, err, ErrNotFound)
	}

	count := 0
	s.locks.Range(func(_, _ any) bool {
		count++
		return true
	})
	require.Equal(t, 1, count)
}
