// Package candidates stores candidates and their screening history.
package candidates

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/spigell/cv-screener/internal/screening"
)

// ErrNotFound is returned when a candidate id is unknown.
var ErrNotFound = errors.New("candidate not found")

// Candidate is a screened person. History holds every screening result in
// the order it was appended; LatestResult points at the last one.
type Candidate struct {
	ID           string                      `json:"id"`
	Name         string                      `json:"name"`
	Email        string                      `json:"email,omitempty"`
	LatestResult *screening.ScreeningResult  `json:"latestResult,omitempty"`
	History      []screening.ScreeningResult `json:"history"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

// Profile is what a caller knows about a candidate before screening.
type Profile struct {
	Name  string
	Email string
}

// Filter narrows List results. Zero values disable a condition.
type Filter struct {
	// Query matches name or email, case-insensitively.
	Query string
	// MinScore keeps candidates whose latest score is at least this value.
	// Candidates without results are dropped when MinScore is set.
	MinScore int
	Limit    int
}

// Store persists candidates. AppendResult must be atomic per candidate id.
type Store interface {
	Create(ctx context.Context, p Profile) (Candidate, error)
	Get(ctx context.Context, id string) (Candidate, error)
	AppendResult(ctx context.Context, id string, result screening.ScreeningResult) (Candidate, error)
	List(ctx context.Context, f Filter) ([]Candidate, error)
	Close() error
}

// Clone returns a deep copy of c.
func (c Candidate) Clone() Candidate {
	out := c
	out.History = make([]screening.ScreeningResult, len(c.History))
	for i, r := range c.History {
		out.History[i] = cloneResult(r)
	}
	if n := len(out.History); n > 0 {
		out.LatestResult = &out.History[n-1]
	} else {
		out.LatestResult = nil
	}
	return out
}

// Score returns the latest score and whether the candidate was screened.
func (c Candidate) Score() (int, bool) {
	if c.LatestResult == nil {
		return 0, false
	}
	return c.LatestResult.Score, true
}

func (f Filter) match(c Candidate) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Email), q) {
			return false
		}
	}
	if f.MinScore > 0 {
		score, ok := c.Score()
		if !ok || score < f.MinScore {
			return false
		}
	}
	return true
}

// apply filters list in place and caps it at Limit.
func (f Filter) apply(list []Candidate) []Candidate {
	out := list[:0]
	for _, c := range list {
		if f.match(c) {
			out = append(out, c)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func normalizeProfile(p Profile) (Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if p.Name == "" {
		return p, errors.New("candidate name is required")
	}
	return p, nil
}

func cloneResult(r screening.ScreeningResult) screening.ScreeningResult {
	r.Strengths = slices.Clone(r.Strengths)
	r.Weaknesses = slices.Clone(r.Weaknesses)
	r.KeySkills = slices.Clone(r.KeySkills)
	return r
}
