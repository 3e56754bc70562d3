// Package ranking orders screened candidates and buckets them into match tiers.
package ranking

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/screening"
)

// Tier is a display bucket of a ranked candidate.
type Tier string

const (
	TierHigh  Tier = "high"
	TierGood  Tier = "good"
	TierOther Tier = "other"
)

const (
	highScore = 80
	goodScore = 60
)

// Tiers lists the tiers from best to worst.
func Tiers() []Tier { return []Tier{TierHigh, TierGood, TierOther} }

// TierOf buckets a score.
func TierOf(score int) Tier {
	switch {
	case score >= highScore:
		return TierHigh
	case score >= goodScore:
		return TierGood
	default:
		return TierOther
	}
}

// Entry is one candidate with the result to rank them by.
type Entry struct {
	CandidateID string                    `json:"candidateId"`
	Name        string                    `json:"name"`
	Result      screening.ScreeningResult `json:"result"`
}

// Item is a ranked entry. Position starts at 1.
type Item struct {
	Entry
	Position int  `json:"position"`
	Tier     Tier `json:"tier"`
}

// Counts holds the number of items per tier.
type Counts struct {
	High  int `json:"high"`
	Good  int `json:"good"`
	Other int `json:"other"`
}

// Total is the number of ranked items.
func (c Counts) Total() int { return c.High + c.Good + c.Other }

// Ranking is the ordered view of a batch.
type Ranking struct {
	Items  []Item `json:"items"`
	Counts Counts `json:"counts"`
}

// Rank sorts entries by descending score. Equal scores are ordered by name,
// case-insensitively, and then by input order.
func Rank(entries []Entry) Ranking {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		if c := cmp.Compare(b.Result.Score, a.Result.Score); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	r := Ranking{Items: make([]Item, 0, len(sorted))}
	for i, e := range sorted {
		tier := TierOf(e.Result.Score)
		switch tier {
		case TierHigh:
			r.Counts.High++
		case TierGood:
			r.Counts.Good++
		default:
			r.Counts.Other++
		}
		r.Items = append(r.Items, Item{Entry: e, Position: i + 1, Tier: tier})
	}

	return r
}

// ByTier returns the items of one tier in rank order.
func (r Ranking) ByTier(tier Tier) []Item {
	var out []Item
	for _, item := range r.Items {
		if item.Tier == tier {
			out = append(out, item)
		}
	}
	return out
}

// Report renders the candidates of every tier as plain text.
func (r Ranking) Report() string {
	titles := map[Tier]string{
		TierHigh:  "High match",
		TierGood:  "Good match",
		TierOther: "Other",
	}

	var b strings.Builder
	for _, tier := range Tiers() {
		items := r.ByTier(tier)
		fmt.Fprintf(&b, "%s (%d)\n", titles[tier], len(items))
		if len(items) == 0 {
			b.WriteString("  -\n")
			continue
		}
		for _, item := range items {
			fmt.Fprintf(&b, "  %d. %s (%d, %s", item.Position, item.Name, item.Result.Score, item.Result.Recommendation)
			if item.Result.Provenance == screening.ProvenanceFallback {
				b.WriteString(", fallback")
			}
			b.WriteString(")\n")
		}
	}
	return b.String()
}

// DumpToTmpFile writes the ranking as indented JSON to a new temporary file
// and returns its name.
func (r Ranking) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "ranking_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// FromCandidates builds entries from the latest result of each candidate.
// Candidates that were never screened are skipped.
func FromCandidates(list []candidates.Candidate) []Entry {
	entries := make([]Entry, 0, len(list))
	for _, c := range list {
		if c.LatestResult == nil {
			continue
		}
		entries = append(entries, Entry{CandidateID: c.ID, Name: c.Name, Result: *c.LatestResult})
	}
	return entries
}
