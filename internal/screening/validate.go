package screening

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

type rawScreening struct {
	Score          float64  `mapstructure:"score"`
	Strengths      []string `mapstructure:"strengths"`
	Weaknesses     []string `mapstructure:"weaknesses"`
	Recommendation string   `mapstructure:"recommendation"`
	Reasoning      string   `mapstructure:"reasoning"`
	KeySkills      []string `mapstructure:"keySkills"`
}

type rawJobDescription struct {
	Title            string   `mapstructure:"title"`
	Summary          string   `mapstructure:"summary"`
	Responsibilities []string `mapstructure:"responsibilities"`
	Requirements     []string `mapstructure:"requirements"`
	Benefits         []string `mapstructure:"benefits"`
}

type rawPerformance struct {
	Score        float64  `mapstructure:"score"`
	Strengths    []string `mapstructure:"strengths"`
	Improvements []string `mapstructure:"improvements"`
	Goals        []string `mapstructure:"goals"`
	Summary      string   `mapstructure:"summary"`
}

type rawAnswer struct {
	Answer    string   `mapstructure:"answer"`
	FollowUps []string `mapstructure:"followUps"`
}

// ValidateScreening parses text as a screening result. Scores outside 0-100
// are clamped and lists are cut to MaxListItems. A recommendation outside the
// enum fails validation.
func ValidateScreening(text string) (ScreeningResult, error) {
	var raw rawScreening
	if err := decodeObject(OpScreenResume, text, &raw); err != nil {
		return ScreeningResult{}, err
	}

	recommendation, ok := ParseRecommendation(raw.Recommendation)
	if !ok {
		return ScreeningResult{}, invalid(OpScreenResume, fmt.Sprintf("unknown recommendation %q", raw.Recommendation))
	}

	return ScreeningResult{
		Score:          clampScore(raw.Score),
		Strengths:      cleanList(raw.Strengths, false),
		Weaknesses:     cleanList(raw.Weaknesses, false),
		Recommendation: recommendation,
		Reasoning:      strings.TrimSpace(raw.Reasoning),
		KeySkills:      cleanList(raw.KeySkills, true),
		Provenance:     ProvenanceLive,
	}, nil
}

// ValidateJobDescription parses text as a generated job description.
func ValidateJobDescription(text string) (JobDescription, error) {
	var raw rawJobDescription
	if err := decodeObject(OpGenerateJobDescription, text, &raw); err != nil {
		return JobDescription{}, err
	}

	return JobDescription{
		Title:            strings.TrimSpace(raw.Title),
		Summary:          strings.TrimSpace(raw.Summary),
		Responsibilities: cleanList(raw.Responsibilities, false),
		Requirements:     cleanList(raw.Requirements, false),
		Benefits:         cleanList(raw.Benefits, false),
		Provenance:       ProvenanceLive,
	}, nil
}

// ValidatePerformance parses text as a performance analysis.
func ValidatePerformance(text string) (PerformanceAnalysis, error) {
	var raw rawPerformance
	if err := decodeObject(OpAnalyzePerformance, text, &raw); err != nil {
		return PerformanceAnalysis{}, err
	}

	return PerformanceAnalysis{
		Score:        clampScore(raw.Score),
		Strengths:    cleanList(raw.Strengths, false),
		Improvements: cleanList(raw.Improvements, false),
		Goals:        cleanList(raw.Goals, false),
		Summary:      strings.TrimSpace(raw.Summary),
		Provenance:   ProvenanceLive,
	}, nil
}

// ValidateHRAnswer parses text as an HR answer.
func ValidateHRAnswer(text string) (HRAnswer, error) {
	var raw rawAnswer
	if err := decodeObject(OpHRQuestion, text, &raw); err != nil {
		return HRAnswer{}, err
	}

	return HRAnswer{
		Answer:     strings.TrimSpace(raw.Answer),
		FollowUps:  cleanList(raw.FollowUps, false),
		Provenance: ProvenanceLive,
	}, nil
}

// decodeObject parses text into a JSON object and decodes it into out without
// any type coercion. Null values count as missing.
func decodeObject(op Operation, text string, out any) error {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return invalid(op, fmt.Sprintf("parse json: %v", err))
	}
	if data == nil {
		return invalid(op, "response is not a json object")
	}

	for key, value := range data {
		if value == nil {
			delete(data, key)
		}
	}

	var problems []string
	for _, f := range schemas[op] {
		key, present := lookupKey(data, f.name)
		switch {
		case !present && f.required:
			problems = append(problems, fmt.Sprintf("missing required field %q", f.name))
		case !present && f.list:
			data[f.name] = []any{}
		case !present:
			data[f.name] = ""
		case f.nonEmpty:
			if s, ok := data[key].(string); ok && strings.TrimSpace(s) == "" {
				problems = append(problems, fmt.Sprintf("field %q must not be empty", f.name))
			}
		}
	}
	if len(problems) > 0 {
		return invalid(op, problems...)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		ErrorUnset: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		var merr *mapstructure.Error
		if errors.As(err, &merr) {
			return invalid(op, merr.Errors...)
		}
		return invalid(op, err.Error())
	}

	return nil
}

// lookupKey finds name in data the same way the decoder does: exact first,
// then case-insensitive.
func lookupKey(data map[string]any, name string) (string, bool) {
	if _, ok := data[name]; ok {
		return name, true
	}
	for key := range data {
		if strings.EqualFold(key, name) {
			return key, true
		}
	}
	return "", false
}

func invalid(op Operation, problems ...string) *ValidationError {
	return &ValidationError{Operation: op, Problems: problems}
}

func clampScore(v float64) int {
	v = math.Min(math.Max(v, MinScore), MaxScore)
	return int(math.Round(v))
}

// cleanList trims items, drops blanks and caps the list at MaxListItems.
// With unique set, later case-insensitive duplicates are dropped too.
func cleanList(items []string, unique bool) []string {
	out := make([]string, 0, min(len(items), MaxListItems))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		if len(out) == MaxListItems {
			break
		}
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if unique {
			key := strings.ToLower(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, item)
	}

	return out
}
