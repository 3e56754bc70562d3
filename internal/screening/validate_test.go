package screening

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidateScreeningNormalizes(t *testing.T) {
	strengths := make([]string, 0, 12)
	for i := range 12 {
		strengths = append(strengths, fmt.Sprintf(`"s%d"`, i))
	}

	text := `{
		"score": 72.6,
		"strengths": [` + strings.Join(strengths, ",") + `],
		"weaknesses": ["  no Kubernetes  ", ""],
		"recommendation": "Good Match",
		"reasoning": " Solid backend experience. ",
		"keySkills": ["Go", "go", "SQL"]
	}`

	got, err := ValidateScreening(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Score != 73 {
		t.Fatalf("expected rounded score 73, got %d", got.Score)
	}
	if len(got.Strengths) != MaxListItems {
		t.Fatalf("expected strengths capped at %d, got %d", MaxListItems, len(got.Strengths))
	}
	if len(got.Weaknesses) != 1 || got.Weaknesses[0] != "no Kubernetes" {
		t.Fatalf("unexpected weaknesses: %q", got.Weaknesses)
	}
	if got.Recommendation != GoodMatch {
		t.Fatalf("expected good_match, got %q", got.Recommendation)
	}
	if got.Reasoning != "Solid backend experience." {
		t.Fatalf("unexpected reasoning: %q", got.Reasoning)
	}
	if len(got.KeySkills) != 2 || got.KeySkills[0] != "Go" || got.KeySkills[1] != "SQL" {
		t.Fatalf("unexpected key skills: %q", got.KeySkills)
	}
	if got.Provenance != ProvenanceLive {
		t.Fatalf("expected live provenance, got %q", got.Provenance)
	}
}

func TestValidateScreeningClampsScore(t *testing.T) {
	cases := map[string]int{
		"105": 100,
		"-3":  0,
		"0":   0,
		"100": 100,
	}

	for raw, want := range cases {
		text := fmt.Sprintf(`{"score": %s, "strengths": [], "weaknesses": [], "recommendation": "fair_match", "reasoning": "r"}`, raw)
		got, err := ValidateScreening(text)
		if err != nil {
			t.Fatalf("score %s: unexpected error: %v", raw, err)
		}
		if got.Score != want {
			t.Fatalf("score %s: expected %d, got %d", raw, want, got.Score)
		}
	}
}

func TestValidateScreeningOptionalKeySkills(t *testing.T) {
	for _, keySkills := range []string{``, `, "keySkills": null`} {
		text := `{"score": 40, "strengths": ["a"], "weaknesses": ["b"], "recommendation": "not_suitable", "reasoning": "r"` + keySkills + `}`

		got, err := ValidateScreening(text)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.KeySkills == nil || len(got.KeySkills) != 0 {
			t.Fatalf("expected empty key skills, got %#v", got.KeySkills)
		}
	}
}

func TestValidateScreeningRejects(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"score": 80,}`,
		"missing score":   `{"strengths": [], "weaknesses": [], "recommendation": "fair_match", "reasoning": "r"}`,
		"null score":      `{"score": null, "strengths": [], "weaknesses": [], "recommendation": "fair_match", "reasoning": "r"}`,
		"string score":    `{"score": "85", "strengths": [], "weaknesses": [], "recommendation": "fair_match", "reasoning": "r"}`,
		"bad list":        `{"score": 85, "strengths": "many", "weaknesses": [], "recommendation": "fair_match", "reasoning": "r"}`,
		"mixed list":      `{"score": 85, "strengths": ["a", 2], "weaknesses": [], "recommendation": "fair_match", "reasoning": "r"}`,
		"bad enum":        `{"score": 85, "strengths": [], "weaknesses": [], "recommendation": "maybe", "reasoning": "r"}`,
		"missing reason":  `{"score": 85, "strengths": [], "weaknesses": [], "recommendation": "fair_match"}`,
		"array not obj":   `[1, 2]`,
		"null not object": `null`,
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateScreening(text)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			if verr.Operation != OpScreenResume {
				t.Fatalf("unexpected operation %q", verr.Operation)
			}
		})
	}
}

func TestValidateJobDescription(t *testing.T) {
	got, err := ValidateJobDescription(`{"title": "Go Engineer", "summary": "Build services", "responsibilities": ["ship"], "requirements": ["Go"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Go Engineer" || got.Benefits == nil || len(got.Benefits) != 0 {
		t.Fatalf("unexpected job description: %+v", got)
	}

	if _, err := ValidateJobDescription(`{"title": "  ", "summary": "s", "responsibilities": [], "requirements": []}`); err == nil {
		t.Fatalf("expected blank title to be rejected")
	}
}

func TestValidatePerformance(t *testing.T) {
	got, err := ValidatePerformance(`{"score": 140, "strengths": ["ownership"], "improvements": ["delegation"], "summary": "Strong year"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != MaxScore || len(got.Goals) != 0 || got.Summary != "Strong year" {
		t.Fatalf("unexpected analysis: %+v", got)
	}

	if _, err := ValidatePerformance(`{"score": 50, "strengths": [], "summary": "s"}`); err == nil {
		t.Fatalf("expected missing improvements to be rejected")
	}
}

func TestValidateHRAnswer(t *testing.T) {
	got, err := ValidateHRAnswer(`{"Answer": "Twenty days.", "followUps": ["Check your contract"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Answer != "Twenty days." || len(got.FollowUps) != 1 {
		t.Fatalf("unexpected answer: %+v", got)
	}

	if _, err := ValidateHRAnswer(`{"answer": ""}`); err == nil {
		t.Fatalf("expected empty answer to be rejected")
	}
}

func TestParseRecommendation(t *testing.T) {
	cases := map[string]Recommendation{
		"strong_match":  StrongMatch,
		" STRONG MATCH": StrongMatch,
		"good-match":    GoodMatch,
		"Fair_Match":    FairMatch,
		"not suitable":  NotSuitable,
	}
	for in, want := range cases {
		got, ok := ParseRecommendation(in)
		if !ok || got != want {
			t.Fatalf("%q: expected %q, got %q (ok=%v)", in, want, got, ok)
		}
	}

	if _, ok := ParseRecommendation("hire"); ok {
		t.Fatalf("expected unknown recommendation to be rejected")
	}
}
