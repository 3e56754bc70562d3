package screening

import "slices"

// Catalog holds the deterministic results used whenever the live path fails.
// The zero value is not usable; build one with NewCatalog. Accessors return
// copies, so callers can never modify the stored entries.
type Catalog struct {
	screening      ScreeningResult
	jobDescription JobDescription
	performance    PerformanceAnalysis
	answer         HRAnswer
}

// NewCatalog returns the built-in fallback catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		screening: ScreeningResult{
			Score: 50,
			Strengths: []string{
				"Resume received and queued for manual review",
			},
			Weaknesses: []string{
				"Automated screening was unavailable; skills were not verified",
			},
			Recommendation: FairMatch,
			Reasoning:      "The automated evaluation could not be completed, so a neutral score was assigned. A recruiter should review this resume manually.",
			KeySkills:      []string{},
			Provenance:     ProvenanceFallback,
		},
		jobDescription: JobDescription{
			Title:   "Open position",
			Summary: "We are looking for a motivated professional to join our team. The full description will be published after review by the hiring manager.",
			Responsibilities: []string{
				"Deliver on the core objectives of the role",
				"Collaborate with colleagues across teams",
			},
			Requirements: []string{
				"Relevant professional experience",
				"Strong communication skills",
			},
			Benefits:   []string{"Competitive compensation"},
			Provenance: ProvenanceFallback,
		},
		performance: PerformanceAnalysis{
			Score:        50,
			Strengths:    []string{},
			Improvements: []string{},
			Goals:        []string{"Schedule a follow-up review with the manager"},
			Summary:      "The automated analysis could not be completed. The review should be assessed manually.",
			Provenance:   ProvenanceFallback,
		},
		answer: HRAnswer{
			Answer:     "The HR assistant is temporarily unavailable. Please contact the HR team directly for an answer to this question.",
			FollowUps:  []string{},
			Provenance: ProvenanceFallback,
		},
	}
}

// Screening returns the fallback for OpScreenResume.
func (c *Catalog) Screening() ScreeningResult {
	r := c.screening
	r.Strengths = slices.Clone(r.Strengths)
	r.Weaknesses = slices.Clone(r.Weaknesses)
	r.KeySkills = slices.Clone(r.KeySkills)
	return r
}

// JobDescription returns the fallback for OpGenerateJobDescription.
func (c *Catalog) JobDescription() JobDescription {
	r := c.jobDescription
	r.Responsibilities = slices.Clone(r.Responsibilities)
	r.Requirements = slices.Clone(r.Requirements)
	r.Benefits = slices.Clone(r.Benefits)
	return r
}

// Performance returns the fallback for OpAnalyzePerformance.
func (c *Catalog) Performance() PerformanceAnalysis {
	r := c.performance
	r.Strengths = slices.Clone(r.Strengths)
	r.Improvements = slices.Clone(r.Improvements)
	r.Goals = slices.Clone(r.Goals)
	return r
}

// Answer returns the fallback for OpHRQuestion.
func (c *Catalog) Answer() HRAnswer {
	r := c.answer
	r.FollowUps = slices.Clone(r.FollowUps)
	return r
}
