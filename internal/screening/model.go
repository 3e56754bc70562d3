package screening

import "strings"

// Operation names a prompt-driven task the orchestrator can run.
type Operation string

const (
	OpScreenResume           Operation = "screen_resume"
	OpGenerateJobDescription Operation = "generate_job_description"
	OpAnalyzePerformance     Operation = "analyze_performance"
	OpHRQuestion             Operation = "hr_question"
)

// Operations lists every supported operation.
func Operations() []Operation {
	return []Operation{OpScreenResume, OpGenerateJobDescription, OpAnalyzePerformance, OpHRQuestion}
}

// Provenance tells whether a result came from the live provider or the fallback catalog.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenanceFallback Provenance = "fallback"
)

// Recommendation is the hiring verdict of a screening.
type Recommendation string

const (
	StrongMatch Recommendation = "strong_match"
	GoodMatch   Recommendation = "good_match"
	FairMatch   Recommendation = "fair_match"
	NotSuitable Recommendation = "not_suitable"
)

var recommendations = []Recommendation{StrongMatch, GoodMatch, FairMatch, NotSuitable}

// ParseRecommendation matches s against the enum ignoring case. Spaces and
// hyphens are treated as underscores.
func ParseRecommendation(s string) (Recommendation, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, r := range recommendations {
		if string(r) == normalized {
			return r, true
		}
	}
	return "", false
}

const (
	MinScore = 0
	MaxScore = 100
	// MaxListItems caps every list field of a result.
	MaxListItems = 10
)

// ScreeningInput is a single resume screening request.
type ScreeningInput struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	CandidateName  string `json:"candidateName"`
	// CandidateID appends the result to an existing candidate when set.
	CandidateID string `json:"candidateId,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Validate checks the required inputs without rendering a prompt.
func (in ScreeningInput) Validate() error {
	if err := requireText(OpScreenResume, "resumeText", in.ResumeText); err != nil {
		return err
	}
	return requireText(OpScreenResume, "jobDescription", in.JobDescription)
}

// ScreeningResult is the structured evaluation of one resume against one job.
type ScreeningResult struct {
	Score          int            `json:"score"`
	Strengths      []string       `json:"strengths"`
	Weaknesses     []string       `json:"weaknesses"`
	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`
	KeySkills      []string       `json:"keySkills"`
	Provenance     Provenance     `json:"provenance"`
}

// JobDescriptionInput describes the role to write a job description for.
type JobDescriptionInput struct {
	Title        string   `json:"title"`
	Department   string   `json:"department,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// JobDescription is a generated job posting.
type JobDescription struct {
	Title            string     `json:"title"`
	Summary          string     `json:"summary"`
	Responsibilities []string   `json:"responsibilities"`
	Requirements     []string   `json:"requirements"`
	Benefits         []string   `json:"benefits"`
	Provenance       Provenance `json:"provenance"`
}

// PerformanceInput carries an employee review to analyze.
type PerformanceInput struct {
	EmployeeName string `json:"employeeName"`
	Role         string `json:"role,omitempty"`
	Review       string `json:"review"`
}

// PerformanceAnalysis is the structured reading of a performance review.
type PerformanceAnalysis struct {
	Score        int        `json:"score"`
	Strengths    []string   `json:"strengths"`
	Improvements []string   `json:"improvements"`
	Goals        []string   `json:"goals"`
	Summary      string     `json:"summary"`
	Provenance   Provenance `json:"provenance"`
}

// HRQuestionInput is a free-form HR question.
type HRQuestionInput struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

// HRAnswer answers an HR question.
type HRAnswer struct {
	Answer     string     `json:"answer"`
	FollowUps  []string   `json:"followUps"`
	Provenance Provenance `json:"provenance"`
}
