package screening

import (
	"embed"
	"fmt"
	"strings"

	"github.com/spigell/cv-screener/internal/textutil"
)

// DefaultMaxInputRunes bounds every input embedded into a prompt.
const DefaultMaxInputRunes = 20000

const emptyOptional = "none"

//go:embed prompts/*.md
var promptFS embed.FS

// Inputs maps template placeholders to their values.
type Inputs map[string]string

type promptSpec struct {
	file     string
	required []string
	optional []string
}

var promptSpecs = map[Operation]promptSpec{
	OpScreenResume: {
		file:     "prompts/screen_resume.md",
		required: []string{"RESUME", "JOB_DESCRIPTION"},
		optional: []string{"CANDIDATE_NAME"},
	},
	OpGenerateJobDescription: {
		file:     "prompts/generate_job_description.md",
		required: []string{"TITLE"},
		optional: []string{"DEPARTMENT", "REQUIREMENTS", "NOTES"},
	},
	OpAnalyzePerformance: {
		file:     "prompts/analyze_performance.md",
		required: []string{"EMPLOYEE_NAME", "REVIEW"},
		optional: []string{"ROLE"},
	},
	OpHRQuestion: {
		file:     "prompts/hr_question.md",
		required: []string{"QUESTION"},
		optional: []string{"CONTEXT"},
	},
}

// inputFields names required placeholders the way callers know them.
var inputFields = map[string]string{
	"RESUME":          "resumeText",
	"JOB_DESCRIPTION": "jobDescription",
	"TITLE":           "title",
	"EMPLOYEE_NAME":   "employeeName",
	"REVIEW":          "review",
	"QUESTION":        "question",
}

// PromptEngine renders operation prompts from embedded templates.
type PromptEngine struct {
	templates     map[Operation]string
	maxInputRunes int
}

// NewPromptEngine loads the embedded templates. A non-positive maxInputRunes
// selects DefaultMaxInputRunes.
func NewPromptEngine(maxInputRunes int) (*PromptEngine, error) {
	if maxInputRunes <= 0 {
		maxInputRunes = DefaultMaxInputRunes
	}

	templates := make(map[Operation]string, len(promptSpecs))
	for op, spec := range promptSpecs {
		data, err := promptFS.ReadFile(spec.file)
		if err != nil {
			return nil, fmt.Errorf("read %s template: %w", op, err)
		}
		templates[op] = strings.TrimSpace(string(data))
	}

	return &PromptEngine{templates: templates, maxInputRunes: maxInputRunes}, nil
}

// MustPromptEngine is NewPromptEngine that panics on a broken build.
func MustPromptEngine(maxInputRunes int) *PromptEngine {
	engine, err := NewPromptEngine(maxInputRunes)
	if err != nil {
		panic(err)
	}
	return engine
}

// Render builds the prompt for op. Required inputs that are empty after
// trimming yield a *CallerInputError. Inputs longer than the configured
// maximum are cut from the end.
func (e *PromptEngine) Render(op Operation, in Inputs) (string, error) {
	spec, ok := promptSpecs[op]
	if !ok {
		return "", fmt.Errorf("unknown operation %q", op)
	}
	template := e.templates[op]

	pairs := make([]string, 0, 2*(len(spec.required)+len(spec.optional)))
	for _, key := range spec.required {
		value := in[key]
		if err := requireText(op, inputFields[key], value); err != nil {
			return "", err
		}
		pairs = append(pairs, placeholder(key), e.limit(value))
	}
	for _, key := range spec.optional {
		value := in[key]
		if strings.TrimSpace(value) == "" {
			value = emptyOptional
		}
		pairs = append(pairs, placeholder(key), e.limit(value))
	}

	// A single pass keeps placeholders inside user text untouched.
	body := strings.NewReplacer(pairs...).Replace(template)

	return body + "\n\n" + responseContract(op), nil
}

func (e *PromptEngine) limit(value string) string {
	out, _ := textutil.TruncateTail(value, e.maxInputRunes)
	return out
}

func placeholder(key string) string { return "{{" + key + "}}" }

func responseContract(op Operation) string {
	var b strings.Builder
	b.WriteString("[Response format]\n")
	b.WriteString("Respond with exactly one JSON object and nothing else. ")
	b.WriteString("Do not add any prose before or after it and do not wrap it in code fences.\n")
	b.WriteString("The object must contain these fields:\n")
	for _, f := range schemas[op] {
		presence := "required"
		if !f.required {
			presence = "optional"
		}
		fmt.Fprintf(&b, "- %q (%s, %s): %s\n", f.name, f.kind, presence, f.doc)
	}
	b.WriteString("Return only the JSON object.")
	return b.String()
}

// Inputs returns the template inputs for a screening request.
func (in ScreeningInput) Inputs() Inputs {
	return Inputs{
		"RESUME":          in.ResumeText,
		"JOB_DESCRIPTION": in.JobDescription,
		"CANDIDATE_NAME":  textutil.SingleLine(in.CandidateName),
	}
}

// Inputs returns the template inputs for a job description request.
func (in JobDescriptionInput) Inputs() Inputs {
	requirements := make([]string, 0, len(in.Requirements))
	for _, r := range in.Requirements {
		if r = textutil.SingleLine(r); r != "" {
			requirements = append(requirements, "- "+r)
		}
	}
	return Inputs{
		"TITLE":        textutil.SingleLine(in.Title),
		"DEPARTMENT":   textutil.SingleLine(in.Department),
		"REQUIREMENTS": strings.Join(requirements, "\n"),
		"NOTES":        in.Notes,
	}
}

// Inputs returns the template inputs for a performance analysis request.
func (in PerformanceInput) Inputs() Inputs {
	return Inputs{
		"EMPLOYEE_NAME": textutil.SingleLine(in.EmployeeName),
		"ROLE":          textutil.SingleLine(in.Role),
		"REVIEW":        in.Review,
	}
}

// Inputs returns the template inputs for an HR question.
func (in HRQuestionInput) Inputs() Inputs {
	return Inputs{
		"QUESTION": in.Question,
		"CONTEXT":  in.Context,
	}
}
