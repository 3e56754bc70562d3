package screening

// field documents one key of an operation's JSON response.
type field struct {
	name     string
	kind     string
	doc      string
	required bool
	// nonEmpty rejects blank strings for required text fields.
	nonEmpty bool
	list     bool
}

var schemas = map[Operation][]field{
	OpScreenResume: {
		{name: "score", kind: "integer 0-100", doc: "overall match between the resume and the job", required: true},
		{name: "strengths", kind: "array of strings", doc: "up to 10 concrete strengths", required: true, list: true},
		{name: "weaknesses", kind: "array of strings", doc: "up to 10 gaps or concerns", required: true, list: true},
		{name: "recommendation", kind: "string", doc: "one of strong_match, good_match, fair_match, not_suitable", required: true},
		{name: "reasoning", kind: "string", doc: "two or three sentences explaining the score", required: true},
		{name: "keySkills", kind: "array of strings", doc: "up to 10 skills from the resume relevant to the job", list: true},
	},
	OpGenerateJobDescription: {
		{name: "title", kind: "string", doc: "job title", required: true, nonEmpty: true},
		{name: "summary", kind: "string", doc: "short role summary", required: true, nonEmpty: true},
		{name: "responsibilities", kind: "array of strings", doc: "up to 10 responsibilities", required: true, list: true},
		{name: "requirements", kind: "array of strings", doc: "up to 10 requirements", required: true, list: true},
		{name: "benefits", kind: "array of strings", doc: "up to 10 benefits", list: true},
	},
	OpAnalyzePerformance: {
		{name: "score", kind: "integer 0-100", doc: "overall performance rating", required: true},
		{name: "strengths", kind: "array of strings", doc: "up to 10 strengths", required: true, list: true},
		{name: "improvements", kind: "array of strings", doc: "up to 10 areas for improvement", required: true, list: true},
		{name: "goals", kind: "array of strings", doc: "up to 10 measurable goals", list: true},
		{name: "summary", kind: "string", doc: "short overall summary", required: true},
	},
	OpHRQuestion: {
		{name: "answer", kind: "string", doc: "the answer", required: true, nonEmpty: true},
		{name: "followUps", kind: "array of strings", doc: "up to 10 follow-up questions or actions", list: true},
	},
}
