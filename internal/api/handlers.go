package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/ranking"
	"github.com/spigell/cv-screener/internal/screening"
)

type screenRequest struct {
	ResumeText     string `json:"resumeText" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required"`
	CandidateName  string `json:"candidateName" validate:"max=200"`
	CandidateID    string `json:"candidateId" validate:"omitempty,uuid"`
	Email          string `json:"email" validate:"omitempty,email"`
}

func (req screenRequest) input() screening.ScreeningInput {
	return screening.ScreeningInput{
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		CandidateName:  req.CandidateName,
		CandidateID:    req.CandidateID,
		Email:          req.Email,
	}
}

type batchItem struct {
	ResumeText    string `json:"resumeText" validate:"required"`
	CandidateName string `json:"candidateName" validate:"max=200"`
	CandidateID   string `json:"candidateId" validate:"omitempty,uuid"`
	Email         string `json:"email" validate:"omitempty,email"`
}

type batchRequest struct {
	JobDescription string      `json:"jobDescription" validate:"required"`
	Candidates     []batchItem `json:"candidates" validate:"required,min=1,max=100,dive"`
}

type batchResponse struct {
	Outcomes []pipeline.Outcome `json:"outcomes"`
	Ranking  ranking.Ranking    `json:"ranking"`
	Failures []batchFailure     `json:"failures,omitempty"`
}

// batchFailure names an input whose result could not be stored.
type batchFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type jobDescriptionRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Department   string   `json:"department" validate:"max=200"`
	Requirements []string `json:"requirements" validate:"max=20,dive,max=500"`
	Notes        string   `json:"notes"`
}

type performanceRequest struct {
	EmployeeName string `json:"employeeName" validate:"required,max=200"`
	Role         string `json:"role" validate:"max=200"`
	Review       string `json:"review" validate:"required"`
}

type askRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
	Context  string `json:"context"`
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req screenRequest
	if !s.decode(w, r, &req) {
		return
	}

	outcome, err := s.screener.ScreenResume(r.Context(), req.input())
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decode(w, r, &req) {
		return
	}

	inputs := make([]screening.ScreeningInput, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		inputs = append(inputs, screening.ScreeningInput{
			ResumeText:     c.ResumeText,
			JobDescription: req.JobDescription,
			CandidateName:  c.CandidateName,
			CandidateID:    c.CandidateID,
			Email:          c.Email,
		})
	}

	outcomes, err := s.screener.ScreenBatch(r.Context(), inputs)
	items := pipeline.ItemErrors(err)
	if err != nil && len(items) == 0 {
		s.writeError(w, r, err, nil)
		return
	}
	failures := make([]batchFailure, 0, len(items))
	for _, item := range items {
		failures = append(failures, batchFailure{Index: item.Index, Error: item.Err.Error()})
	}

	entries := make([]ranking.Entry, 0, len(outcomes))
	for _, o := range outcomes {
		entries = append(entries, ranking.Entry{CandidateID: o.Candidate.ID, Name: o.Candidate.Name, Result: o.Result})
	}
	writeJSON(w, http.StatusOK, batchResponse{Outcomes: outcomes, Ranking: ranking.Rank(entries), Failures: failures})
}

func (s *Server) handleJobDescription(w http.ResponseWriter, r *http.Request) {
	var req jobDescriptionRequest
	if !s.decode(w, r, &req) {
		return
	}

	jd, err := s.assistant.GenerateJobDescription(r.Context(), screening.JobDescriptionInput{
		Title:        req.Title,
		Department:   req.Department,
		Requirements: req.Requirements,
		Notes:        req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, jd)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	var req performanceRequest
	if !s.decode(w, r, &req) {
		return
	}

	analysis, err := s.assistant.AnalyzePerformance(r.Context(), screening.PerformanceInput{
		EmployeeName: req.EmployeeName,
		Role:         req.Role,
		Review:       req.Review,
	})
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !s.decode(w, r, &req) {
		return
	}

	answer, err := s.assistant.AskHR(r.Context(), screening.HRQuestionInput{Question: req.Question, Context: req.Context})
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	list, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": list, "total": len(list)})
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	// The limit applies to the ranking, not to the stored order.
	limit := filter.Limit
	filter.Limit = 0

	list, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	ranked := ranking.Rank(ranking.FromCandidates(list))
	if limit > 0 && len(ranked.Items) > limit {
		ranked.Items = ranked.Items[:limit]
	}
	writeJSON(w, http.StatusOK, ranked)
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid json", errInvalidArgument), nil)
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		details := map[string]string{}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				details[fe.Namespace()] = fe.Tag()
			}
		}
		s.writeError(w, r, fmt.Errorf("%w: validation failed", errInvalidArgument), details)
		return false
	}

	return true
}

func parseFilter(r *http.Request) (candidates.Filter, error) {
	q := r.URL.Query()
	f := candidates.Filter{Query: strings.TrimSpace(q.Get("query"))}

	for key, dst := range map[string]*int{"minScore": &f.MinScore, "limit": &f.Limit} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return candidates.Filter{}, fmt.Errorf("%w: %s must be a non-negative integer", errInvalidArgument, key)
		}
		*dst = v
	}

	return f, nil
}
