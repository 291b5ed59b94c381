package handler

import (
	"net/http"
	"strings"

	"evalconsole/internal/apperr"
	"evalconsole/internal/model"
	"evalconsole/internal/service"
)

// Request-scoped serving overrides
const (
	HeaderServedPolicy = "X-Served-Policy"
	HeaderModelVersion = "X-Model-Version"
)

// AskHandler handles the ask endpoint
type AskHandler struct {
	askSvc *service.AskService
}

// NewAskHandler creates a new ask handler
func NewAskHandler(askSvc *service.AskService) *AskHandler {
	return &AskHandler{askSvc: askSvc}
}

// AskResponse is the served pair
type AskResponse struct {
	QuestionID              string           `json:"question_id"`
	SelectedCandidateID     string           `json:"selected_candidate_id"`
	SelectedAnswerSummary   string           `json:"selected_answer_summary"`
	CandidateAID            string           `json:"candidate_a_id"`
	CandidateBID            string           `json:"candidate_b_id"`
	ServedChoiceCandidateID string           `json:"served_choice_candidate_id"`
	CandidateAAnswer        string           `json:"candidate_a_answer,omitempty"`
	CandidateBAnswer        string           `json:"candidate_b_answer,omitempty"`
	CandidateAProvider      string           `json:"candidate_a_provider,omitempty"`
	CandidateBProvider      string           `json:"candidate_b_provider,omitempty"`
	ServedPolicy            model.PolicyKind `json:"served_policy"`
	ServedModelVersion      string           `json:"served_model_version,omitempty"`
}

// Ask handles POST /api/v1/ask
//
//	@Summary	Generate two candidate answers and serve one
//	@Tags		ask
//	@Accept		json
//	@Produce	json
//	@Param		X-Served-Policy	header		string			false	"rule or ltr"
//	@Param		X-Model-Version	header		string			false	"ltr model version"
//	@Param		body			body		model.Question	true	"question"
//	@Success	200				{object}	AskResponse
//	@Failure	400,422,502		{object}	map[string]string
//	@Router		/ask [post]
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	opts, err := parseAskOptions(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	var q model.Question
	if err := decodeJSON(w, r, &q); err != nil {
		writeAppError(w, err)
		return
	}

	res, err := h.askSvc.Ask(r.Context(), q, opts)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &AskResponse{
		QuestionID:              res.QuestionID,
		SelectedCandidateID:     res.ServedChoiceCandidateID,
		SelectedAnswerSummary:   res.SelectedAnswerSummary,
		CandidateAID:            res.CandidateA.ID,
		CandidateBID:            res.CandidateB.ID,
		ServedChoiceCandidateID: res.ServedChoiceCandidateID,
		CandidateAAnswer:        res.CandidateA.AnswerText,
		CandidateBAnswer:        res.CandidateB.AnswerText,
		CandidateAProvider:      res.CandidateA.Provider,
		CandidateBProvider:      res.CandidateB.Provider,
		ServedPolicy:            res.ServedPolicy,
		ServedModelVersion:      res.ServedModelVersion,
	})
}

func parseAskOptions(r *http.Request) (service.AskOptions, error) {
	var opts service.AskOptions
	if raw := r.Header.Get(HeaderServedPolicy); strings.TrimSpace(raw) != "" {
		kind, ok := model.ParsePolicyKind(raw)
		if !ok {
			return opts, apperr.Validation("%s must be rule or ltr, got %q", HeaderServedPolicy, raw)
		}
		opts.Policy = kind
	}
	opts.ModelVersion = strings.TrimSpace(r.Header.Get(HeaderModelVersion))
	return opts, nil
}
