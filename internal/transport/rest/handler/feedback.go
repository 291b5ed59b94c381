package handler

import (
	"net/http"
	"strings"

	"evalconsole/internal/apperr"
	"evalconsole/internal/model"
	"evalconsole/internal/service"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

// FeedbackHandler handles feedback submission
type FeedbackHandler struct {
	feedbackSvc *service.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackSvc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackSvc: feedbackSvc}
}

// FeedbackResponse carries the stored judgment's id
type FeedbackResponse struct {
	FeedbackID string `json:"feedback_id"`
}

// Record handles POST /api/v1/feedback
//
//	@Summary	Record a human judgment over a served pair
//	@Tags		feedback
//	@Accept		json
//	@Produce	json
//	@Param		Idempotency-Key	header		string				false	"retry key"
//	@Param		body			body		model.FeedbackInput	true	"judgment"
//	@Success	200				{object}	FeedbackResponse
//	@Failure	400,404,409		{object}	map[string]string
//	@Router		/feedback [post]
func (h *FeedbackHandler) Record(w http.ResponseWriter, r *http.Request) {
	var in model.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeAppError(w, err)
		return
	}

	if key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey)); key != "" {
		if body := strings.TrimSpace(in.IdempotencyKey); body != "" && body != key {
			writeAppError(w, apperr.Validation("%s header and idempotency_key field disagree", HeaderIdempotencyKey))
			return
		}
		in.IdempotencyKey = key
	}

	res, err := h.feedbackSvc.Record(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}

	if res.Replayed {
		w.Header().Set(headerReplayed, "true")
	}
	writeJSON(w, http.StatusOK, &FeedbackResponse{FeedbackID: res.FeedbackID})
}
