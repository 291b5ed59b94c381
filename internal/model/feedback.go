package model

import "time"

// Choice is the human's pairwise judgment
type Choice string

const (
	ChoiceA   Choice = "a"
	ChoiceB   Choice = "b"
	ChoiceTie Choice = "tie"
	ChoiceBad Choice = "bad" // both answers unusable
)

func (c Choice) Valid() bool {
	switch c {
	case ChoiceA, ChoiceB, ChoiceTie, ChoiceBad:
		return true
	}
	return false
}

// FeedbackInput is an unvalidated feedback submission
type FeedbackInput struct {
	QuestionID     string   `json:"question_id"`
	CandidateAID   string   `json:"candidate_a_id"`
	CandidateBID   string   `json:"candidate_b_id"`
	UserChoice     Choice   `json:"user_choice"`
	ReasonTags     []string `json:"reason_tags,omitempty"`
	Note           string   `json:"note,omitempty"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

// Feedback is an append-only judgment over one AskRecord
type Feedback struct {
	FeedbackID     string     `json:"feedbackId" bson:"_id"`
	QuestionID     string     `json:"questionId" bson:"questionId"`
	CandidateAID   string     `json:"candidateAId" bson:"candidateAId"`
	CandidateBID   string     `json:"candidateBId" bson:"candidateBId"`
	UserChoice     Choice     `json:"userChoice" bson:"userChoice"`
	ReasonTags     []string   `json:"reasonTags,omitempty" bson:"reasonTags,omitempty"`
	Note           string     `json:"note,omitempty" bson:"note,omitempty"`
	IdempotencyKey string     `json:"idempotencyKey,omitempty" bson:"idempotencyKey,omitempty"`
	ServedPolicy   PolicyKind `json:"servedPolicy" bson:"servedPolicy"` // copied from the ask for training exports
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
}

// FeedbackResult is returned by the recorder. Replayed is true when an
// idempotency key matched an earlier submission.
type FeedbackResult struct {
	FeedbackID string
	Replayed   bool
}
