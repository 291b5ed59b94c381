package model

import "time"

// Role is the asker's job role
type Role string

const (
	RolePlanner  Role = "planner"
	RoleDesigner Role = "designer"
	RoleDev      Role = "dev"
	RoleTester   Role = "tester"
	RoleOther    Role = "other"
)

func (r Role) Valid() bool {
	switch r {
	case RolePlanner, RoleDesigner, RoleDev, RoleTester, RoleOther:
		return true
	}
	return false
}

// Level is the asker's self-reported experience
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Goal is what the asker wants out of the answer
type Goal string

const (
	GoalConcept    Goal = "concept"
	GoalPractice   Goal = "practice"
	GoalAssignment Goal = "assignment"
	GoalInterview  Goal = "interview"
	GoalOther      Goal = "other"
)

func (g Goal) Valid() bool {
	switch g {
	case GoalConcept, GoalPractice, GoalAssignment, GoalInterview, GoalOther:
		return true
	}
	return false
}

type UserContext struct {
	Role  Role  `json:"role" bson:"role"`
	Level Level `json:"level" bson:"level"`
}

type TaskContext struct {
	Goal        Goal   `json:"goal" bson:"goal"`
	Stack       string `json:"stack,omitempty" bson:"stack,omitempty"`
	Constraints string `json:"constraints,omitempty" bson:"constraints,omitempty"`
}

// Question is the validated input of one ask interaction
type Question struct {
	User    UserContext `json:"user"`
	Context TaskContext `json:"context"`
	Text    string      `json:"question"`
	Domain  string      `json:"domain"`
}

// Features are the static signals extracted from a candidate answer
type Features struct {
	Version    string `json:"featureVersion" bson:"featureVersion"`
	LenChars   int    `json:"lenChars" bson:"lenChars"`
	LenWords   int    `json:"lenWords" bson:"lenWords"`
	HasCode    bool   `json:"hasCode" bson:"hasCode"`
	StepScore  int    `json:"stepScore" bson:"stepScore"`
	HasBullets bool   `json:"hasBullets" bson:"hasBullets"`
	HasWarning bool   `json:"hasWarning" bson:"hasWarning"`
}

// Candidate is one generated answer, tagged with the provider that produced it
type Candidate struct {
	ID         string   `json:"candidateId" bson:"candidateId"`
	Provider   string   `json:"provider" bson:"provider"`
	Model      string   `json:"model" bson:"model"`
	AnswerText string   `json:"answerText" bson:"answerText"`
	AnswerHash string   `json:"answerHash" bson:"answerHash"`
	LatencyMS  int64    `json:"latencyMs" bson:"latencyMs"`
	TokensIn   int64    `json:"tokensIn,omitempty" bson:"tokensIn,omitempty"`
	TokensOut  int64    `json:"tokensOut,omitempty" bson:"tokensOut,omitempty"`
	Features   Features `json:"features" bson:"features"`
}

// AskRecord is the append-only outcome of one ask interaction. It is written
// once, in a single insert, and never updated.
type AskRecord struct {
	QuestionID       string      `json:"questionId" bson:"_id"`
	User             UserContext `json:"user" bson:"user"`
	Context          TaskContext `json:"context" bson:"context"`
	QuestionText     string      `json:"questionText" bson:"questionText"`
	QuestionTextHash string      `json:"questionTextHash" bson:"questionTextHash"`
	Domain           string      `json:"domain" bson:"domain"`

	CandidateA Candidate `json:"candidateA" bson:"candidateA"`
	CandidateB Candidate `json:"candidateB" bson:"candidateB"`

	ServedPolicy            PolicyKind `json:"servedPolicy" bson:"servedPolicy"`
	ServedModelVersion      string     `json:"servedModelVersion,omitempty" bson:"servedModelVersion,omitempty"`
	ServedChoiceCandidateID string     `json:"servedChoiceCandidateId" bson:"servedChoiceCandidateId"`
	FeatureVersion          string     `json:"featureVersion" bson:"featureVersion"`

	// Audit: what the rule arm would have served, and the ltr arm's pick when it ran.
	RuleChoiceCandidateID string `json:"ruleChoiceCandidateId" bson:"ruleChoiceCandidateId"`
	LTRChoiceCandidateID  string `json:"ltrChoiceCandidateId,omitempty" bson:"ltrChoiceCandidateId,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// ServedCandidate returns the candidate the policy recommended
func (r *AskRecord) ServedCandidate() *Candidate {
	if r.ServedChoiceCandidateID == r.CandidateB.ID {
		return &r.CandidateB
	}
	return &r.CandidateA
}

// CandidateByID returns the candidate with the given id, or nil
func (r *AskRecord) CandidateByID(id string) *Candidate {
	switch id {
	case r.CandidateA.ID:
		return &r.CandidateA
	case r.CandidateB.ID:
		return &r.CandidateB
	}
	return nil
}

// AskResult is what the orchestrator hands back to the transport
type AskResult struct {
	QuestionID              string
	CandidateA              Candidate
	CandidateB              Candidate
	ServedChoiceCandidateID string
	ServedPolicy            PolicyKind
	ServedModelVersion      string
	SelectedAnswerSummary   string
}
