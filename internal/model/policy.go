package model

import "strings"

// PolicyKind names a serving arm of the experiment
type PolicyKind string

const (
	PolicyRule PolicyKind = "rule"
	PolicyLTR  PolicyKind = "ltr"
)

// ServingPolicy is a closed set: RulePolicy or LTRPolicy. Consumers switch on
// the concrete type.
type ServingPolicy interface {
	Kind() PolicyKind
	sealed()
}

// RulePolicy serves by the deterministic heuristic scorer
type RulePolicy struct{}

func (RulePolicy) Kind() PolicyKind { return PolicyRule }
func (RulePolicy) sealed()          {}

// LTRPolicy serves by a trained ranking model. An empty ModelVersion means the
// latest registered model.
type LTRPolicy struct {
	ModelVersion string
}

func (LTRPolicy) Kind() PolicyKind { return PolicyLTR }
func (LTRPolicy) sealed()          {}

// ParsePolicyKind accepts "rule" or "ltr", case-insensitively
func ParsePolicyKind(s string) (PolicyKind, bool) {
	switch PolicyKind(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyRule:
		return PolicyRule, true
	case PolicyLTR:
		return PolicyLTR, true
	}
	return "", false
}

// NewServingPolicy builds the policy variant for a kind
func NewServingPolicy(kind PolicyKind, modelVersion string) ServingPolicy {
	if kind == PolicyLTR {
		return LTRPolicy{ModelVersion: strings.TrimSpace(modelVersion)}
	}
	return RulePolicy{}
}
