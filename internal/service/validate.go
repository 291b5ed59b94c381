package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"evalconsole/internal/apperr"
	"evalconsole/internal/model"
)

const (
	maxQuestionChars    = 8000
	maxDomainChars      = 50
	maxStackChars       = 200
	maxConstraintsChars = 500

	maxReasonTags       = 20
	maxReasonTagChars   = 64
	maxNoteChars        = 4000
	maxIdempotencyChars = 128
)

// NormalizeQuestion trims free text fields and validates the enums and
// bounds of an ask request
func NormalizeQuestion(q model.Question) (model.Question, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.Domain = strings.TrimSpace(q.Domain)
	q.Context.Stack = strings.TrimSpace(q.Context.Stack)
	q.Context.Constraints = strings.TrimSpace(q.Context.Constraints)

	if !q.User.Role.Valid() {
		return q, apperr.Validation("user.role must be one of planner, designer, dev, tester, other; got %q", q.User.Role)
	}
	if !q.User.Level.Valid() {
		return q, apperr.Validation("user.level must be one of beginner, intermediate, advanced; got %q", q.User.Level)
	}
	if !q.Context.Goal.Valid() {
		return q, apperr.Validation("context.goal must be one of concept, practice, assignment, interview, other; got %q", q.Context.Goal)
	}
	if q.Text == "" {
		return q, apperr.Validation("question must not be empty")
	}
	if utf8.RuneCountInString(q.Text) > maxQuestionChars {
		return q, apperr.Validation("question must be at most %d characters", maxQuestionChars)
	}
	if q.Domain == "" {
		return q, apperr.Validation("domain must not be empty")
	}
	if utf8.RuneCountInString(q.Domain) > maxDomainChars {
		return q, apperr.Validation("domain must be at most %d characters", maxDomainChars)
	}
	if utf8.RuneCountInString(q.Context.Stack) > maxStackChars {
		return q, apperr.Validation("context.stack must be at most %d characters", maxStackChars)
	}
	if utf8.RuneCountInString(q.Context.Constraints) > maxConstraintsChars {
		return q, apperr.Validation("context.constraints must be at most %d characters", maxConstraintsChars)
	}
	return q, nil
}

// SanitizeReasonTags normalizes whitespace, drops control characters and
// empty tags, and dedupes keeping first occurrence order
func SanitizeReasonTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := sanitizeText(raw)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > maxReasonTagChars {
			return nil, apperr.Validation("reason tag %q exceeds %d characters", truncate(tag, 16)+"...", maxReasonTagChars)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxReasonTags {
		return nil, apperr.Validation("at most %d distinct reason tags are allowed", maxReasonTags)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// sanitizeText strips control characters and collapses whitespace runs
func sanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
