package ranking

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"evalconsole/internal/model"
)

// RankModel turns named features into a comparable score
type RankModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}

// LRModel is a logistic regression over named features:
// P = 1 / (1 + exp(-(bias + sum(w_i * x_i))))
type LRModel struct {
	Bias    float64
	Weights map[string]float64
}

// LoadLRModel reads a {"bias": .., "weights": {..}} artifact
func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLRModel(data)
}

func ParseLRModel(data []byte) (*LRModel, error) {
	var raw struct {
		Bias    *float64           `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode lr artifact: %w", err)
	}
	if raw.Bias == nil || len(raw.Weights) == 0 {
		return nil, errors.New("lr artifact needs bias and weights")
	}
	return &LRModel{Bias: *raw.Bias, Weights: raw.Weights}, nil
}

func (m *LRModel) Name() string { return "lr" }

// CheckInputs rejects weights keyed by anything outside inputs
func (m *LRModel) CheckInputs(inputs []string) error {
	known := make(map[string]bool, len(inputs))
	for _, name := range inputs {
		known[name] = true
	}
	var unknown []string
	for name := range m.Weights {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("lr artifact weights %s are not model inputs", strings.Join(unknown, ", "))
	}
	return nil
}

func (m *LRModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	p := 1 / (1 + math.Exp(-score))
	if math.IsNaN(p) {
		return 0, errors.New("lr prediction is NaN")
	}
	return p, nil
}

// ScorePair scores two candidates with a pairwise model trained on A-B
// differences. Each score is the candidate's win probability against the
// other one.
func ScorePair(m RankModel, a, b model.Features) (scoreA, scoreB float64, err error) {
	scoreA, err = m.Predict(PairDiff(a, b))
	if err != nil {
		return 0, 0, err
	}
	scoreB, err = m.Predict(PairDiff(b, a))
	if err != nil {
		return 0, 0, err
	}
	return scoreA, scoreB, nil
}
