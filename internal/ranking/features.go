package ranking

import (
	"strings"
	"unicode/utf8"

	"evalconsole/internal/model"
)

// FeatureVersionV1 identifies the fv1 extractor and the models trained on it
const FeatureVersionV1 = "fv1"

// CurrentFeatureVersion is stamped on every candidate at serve time
const CurrentFeatureVersion = FeatureVersionV1

// SupportedFeatureVersion reports whether a registered model's feature
// version can be computed by this build
func SupportedFeatureVersion(v string) bool {
	return v == FeatureVersionV1
}

// Extract computes the fv1 features of an answer. It only inspects the text.
func Extract(answer string) model.Features {
	lower := strings.ToLower(answer)
	f := model.Features{
		Version:    FeatureVersionV1,
		LenChars:   utf8.RuneCountInString(answer),
		LenWords:   len(strings.Fields(answer)),
		HasCode:    strings.Contains(answer, "```"),
		HasBullets: strings.Contains(answer, "\n-") || strings.Contains(answer, "\n*") || strings.Contains(answer, "\n•"),
		HasWarning: strings.Contains(lower, "warning") || strings.Contains(answer, "주의"),
	}
	if hasStepMarker(answer) {
		f.StepScore = 1
	}
	return f
}

func hasStepMarker(answer string) bool {
	return strings.Contains(answer, "Step") || strings.Contains(answer, "단계")
}

// Vector flattens features into the named inputs used by scoring models and
// rule expressions
func Vector(f model.Features) map[string]float64 {
	return map[string]float64{
		"len_chars":   float64(f.LenChars),
		"len_words":   float64(f.LenWords),
		"has_code":    boolFloat(f.HasCode),
		"step_score":  float64(f.StepScore),
		"has_bullets": boolFloat(f.HasBullets),
		"has_warning": boolFloat(f.HasWarning),
	}
}

// pairFeatures are the fv1 inputs of the pairwise model, in training order
var pairFeatures = []string{"len_words", "has_code", "step_score", "has_bullets", "has_warning"}

// PairFeatureNames lists the model inputs produced by PairDiff for a feature
// version, or nil when the version is unsupported
func PairFeatureNames(version string) []string {
	if !SupportedFeatureVersion(version) {
		return nil
	}
	names := make([]string, len(pairFeatures))
	for i, name := range pairFeatures {
		names[i] = name + "_diff"
	}
	return names
}

// PairDiff returns the A minus B feature differences keyed "<name>_diff"
func PairDiff(a, b model.Features) map[string]float64 {
	va, vb := Vector(a), Vector(b)
	diff := make(map[string]float64, len(pairFeatures))
	for _, name := range pairFeatures {
		diff[name+"_diff"] = va[name] - vb[name]
	}
	return diff
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
