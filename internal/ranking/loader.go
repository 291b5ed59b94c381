package ranking

import (
	"fmt"
	"path/filepath"
	"sync"

	"evalconsole/internal/model"
)

// ArtifactLoader loads and caches pairwise models per model version.
// Registry entries are immutable, so a version never needs reloading.
type ArtifactLoader struct {
	dir string

	mu     sync.RWMutex
	models map[string]RankModel
}

// NewArtifactLoader resolves relative artifact paths against dir
func NewArtifactLoader(dir string) *ArtifactLoader {
	return &ArtifactLoader{
		dir:    dir,
		models: make(map[string]RankModel),
	}
}

// Load returns the model for rec, reading its artifact on first use
func (l *ArtifactLoader) Load(rec *model.ModelRecord) (RankModel, error) {
	l.mu.RLock()
	m, ok := l.models[rec.ModelVersion]
	l.mu.RUnlock()
	if ok {
		return m, nil
	}

	if !SupportedFeatureVersion(rec.FeatureVersion) {
		return nil, fmt.Errorf("model %s: unsupported feature version %q", rec.ModelVersion, rec.FeatureVersion)
	}
	lr, err := LoadLRModel(l.resolve(rec.ArtifactPath))
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", rec.ModelVersion, err)
	}
	if err := lr.CheckInputs(PairFeatureNames(rec.FeatureVersion)); err != nil {
		return nil, fmt.Errorf("model %s: %w", rec.ModelVersion, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.models[rec.ModelVersion]; ok {
		return existing, nil
	}
	l.models[rec.ModelVersion] = lr
	return lr, nil
}

// Cached reports whether a version has been loaded
func (l *ArtifactLoader) Cached(version string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.models[version]
	return ok
}

func (l *ArtifactLoader) resolve(path string) string {
	if filepath.IsAbs(path) || l.dir == "" {
		return path
	}
	return filepath.Join(l.dir, path)
}
