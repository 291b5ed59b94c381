package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"evalconsole/internal/apperr"
	"evalconsole/internal/logger"
	"evalconsole/internal/model"
	"evalconsole/internal/ranking"
	"evalconsole/internal/repository"
)

// RegistryService exposes the model registry. The server only reads it;
// Register is the training pipeline's write path, used by the seed tool.
type RegistryService struct {
	repo repository.ModelRepository
	log  *logger.Logger
	now  func() time.Time
}

func NewRegistryService(repo repository.ModelRepository, log *logger.Logger) *RegistryService {
	return &RegistryService{
		repo: repo,
		log:  log.With("service", "RegistryService"),
		now:  time.Now,
	}
}

// List returns every entry, newest trained_at first
func (s *RegistryService) List(ctx context.Context) ([]*model.ModelRecord, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list models")
	}
	if recs == nil {
		recs = []*model.ModelRecord{}
	}
	return recs, nil
}

// ResolveLatest returns the most recently trained entry
func (s *RegistryService) ResolveLatest(ctx context.Context) (*model.ModelRecord, error) {
	rec, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to read model registry")
	}
	if rec == nil {
		return nil, apperr.NotFound("no model is registered")
	}
	return rec, nil
}

// Resolve returns the entry for version
func (s *RegistryService) Resolve(ctx context.Context, version string) (*model.ModelRecord, error) {
	rec, err := s.repo.GetByVersion(ctx, version)
	if err != nil {
		return nil, apperr.Internal(err, "failed to read model registry")
	}
	if rec == nil {
		return nil, apperr.NotFound("model version %q is not registered", version)
	}
	return rec, nil
}

// Register inserts a new entry. Entries are immutable, so re-registering a
// version is a conflict.
func (s *RegistryService) Register(ctx context.Context, rec *model.ModelRecord) error {
	rec.ModelVersion = strings.TrimSpace(rec.ModelVersion)
	if rec.ModelVersion == "" {
		return apperr.Validation("model_version is required")
	}
	if rec.ArtifactPath == "" {
		return apperr.Validation("artifact_path is required")
	}
	if rec.FeatureVersion == "" {
		rec.FeatureVersion = ranking.FeatureVersionV1
	}
	if rec.TrainedAt.IsZero() {
		rec.TrainedAt = s.now().UTC()
	}
	if rec.Metrics == nil {
		rec.Metrics = map[string]interface{}{}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.Conflict("model version %q is already registered", rec.ModelVersion)
		}
		return apperr.Internal(err, "failed to register model")
	}
	s.log.Info("model registered", "model_version", rec.ModelVersion, "feature_version", rec.FeatureVersion, "artifact_path", rec.ArtifactPath)
	return nil
}

// ParseTrainingMeta reads the metadata file the training pipeline writes next
// to each artifact
func ParseTrainingMeta(data []byte) (*model.ModelRecord, error) {
	var meta struct {
		ModelVersion   string                 `json:"model_version"`
		SnapshotID     string                 `json:"snapshot_id"`
		ArtifactPath   string                 `json:"artifact_path"`
		TrainedAt      string                 `json:"trained_at"`
		FeatureVersion string                 `json:"feature_version"`
		Metrics        map[string]interface{} `json:"metrics"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode training meta: %w", err)
	}

	rec := &model.ModelRecord{
		ModelVersion:   meta.ModelVersion,
		SnapshotID:     meta.SnapshotID,
		ArtifactPath:   meta.ArtifactPath,
		FeatureVersion: meta.FeatureVersion,
		Metrics:        meta.Metrics,
	}
	if fv, ok := meta.Metrics["feature_version"].(string); ok && fv != "" {
		rec.FeatureVersion = fv
	}
	if meta.TrainedAt != "" {
		t, err := time.Parse(time.RFC3339, meta.TrainedAt)
		if err != nil {
			return nil, fmt.Errorf("trained_at: %w", err)
		}
		rec.TrainedAt = t.UTC()
	}
	return rec, nil
}
