package model

import "time"

// ModelRecord is one trained LTR model in the registry. Entries are written by
// the training pipeline and never modified.
type ModelRecord struct {
	ModelVersion   string                 `json:"model_version" bson:"_id"`
	SnapshotID     string                 `json:"snapshot_id,omitempty" bson:"snapshotId,omitempty"`
	FeatureVersion string                 `json:"feature_version" bson:"featureVersion"`
	Metrics        map[string]interface{} `json:"metrics_json" bson:"metrics"`
	ArtifactPath   string                 `json:"artifact_path" bson:"artifactPath"`
	TrainedAt      time.Time              `json:"trained_at" bson:"trainedAt"`
}
