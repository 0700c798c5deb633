package recorder

import "LeveredVault/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ *model.Snapshot) error { return nil }
func (n *NoopRecorder) RecordEvaluation(_ *Evaluation) error   { return nil }
func (n *NoopRecorder) RecordPending(_ *PendingEvent) error    { return nil }
func (n *NoopRecorder) Close() error                           { return nil }

func (n *NoopRecorder) LatestSnapshot(_ string) (*model.Snapshot, error) { return nil, nil }
