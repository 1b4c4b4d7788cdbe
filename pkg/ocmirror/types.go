package ocmirror

import "github.com/Pengchengistaken/ocmirror/internal/engine"

// Type aliases re-export engine result types as the public API.
// Users import "github.com/Pengchengistaken/ocmirror/pkg/ocmirror" and use
// ocmirror.RunReport, ocmirror.FailedFile, etc.

type PendingFile = engine.PendingFile
type Outcome = engine.Outcome
type Status = engine.Status
type FailedFile = engine.FailedFile
type CycleStats = engine.CycleStats
type RunReport = engine.RunReport

const (
	Succeeded = engine.Succeeded
	Failed    = engine.Failed
)
