package domain

// Stage enumerates the orchestrator states.
type Stage string

const (
	StageIdle              Stage = "idle"
	StageFetchingPages     Stage = "fetching_pages"
	StageDeduplicating     Stage = "deduplicating"
	StageExtractingDetails Stage = "extracting_details"
	StageTraining          Stage = "training"
	StageEmbedding         Stage = "embedding"
	StageClustering        Stage = "clustering"
	StageDone              Stage = "done"
	StageAborted           Stage = "aborted"
	StageFailed            Stage = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageAborted || s == StageFailed
}

// RunStatus is the tri-state outcome of a run.
type RunStatus string

const (
	StatusDone    RunStatus = "done"
	StatusAborted RunStatus = "aborted"
	StatusFailed  RunStatus = "failed"
)

// Progress is a (processed, target) snapshot within one stage.
type Progress struct {
	Stage     Stage
	Processed int
	Target    int
}
