package pipeline

// State is the orchestrator lifecycle. Stages run to completion over their
// full input batch before the next state begins; FAILED is reachable from
// any stage on a fatal condition.
type State string

const (
	StateIdle         State = "idle"
	StateExtracting   State = "extracting"
	StateValidating   State = "validating"
	StateTransforming State = "transforming"
	StateLoading      State = "loading"
	StateReporting    State = "reporting"
	StateDone         State = "done"
	StateFailed       State = "failed"
)
