package model

// ExecutionStats are the running counters of a single task run. Completed counts
// every finished wallet unit, including the ones skipped because the wallet had
// already completed the network.
type ExecutionStats struct {
	TotalTasks uint64 `json:"totalTasks"`
	Completed  uint64 `json:"completed"`
	Successful uint64 `json:"successful"`
	Failed     uint64 `json:"failed"`
	Skipped    uint64 `json:"skipped"`
}
