package model

import "time"

// Run state constants for the engine after a configuration load.
const (
	RunStateRunning = "running"
	RunStateStopped = "stopped"
	RunStateSkipped = "skipped"
)

// GlobalConstant is a named runtime value injected into a loaded test
// configuration. Constants are applied in caller-supplied order; a later
// entry with a duplicate name overwrites the earlier one.
type GlobalConstant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TestRunConfig describes one configuration-load request. Empty document
// paths mean "no configuration" and are passed to the engine as null.
// The config is read-only to the loader.
type TestRunConfig struct {
	TbcPath     string           `json:"tbc_path"`
	TcfPath     string           `json:"tcf_path"`
	Constants   []GlobalConstant `json:"constants,omitempty"`
	ForceReload bool             `json:"force_reload"`
	LoadOnly    bool             `json:"load_only"`

	// TimeoutS overrides the process-wide default call timeout for this
	// run, in whole seconds. Zero disables timeouts entirely.
	TimeoutS *int `json:"timeout_s,omitempty"`
}

// LoadResult is the outcome of one configuration-load attempt. It is
// produced once per attempt and never mutated afterwards.
type LoadResult struct {
	ID          string     `json:"id"`
	Loaded      bool       `json:"loaded"`
	BenchStatus string     `json:"bench_status"`
	TestStatus  string     `json:"test_status"`
	RunState    string     `json:"run_state"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	DurationMS  *int       `json:"duration_ms,omitempty"`
}

// Engine is a registered test-execution engine endpoint.
type Engine struct {
	Name      string    `json:"name"`
	Addr      string    `json:"addr"`
	TimeoutS  int       `json:"timeout_s"`
	CreatedAt time.Time `json:"created_at"`
}
