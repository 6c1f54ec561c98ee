package ports

// Ledger persists the outcome of complete runs so a run can be compared with
// the previous one for the same configuration. The backing store (bbolt) is
// namespaced by Config.Key(); records within a namespace are ordered by
// insertion.
//
// Crash safety: Append must be transactional. A crash mid-write must not
// corrupt previously committed records.
type Ledger interface {
	// Append stores rec under key and returns its sequence number (1-based).
	Append(key string, rec *RunRecord) (uint64, error)

	// Last returns the most recent record for key.
	// Returns nil, nil if no run has been recorded (fresh configuration).
	Last(key string) (*RunRecord, error)

	// History returns up to limit most recent records for key, newest first.
	// limit <= 0 returns all records.
	History(key string, limit int) ([]*RunRecord, error)

	// Keys lists every configuration key that has at least one record.
	Keys() ([]string, error)
}

// RunRecord is the persisted summary of one six-scenario run.
type RunRecord struct {
	Seq       uint64          `json:"seq"`
	Timestamp int64           `json:"timestamp"` // Unix seconds
	Backend   string          `json:"backend"`
	Library   string          `json:"library,omitempty"`
	Config    Config          `json:"config"`
	Mask      uint8           `json:"mask"`
	Hard      bool            `json:"hard"` // a sub-scenario aborted on a fatal error
	Results   []ScenarioTrace `json:"results"`
}

// ScenarioTrace records one (precision, regime) sub-scenario.
type ScenarioTrace struct {
	Precision Precision `json:"precision"`
	Regime    string    `json:"regime"`
	Verdict   string    `json:"verdict"`
	Attempts  int       `json:"attempts"`
	Status    int       `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Skipped   bool      `json:"skipped,omitempty"`
}
