package contracts

import "time"

// Status classifies what happened to one instrument during a scan.
type Status int

const (
	// StatusMatched means every rule passed and a Verdict was produced.
	StatusMatched Status = iota
	// StatusExcluded means a rule rejected the instrument. Exclusion is
	// a normal outcome, not an error; Reason names the failing rule.
	StatusExcluded
	// StatusFailed means the instrument could not be judged at all,
	// for example an unreadable file or a division guard. Err carries
	// the cause.
	StatusFailed
)

// String returns the lower-case label used in logs and run summaries.
func (s Status) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusExcluded:
		return "excluded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-instrument result of one scan. Exactly one of
// Verdict, Reason or Err is meaningful depending on Status.
type Outcome struct {
	Code    string
	Status  Status
	Reason  string
	Err     error
	Verdict *Verdict
}

// Matched builds a passing outcome around v.
func Matched(v *Verdict) Outcome {
	return Outcome{Code: v.Code, Status: StatusMatched, Verdict: v}
}

// Excluded builds a rejection outcome with the failing rule's reason.
func Excluded(code, reason string) Outcome {
	return Outcome{Code: code, Status: StatusExcluded, Reason: reason}
}

// Failed builds an error outcome for an instrument that could not be
// judged.
func Failed(code string, err error) Outcome {
	return Outcome{Code: code, Status: StatusFailed, Err: err}
}

// ResultSet is the aggregate of one scan run: the ranked verdicts plus
// the tallies needed for the run summary and the history record.
type ResultSet struct {
	RunID        string    `json:"run_id"`
	Profile      string    `json:"profile"`
	RunAt        time.Time `json:"run_at"`
	Verdicts     []Verdict `json:"verdicts"`
	Scanned      int       `json:"scanned"`
	Matched      int       `json:"matched"`
	Excluded     int       `json:"excluded"`
	Failed       int       `json:"failed"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
}
