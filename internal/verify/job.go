package verify

// JobStatus is the lifecycle state of one verification attempt. Jobs are
// never persisted across runs; every verification starts a fresh job.
type JobStatus string

const (
	// StatusPending means the explorer accepted the submission and returned
	// a GUID.
	StatusPending JobStatus = "pending"
	// StatusInProgress means the job is being polled.
	StatusInProgress JobStatus = "in_progress"
	// StatusVerified is the successful terminal state.
	StatusVerified JobStatus = "verified"
	// StatusFailed is the terminal state for rejections and transport
	// failures.
	StatusFailed JobStatus = "failed"
	// StatusTimedOut means the poll budget ran out while the explorer was
	// still reporting pending. The verification may still succeed later;
	// callers should check the explorer manually.
	StatusTimedOut JobStatus = "timed_out"
	// StatusSkipped means no API key was configured for the chain.
	// Verification is optional, so this is not a failure.
	StatusSkipped JobStatus = "skipped"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusVerified, StatusFailed, StatusTimedOut, StatusSkipped:
		return true
	}
	return false
}

// Job tracks one verification attempt through the submit/poll protocol.
type Job struct {
	ContractAddress string    `json:"contractAddress"`
	ChainID         int       `json:"chainId"`
	GUID            string    `json:"guid,omitempty"`
	Status          JobStatus `json:"status"`
	// AttemptsRemaining counts submission attempts left, including the
	// current one.
	AttemptsRemaining int    `json:"attemptsRemaining"`
	Message           string `json:"message,omitempty"`
}
