package upload

import "fmt"

// SubmissionError is a single record being rejected by the sink, the rest
// of the queue is unaffected.
type SubmissionError struct {
	Reason string
	// Temporary marks rejections worth retrying (rate limits, timeouts,
	// server errors).
	Temporary bool
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission rejected: %s: %s", e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("submission rejected: %s", e.Reason)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// SessionError means the sink itself is unusable (logged out, connection
// gone), nothing else can be submitted in this run.
type SessionError struct {
	Reason string
	Err    error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload session lost: %s: %s", e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("upload session lost: %s", e.Reason)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}
