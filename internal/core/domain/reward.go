package domain

import "fmt"

// Reward is one coupon issued by the external reward API.
type Reward struct {
	Code     string
	Campaign string
}

// UpstreamReason classifies why a reward attempt yielded nothing.
type UpstreamReason string

const (
	// UpstreamEmpty: the upstream answered but carried no coupon (rejected or
	// pool exhausted). Expected during normal operation.
	UpstreamEmpty UpstreamReason = "empty"
	// UpstreamStatus: non-2xx HTTP status.
	UpstreamStatus UpstreamReason = "status"
	// UpstreamTransport: network error or timeout before a response arrived.
	UpstreamTransport UpstreamReason = "transport"
	// UpstreamMalformed: response body could not be decoded.
	UpstreamMalformed UpstreamReason = "malformed"
)

// UpstreamError is the typed failure returned by the reward client. It never
// escalates past the client boundary as a panic; callers treat every reason as
// "no reward this attempt" but may log them differently.
type UpstreamError struct {
	Reason UpstreamReason
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reward upstream failure (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("reward upstream failure (%s)", e.Reason)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
