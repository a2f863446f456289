package models

import "time"

// ProbeOutcome classifies how a stream probe ended.
type ProbeOutcome string

const (
	OutcomeReachable   ProbeOutcome = "reachable"
	OutcomeUnreachable ProbeOutcome = "unreachable"
	OutcomeTimeout     ProbeOutcome = "timeout"
	OutcomeDNSFailure  ProbeOutcome = "dns_failure"
	OutcomeTLSFailure  ProbeOutcome = "tls_failure"
	OutcomeSkipped     ProbeOutcome = "skipped"
)

// ValidationVerdict is the result of probing one stream URL.
type ValidationVerdict struct {
	URL         string
	Method      string
	Outcome     ProbeOutcome
	StatusCode  int
	ContentType string
	Duration    time.Duration
	Err         string
	CheckedAt   time.Time
}

// Reachable reports whether the probe proved the stream serves data.
// Skipped verdicts count as reachable: validation never rejects a
// channel it did not actually probe.
func (v ValidationVerdict) Reachable() bool {
	return v.Outcome == OutcomeReachable || v.Outcome == OutcomeSkipped
}
