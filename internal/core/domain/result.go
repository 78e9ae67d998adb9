package domain

type FailureReason string

const (
	ReasonNone       FailureReason = ""
	ReasonDownload   FailureReason = "download"
	ReasonConversion FailureReason = "conversion"
	ReasonProtection FailureReason = "protection"
	ReasonNoFace     FailureReason = "no_face"
	ReasonTimeout    FailureReason = "timeout"
	ReasonDelivery   FailureReason = "delivery"
)

// UserText returns the reply shown for a failure, or an empty string when the
// user should not be notified.
func (r FailureReason) UserText() string {
	switch r {
	case ReasonNone, ReasonDelivery:
		return ""
	case ReasonNoFace:
		return ReplyNoFace
	case ReasonTimeout:
		return ReplyTimeout
	default:
		return ReplyFailed
	}
}

// Result is the outcome of one pipeline run.
type Result struct {
	Artifacts []Artifact
	Delivered int
	Reason    FailureReason
	Err       error
}

func (r Result) OK() bool {
	return r.Reason == ReasonNone
}

func Failed(reason FailureReason, err error) Result {
	return Result{Reason: reason, Err: err}
}
