package notification

// SkipReason explains why a follow-up is not being sent.
type SkipReason string

const (
	ReasonAlreadyRecorded SkipReason = "already_recorded"
	ReasonMaxCountReached SkipReason = "max_count_reached"
	ReasonNotTimeYet      SkipReason = "not_time_yet"
	ReasonDisabled        SkipReason = "disabled"
)

// Decision is the follow-up verdict for a user at an instant.
// FollowUpCount is the number of the follow-up in question (or the count already sent when nothing is pending).
type Decision struct {
	ShouldSend    bool       `json:"shouldSend"`
	FollowUpCount int        `json:"followUpCount"`
	Reason        SkipReason `json:"reason,omitempty"`
}
