package session

// State is the lifecycle position of one quiz session.
type State string

const (
	// StateIdle is the initial state, before a quiz id is supplied.
	StateIdle State = "idle"
	// StateLoading covers the eligibility check and quiz fetch.
	StateLoading State = "loading"
	// StateActive accepts answer and flag mutations.
	StateActive State = "active"
	// StateSubmitting is the scoring-and-persist window; mutations and
	// timer side effects are disabled.
	StateSubmitting State = "submitting"
	// StateSubmitted is absorbing: the student submitted manually.
	StateSubmitted State = "submitted"
	// StateExpired is absorbing: the countdown forced the submission.
	StateExpired State = "expired"
	// StateError means the load failed. Nothing can be submitted from
	// here, but a fresh Load may retry.
	StateError State = "error"
)

// Terminal reports whether the session can no longer accept a submission.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateExpired || s == StateError
}
