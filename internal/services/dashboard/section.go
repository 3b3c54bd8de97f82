package dashboard

// Status is the lifecycle state of one dashboard section.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Section tracks one independently loaded piece of the dashboard.
// Each Begin issues a new token, and only the holder of the latest token may
// complete or fail the section. Section is not safe for concurrent use.
type Section[T any] struct {
	status Status
	data   T
	errMsg string
	token  uint64
}

// SectionView is an immutable copy of a section's state.
type SectionView[T any] struct {
	Status Status `json:"status"`
	Data   T      `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
	Token  uint64 `json:"token"`
}

// Begin moves the section to Loading, drops held data and returns the new token.
func (s *Section[T]) Begin() uint64 {
	var zero T
	s.token++
	s.status = StatusLoading
	s.data = zero
	s.errMsg = ""
	return s.token
}

// Complete stores v if token is current. It reports whether v was applied.
func (s *Section[T]) Complete(token uint64, v T) bool {
	if token != s.token || s.status != StatusLoading {
		return false
	}
	s.status = StatusReady
	s.data = v
	return true
}

// Fail records msg if token is current. It reports whether msg was applied.
func (s *Section[T]) Fail(token uint64, msg string) bool {
	if token != s.token || s.status != StatusLoading {
		return false
	}
	s.status = StatusFailed
	s.errMsg = msg
	return true
}

// Status returns the current state, Idle before the first Begin.
func (s *Section[T]) Status() Status {
	if s.status == "" {
		return StatusIdle
	}
	return s.status
}

// View returns a copy of the section state.
func (s *Section[T]) View() SectionView[T] {
	return SectionView[T]{
		Status: s.Status(),
		Data:   s.data,
		Error:  s.errMsg,
		Token:  s.token,
	}
}
