package vkloop

// CompletionToken represents whether the most recently submitted frame's GPU
// work has finished. Exactly one token is live at a time and it is owned by
// the FrameLoop; each tick replaces it, never merges it.
//
// A token is either already satisfied (startup, and after a frame is dropped
// on an error path) or pending, in which case it wraps a wait and a poll
// supplied by the backend, typically backed by a fence.
//
// Tokens are single owner. Consuming a token twice is a programming error and
// panics rather than silently aliasing GPU dependencies.
type CompletionToken struct {
	wait      func() error
	poll      func() bool
	satisfied bool
	consumed  bool
	reclaimed bool
	releases  []func()
}

// AlreadySatisfied returns a token whose work is already complete. It is used
// at startup and whenever a frame is dropped from the dependency chain.
func AlreadySatisfied() *CompletionToken {
	return &CompletionToken{satisfied: true}
}

// PendingToken returns a token backed by a pending GPU operation. wait blocks
// until the operation completes, poll reports completion without blocking.
func PendingToken(wait func() error, poll func() bool) *CompletionToken {
	return &CompletionToken{wait: wait, poll: poll}
}

// Wait blocks until the token is satisfied. It is idempotent, waiting on an
// already satisfied token returns immediately.
func (t *CompletionToken) Wait() error {
	if t.satisfied {
		return nil
	}
	if t.wait != nil {
		if err := t.wait(); err != nil {
			return err
		}
	}
	t.satisfied = true
	return nil
}

// Satisfied reports whether the token's work has completed, without blocking.
func (t *CompletionToken) Satisfied() bool {
	if t.satisfied {
		return true
	}
	if t.poll != nil && t.poll() {
		t.satisfied = true
	}
	return t.satisfied
}

// Attach registers a release callback for a transient resource written by
// this token's frame. The callback runs once, from Reclaim, after the token
// is satisfied.
func (t *CompletionToken) Attach(release func()) {
	t.releases = append(t.releases, release)
}

// Reclaim runs the attached release callbacks if the token is satisfied. It
// never blocks; if the work is still in flight nothing is reclaimed and it
// returns false.
func (t *CompletionToken) Reclaim() bool {
	if t.reclaimed {
		return true
	}
	if !t.Satisfied() {
		return false
	}
	for _, release := range t.releases {
		release()
	}
	t.releases = nil
	t.reclaimed = true
	return true
}

// Consume marks the token as used as a submission dependency. The token must
// not be consumed again.
func (t *CompletionToken) Consume() {
	if t.consumed {
		panic("vkloop: completion token consumed twice")
	}
	t.consumed = true
}

// Consumed reports whether the token has been used as a submission dependency.
func (t *CompletionToken) Consumed() bool {
	return t.consumed
}
