package models

// Feature is one backlog item. Priority stays empty until the room agrees
// on an estimate, at which point the feature moves to the final backlog
// carrying the agreed value.
type Feature struct {
	Name     string `json:"name" yaml:"name"`
	Priority string `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// FeatureQueue is the ordered sequence of features awaiting estimation plus
// the finalized backlog. A feature lives in exactly one of the two lists.
// The head of pending is the room's current feature; advancing pops it.
type FeatureQueue struct {
	pending   []Feature
	finalized []Feature
}

func NewFeatureQueue(features []Feature) *FeatureQueue {
	pending := make([]Feature, len(features))
	copy(pending, features)
	return &FeatureQueue{pending: pending}
}

// Current returns the pending head, or ok=false when nothing is left.
func (q *FeatureQueue) Current() (Feature, bool) {
	if len(q.pending) == 0 {
		return Feature{}, false
	}
	return q.pending[0], true
}

// Advance pops the current feature, attaches the agreed vote as its
// priority and appends it to the final backlog. Returns the new head, or
// ok=false when the queue is exhausted.
func (q *FeatureQueue) Advance(agreedVote string) (Feature, bool, error) {
	if len(q.pending) == 0 {
		return Feature{}, false, ErrEmptyQueue
	}

	done := q.pending[0]
	done.Priority = agreedVote
	q.pending = q.pending[1:]
	q.finalized = append(q.finalized, done)

	next, ok := q.Current()
	return next, ok, nil
}

// Remaining returns the number of features still awaiting estimation.
func (q *FeatureQueue) Remaining() int {
	return len(q.pending)
}

// FinalBacklog returns the finalized features in the order they were
// estimated, which is the original queue order.
func (q *FeatureQueue) FinalBacklog() []Feature {
	backlog := make([]Feature, len(q.finalized))
	copy(backlog, q.finalized)
	return backlog
}
