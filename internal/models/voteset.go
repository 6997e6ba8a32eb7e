package models

// PlayerVote is one revealed (participant, vote) pair. Vote is empty when a
// forced reveal exposes a participant who never voted.
type PlayerVote struct {
	Name string `json:"name"`
	Vote string `json:"vote"`
}

// VoteSet holds the votes of one round. Re-voting replaces the prior value
// without changing the vote count. The set itself is not goroutine-safe; the
// owning session serializes access.
type VoteSet struct {
	votes map[string]string
}

func NewVoteSet() *VoteSet {
	return &VoteSet{votes: make(map[string]string)}
}

// Record inserts or overwrites the participant's vote.
func (vs *VoteSet) Record(participant, value string) error {
	if !ValidVote(value) {
		return ErrInvalidVoteValue
	}
	vs.votes[participant] = value
	return nil
}

// Remove discards the participant's vote, if any. Used when a participant
// leaves mid-round so a stale vote cannot block or skew the reveal.
func (vs *VoteSet) Remove(participant string) {
	delete(vs.votes, participant)
}

func (vs *VoteSet) Has(participant string) bool {
	_, ok := vs.votes[participant]
	return ok
}

func (vs *VoteSet) Count() int {
	return len(vs.votes)
}

// NotVoted returns the members without a recorded vote, in membership order.
func (vs *VoteSet) NotVoted(membership []string) []string {
	notVoted := make([]string, 0, len(membership))
	for _, name := range membership {
		if !vs.Has(name) {
			notVoted = append(notVoted, name)
		}
	}
	return notVoted
}

// AllVoted reports whether every current member has a recorded vote. An
// empty membership never counts as fully voted.
func (vs *VoteSet) AllVoted(membership []string) bool {
	return len(membership) > 0 && len(vs.NotVoted(membership)) == 0
}

// Reveal returns the (participant, vote) pairs in membership order together
// with the unanimity verdict. Unanimity is defined only over participants
// who actually voted: a single voter is unanimous, zero voters never are.
// With forced set, voteless members are listed with an empty vote; otherwise
// only voters appear (the normal path reveals after AllVoted anyway).
func (vs *VoteSet) Reveal(membership []string, forced bool) ([]PlayerVote, bool) {
	votes := make([]PlayerVote, 0, len(membership))
	var first string
	voters, unanimous := 0, true

	for _, name := range membership {
		value, ok := vs.votes[name]
		if !ok {
			if forced {
				votes = append(votes, PlayerVote{Name: name, Vote: ""})
			}
			continue
		}
		votes = append(votes, PlayerVote{Name: name, Vote: value})
		if voters == 0 {
			first = value
		} else if value != first {
			unanimous = false
		}
		voters++
	}

	if voters == 0 {
		unanimous = false
	}
	return votes, unanimous
}

// Reset clears all recorded votes for the next round.
func (vs *VoteSet) Reset() {
	vs.votes = make(map[string]string)
}
