package services

import (
	"log"
	"sync"
	"time"

	"github.com/damione1/backlog-poker/internal/models"
)

// SessionState is the round state machine position of a room.
type SessionState string

const (
	StateVoting    SessionState = "voting"
	StateRevealed  SessionState = "revealed"
	StateCompleted SessionState = "completed"
)

// RoomSession owns one room's voting round: membership, the active vote
// set, the feature queue and the reveal/advance state machine.
//
// Every mutating operation runs under the session mutex, so at most one
// mutation is in flight per room at any time. Events are published to the
// broadcaster while the lock is held, which makes the session the single
// logical writer of its room's event stream: every connection observes the
// same events in the same order.
type RoomSession struct {
	mu sync.Mutex

	id          string
	name        string
	state       SessionState
	facilitator string
	// retired is set by the registry when it drops the session; late joins
	// on a stale reference are rejected so they land on the replacement.
	retired bool

	// members in join order; names are unique within the room
	members []*models.Participant
	votes   *models.VoteSet
	queue   *models.FeatureQueue

	broadcaster Broadcaster
	metrics     *Metrics

	// backlogURL, when non-empty, is sent with the final_backlog event so
	// clients navigate to the archived page instead of rendering inline.
	backlogURL string
	// onCompleted runs once, inside the critical section that exhausts the
	// queue, before the final_backlog event goes out.
	onCompleted func(roomID string, backlog []models.Feature)

	createdAt    time.Time
	lastActivity time.Time
}

// NewRoomSession creates a session in the voting state, or directly in the
// completed state when seeded with no features.
func NewRoomSession(id, name string, features []models.Feature, b Broadcaster, metrics *Metrics) *RoomSession {
	s := &RoomSession{
		id:          id,
		name:        name,
		state:       StateVoting,
		members:     make([]*models.Participant, 0, 4),
		votes:       models.NewVoteSet(),
		queue:       models.NewFeatureQueue(features),
		broadcaster: b,
		metrics:     metrics,
		createdAt:   time.Now(),
	}
	s.lastActivity = s.createdAt
	if s.queue.Remaining() == 0 {
		s.state = StateCompleted
	}
	return s
}

func (s *RoomSession) ID() string { return s.id }

// SetBacklogURL configures the redirect target for the final_backlog event.
func (s *RoomSession) SetBacklogURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backlogURL = url
}

// SetOnCompleted registers the hook invoked when the queue is exhausted.
func (s *RoomSession) SetOnCompleted(fn func(roomID string, backlog []models.Feature)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCompleted = fn
}

// Join adds a participant to the room. The first participant ever to join
// becomes the facilitator; the role sticks to that name for the room's
// lifetime, across disconnects. Returns the state snapshot to send to the
// joining connection.
func (s *RoomSession) Join(name string) (*models.RoomStateEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return nil, models.ErrRoomNotFound
	}

	for _, p := range s.members {
		if p.Name == name {
			return nil, models.ErrParticipantExists
		}
	}

	isFacilitator := false
	if s.facilitator == "" {
		// First joiner creates the room's facilitator identity.
		s.facilitator = name
		isFacilitator = true
	} else if s.facilitator == name {
		// Facilitator returning after a disconnect keeps the role.
		isFacilitator = true
	}

	s.members = append(s.members, models.NewParticipant(name, isFacilitator))
	s.touch()
	log.Printf("Participant %s joined room %s (facilitator=%v, members=%d)", name, s.id, isFacilitator, len(s.members))

	// A joiner mid-round blocks all_voted until they vote; tell the room.
	if s.state == StateVoting {
		s.broadcaster.Publish(s.id, models.NewNotVotedUpdateEvent(s.votes.NotVoted(s.memberNames())))
	}

	return s.snapshotLocked(), nil
}

// Leave removes a participant and discards their recorded vote so it no
// longer blocks or skews the round. Returns true when the room is empty.
func (s *RoomSession) Leave(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.members {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return len(s.members) == 0
	}

	s.members = append(s.members[:idx], s.members[idx+1:]...)
	s.votes.Remove(name)
	s.touch()
	log.Printf("Participant %s left room %s (members=%d)", name, s.id, len(s.members))

	if s.state == StateVoting && len(s.members) > 0 {
		s.broadcaster.Publish(s.id, models.NewNotVotedUpdateEvent(s.votes.NotVoted(s.memberNames())))
	}

	return len(s.members) == 0
}

// Vote records a participant's vote for the current round and broadcasts
// the updated vote-pending set. Re-voting replaces the prior value.
func (s *RoomSession) Vote(player, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isMember(player) {
		return models.ErrUnknownParticipant
	}
	if s.state != StateVoting {
		return models.ErrNotVotingPhase
	}
	if err := s.votes.Record(player, value); err != nil {
		return err
	}

	s.touch()
	s.metrics.IncrementVotesCast()

	membership := s.memberNames()
	notVoted := s.votes.NotVoted(membership)
	s.broadcaster.Publish(s.id, models.NewVoteEvent(player, value, notVoted, len(notVoted) == 0))

	return nil
}

// Reveal shows the round's votes and resolves the outcome: a unanimous
// round advances the feature queue, anything else restarts the round on the
// same feature. Only the facilitator may reveal, and only once everyone has
// voted unless force is set.
func (s *RoomSession) Reveal(player string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isMember(player) {
		return models.ErrUnknownParticipant
	}
	if player != s.facilitator {
		return models.ErrNotFacilitator
	}
	if s.state != StateVoting {
		return models.ErrNotVotingPhase
	}

	membership := s.memberNames()
	if !force && !s.votes.AllVoted(membership) {
		return models.ErrIncompleteVoting
	}

	s.state = StateRevealed
	s.touch()
	s.metrics.IncrementRoundsRevealed()

	votes, unanimous := s.votes.Reveal(membership, force)
	s.broadcaster.Publish(s.id, models.NewRevealEvent(votes, unanimous))

	// Post-reveal resolution is automatic; the revealed state never
	// outlives this critical section.
	if unanimous {
		s.advanceLocked(agreedValue(votes))
	} else {
		s.restartLocked()
	}
	return nil
}

// agreedValue is the value everyone agreed on: the first recorded vote of a
// unanimous reveal. Forced reveals may list voteless members first, so skip
// empty entries.
func agreedValue(votes []models.PlayerVote) string {
	for _, v := range votes {
		if v.Vote != "" {
			return v.Vote
		}
	}
	return ""
}

// advanceLocked moves the queue forward after a unanimous round and either
// opens the next round or completes the room.
func (s *RoomSession) advanceLocked(agreed string) {
	next, ok, err := s.queue.Advance(agreed)
	if err != nil {
		// Voting state always has a current feature; reaching this means
		// the state machine is broken, not the request.
		log.Printf("⚠️  Room %s: advance with empty queue: %v", s.id, err)
		return
	}

	s.votes.Reset()

	if ok {
		s.state = StateVoting
		s.broadcaster.Publish(s.id, models.NewFeatureUpdateEvent(&next))
		s.broadcaster.Publish(s.id, models.NewNotVotedUpdateEvent(s.memberNames()))
		return
	}

	s.state = StateCompleted
	s.metrics.IncrementRoomsCompleted()
	backlog := s.queue.FinalBacklog()
	log.Printf("Room %s completed: %d features estimated", s.id, len(backlog))

	if s.onCompleted != nil {
		s.onCompleted(s.id, backlog)
	}
	if s.backlogURL != "" {
		s.broadcaster.Publish(s.id, models.NewFinalBacklogEvent(nil, s.backlogURL))
	} else {
		s.broadcaster.Publish(s.id, models.NewFinalBacklogEvent(backlog, ""))
	}
}

// restartLocked reopens the round on the same feature after a split vote.
func (s *RoomSession) restartLocked() {
	s.votes.Reset()
	s.state = StateVoting
	s.broadcaster.Publish(s.id, models.NewNotVotedUpdateEvent(s.memberNames()))
}

// Snapshot returns the consistent room view sent to joining connections and
// the HTTP snapshot endpoint.
func (s *RoomSession) Snapshot() *models.RoomStateEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *RoomSession) snapshotLocked() *models.RoomStateEvent {
	snap := &models.RoomStateEvent{
		Type:         models.MsgTypeRoomState,
		State:        string(s.state),
		Participants: s.memberNames(),
		Facilitator:  s.facilitator,
		Remaining:    s.queue.Remaining(),
	}
	if current, ok := s.queue.Current(); ok {
		snap.Feature = &current
	}
	if s.state == StateVoting {
		snap.NotVoted = s.votes.NotVoted(snap.Participants)
	}
	if s.state == StateCompleted {
		snap.FinalBacklog = s.queue.FinalBacklog()
	}
	return snap
}

// State returns the current state machine position.
func (s *RoomSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Facilitator returns the sticky facilitator name.
func (s *RoomSession) Facilitator() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facilitator
}

// IsEmpty reports whether no participant is left.
func (s *RoomSession) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members) == 0
}

// retire marks an empty session evicted so joins racing the eviction fail
// instead of landing on an unmapped session. Fails when a participant got
// in since the emptiness was last observed.
func (s *RoomSession) retire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.members) > 0 {
		return false
	}
	s.retired = true
	return true
}

// retireIfIdle is retire with an idle requirement: sessions active after
// cutoff are spared. Used by the sweeper so a room created moments ago is
// not destroyed before its creator connects.
func (s *RoomSession) retireIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.members) > 0 || s.lastActivity.After(cutoff) {
		return false
	}
	s.retired = true
	return true
}

// FinalBacklog returns the finalized features estimated so far.
func (s *RoomSession) FinalBacklog() []models.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.FinalBacklog()
}

func (s *RoomSession) isMember(name string) bool {
	for _, p := range s.members {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (s *RoomSession) memberNames() []string {
	names := make([]string, len(s.members))
	for i, p := range s.members {
		names[i] = p.Name
	}
	return names
}

func (s *RoomSession) touch() {
	s.lastActivity = time.Now()
}
