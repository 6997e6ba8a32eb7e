package models

// Client → server message types.
const (
	MsgTypeVote   = "vote"
	MsgTypeReveal = "reveal"
)

// Server → client message types.
const (
	MsgTypeVoteCast       = "vote"
	MsgTypeRevealed       = "reveal"
	MsgTypeNotVotedUpdate = "not_voted_update"
	MsgTypeFeatureUpdate  = "feature_update"
	MsgTypeFinalBacklog   = "final_backlog"
	MsgTypeError          = "error"
	MsgTypeRoomState      = "room_state"
)

// InboundMessage is a request read from a room connection.
type InboundMessage struct {
	Type   string    `json:"type"`
	Player string    `json:"player,omitempty"`
	Vote   VoteValue `json:"vote,omitempty"`
	// Force lets the facilitator reveal before everyone voted.
	Force bool `json:"force,omitempty"`
}

// Event is a server-emitted protocol message. Concrete event structs carry
// their wire type in the Type field so they marshal directly.
type Event interface {
	EventType() string
}

// VoteEvent tells the room a vote was recorded.
type VoteEvent struct {
	Type     string   `json:"type"`
	Player   string   `json:"player"`
	Vote     string   `json:"vote"`
	NotVoted []string `json:"not_voted"`
	AllVoted bool     `json:"all_voted"`
}

func NewVoteEvent(player, vote string, notVoted []string, allVoted bool) *VoteEvent {
	return &VoteEvent{Type: MsgTypeVoteCast, Player: player, Vote: vote, NotVoted: notVoted, AllVoted: allVoted}
}

func (e *VoteEvent) EventType() string { return e.Type }

// RevealEvent carries the round results.
type RevealEvent struct {
	Type      string       `json:"type"`
	Votes     []PlayerVote `json:"votes"`
	Unanimity bool         `json:"unanimity"`
}

func NewRevealEvent(votes []PlayerVote, unanimity bool) *RevealEvent {
	return &RevealEvent{Type: MsgTypeRevealed, Votes: votes, Unanimity: unanimity}
}

func (e *RevealEvent) EventType() string { return e.Type }

// NotVotedUpdateEvent reports a change of the vote-pending set outside a
// vote, e.g. a join or leave.
type NotVotedUpdateEvent struct {
	Type     string   `json:"type"`
	NotVoted []string `json:"not_voted"`
}

func NewNotVotedUpdateEvent(notVoted []string) *NotVotedUpdateEvent {
	return &NotVotedUpdateEvent{Type: MsgTypeNotVotedUpdate, NotVoted: notVoted}
}

func (e *NotVotedUpdateEvent) EventType() string { return e.Type }

// FeatureUpdateEvent announces the new current feature. Feature is nil when
// there is none.
type FeatureUpdateEvent struct {
	Type    string   `json:"type"`
	Feature *Feature `json:"feature"`
}

func NewFeatureUpdateEvent(feature *Feature) *FeatureUpdateEvent {
	return &FeatureUpdateEvent{Type: MsgTypeFeatureUpdate, Feature: feature}
}

func (e *FeatureUpdateEvent) EventType() string { return e.Type }

// FinalBacklogEvent signals queue exhaustion. When URL is set clients should
// navigate there instead of rendering the inline list.
type FinalBacklogEvent struct {
	Type         string    `json:"type"`
	FinalBacklog []Feature `json:"final_backlog,omitempty"`
	URL          string    `json:"url,omitempty"`
}

func NewFinalBacklogEvent(backlog []Feature, url string) *FinalBacklogEvent {
	return &FinalBacklogEvent{Type: MsgTypeFinalBacklog, FinalBacklog: backlog, URL: url}
}

func (e *FinalBacklogEvent) EventType() string { return e.Type }

// ErrorEvent rejects a single request. Sent to the offending connection
// only, never broadcast.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(message string) *ErrorEvent {
	return &ErrorEvent{Type: MsgTypeError, Message: message}
}

func (e *ErrorEvent) EventType() string { return e.Type }

// RoomStateEvent is the snapshot sent to a connection when it joins, so
// reconnecting clients converge on the same view as everyone else.
type RoomStateEvent struct {
	Type         string    `json:"type"`
	State        string    `json:"state"`
	Participants []string  `json:"participants"`
	Facilitator  string    `json:"facilitator"`
	Feature      *Feature  `json:"feature"`
	NotVoted     []string  `json:"not_voted"`
	Remaining    int       `json:"remaining"`
	FinalBacklog []Feature `json:"final_backlog,omitempty"`
}

func (e *RoomStateEvent) EventType() string { return e.Type }
