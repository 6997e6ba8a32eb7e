package models

import "time"

// Participant is a member of a room, identified by display name (unique
// within the room). The facilitator flag is asserted by the server when the
// room's first participant joins and is never trusted from client data.
type Participant struct {
	Name          string
	IsFacilitator bool
	Connected     bool
	JoinedAt      time.Time
}

func NewParticipant(name string, isFacilitator bool) *Participant {
	return &Participant{
		Name:          name,
		IsFacilitator: isFacilitator,
		Connected:     true,
		JoinedAt:      time.Now(),
	}
}
