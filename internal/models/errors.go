package models

import "errors"

// Protocol rejection reasons. Handlers relay these to the offending
// connection as error events; they are never broadcast to the room.
var (
	ErrInvalidVoteValue   = errors.New("invalid vote value")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrNotVotingPhase     = errors.New("room is not in the voting phase")
	ErrNotFacilitator     = errors.New("only the facilitator can reveal votes")
	ErrIncompleteVoting   = errors.New("not all participants have voted")
	ErrEmptyQueue         = errors.New("no feature left to estimate")
	ErrRoomNotFound       = errors.New("room not found")
	ErrParticipantExists  = errors.New("a participant with this name is already in the room")
	ErrInvalidName        = errors.New("invalid name")
)
