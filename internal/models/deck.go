package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Pass cards. Café asks for a break, Joker means the participant cannot
// estimate the feature.
const (
	VoteCafe  = "Café"
	VoteJoker = "Joker"
)

// DeckValues is the planning poker deck. Every vote must be one of these,
// compared as strings: "20" and "Café" are just cards.
var DeckValues = []string{"0", "1", "2", "3", "5", "8", "13", "20", "40", "100", VoteCafe, VoteJoker}

var deckSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(DeckValues))
	for _, v := range DeckValues {
		set[v] = struct{}{}
	}
	return set
}()

// ValidVote reports whether value is a card of the deck.
func ValidVote(value string) bool {
	_, ok := deckSet[value]
	return ok
}

// VoteValue decodes the vote field of inbound messages. Browser clients send
// numeric cards as JSON numbers and pass cards as strings; both normalize to
// the card's string form, trimmed of surrounding whitespace.
type VoteValue string

func (v VoteValue) String() string { return string(v) }

func (v *VoteValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = VoteValue(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = VoteValue(n.String())
		return nil
	}

	return fmt.Errorf("vote must be a string or number, got %s", string(data))
}
