package coinflip

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Loser is a settled flip participant who owes their stake to the winner
type Loser struct {
	User  *discordgo.User
	Stake int64
}

// Session is one coinflip round. Every entry costs the ticket price and
// a user can hold several entries, each raising both their stake and
// their odds. The flip picks a winner weighted by entries and everyone
// else pays their stake.
type Session struct {
	mu        sync.Mutex
	initiator *discordgo.User
	price     int64
	entries   []*discordgo.User
	flipped   bool
	winner    *discordgo.User
}

// NewSession opens a round with the initiator holding the first entry
func NewSession(initiator *discordgo.User, price int64) *Session {
	return &Session{
		initiator: initiator,
		price:     price,
		entries:   []*discordgo.User{initiator},
	}
}

func (s *Session) Initiator() *discordgo.User {
	return s.initiator
}

func (s *Session) Price() int64 {
	return s.price
}

// Join adds one entry for the user. Returns false once the coin has
// been flipped.
func (s *Session) Join(user *discordgo.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flipped {
		return false
	}
	s.entries = append(s.entries, user)
	return true
}

// Stake is what the user owes if they lose: entries held times the
// ticket price.
func (s *Session) Stake(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stakeLocked(userID)
}

func (s *Session) stakeLocked(userID string) int64 {
	var n int64
	for _, e := range s.entries {
		if e.ID == userID {
			n++
		}
	}
	return n * s.price
}

// EntryCount returns the total number of entries in the round
func (s *Session) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entrants returns the unique participants in join order
func (s *Session) Entrants() []*discordgo.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entrantsLocked()
}

func (s *Session) entrantsLocked() []*discordgo.User {
	seen := make(map[string]bool)
	var unique []*discordgo.User
	for _, e := range s.entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		unique = append(unique, e)
	}
	return unique
}

// Flip settles the round. Only the initiator may flip, and only once at
// least two distinct users hold entries. pick chooses an entry index so
// the winner's odds scale with entries held. Returns the winner and the
// losers with their stakes.
func (s *Session) Flip(callerID string, pick func(n int) int) (*discordgo.User, []Loser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if callerID != s.initiator.ID {
		return nil, nil, errNotInitiator
	}
	if s.flipped {
		return nil, nil, errAlreadyFlipped
	}
	unique := s.entrantsLocked()
	if len(unique) < 2 {
		return nil, nil, errNotEnoughPlayers
	}

	s.flipped = true
	s.winner = s.entries[pick(len(s.entries))]

	var losers []Loser
	for _, u := range unique {
		if u.ID == s.winner.ID {
			continue
		}
		losers = append(losers, Loser{User: u, Stake: s.stakeLocked(u.ID)})
	}
	return s.winner, losers, nil
}

// Winner returns the winning user once the coin has been flipped
func (s *Session) Winner() *discordgo.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner
}
