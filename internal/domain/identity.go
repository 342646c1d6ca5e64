package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Identity is the stable per-account key every player-scoped map is indexed by.
type Identity string

// ParseIdentity canonicalises a UUID string (lowercase, hyphenated).
func ParseIdentity(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidIdentity
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidIdentity
	}
	return Identity(id.String()), nil
}

// NewIdentity returns a random identity. Used by tools and tests.
func NewIdentity() Identity {
	return Identity(uuid.NewString())
}

func (id Identity) String() string { return string(id) }

// Target addresses a player either through a live session handle or by
// identity alone. Exactly two implementations exist: Online and Offline.
type Target interface {
	Identity() Identity
	isTarget()
}

// Online is the handle the game server holds for a connected player.
type Online struct {
	ID       Identity
	Username string
}

func (o Online) Identity() Identity { return o.ID }
func (Online) isTarget()            {}

// Offline addresses a player that may not be connected.
type Offline struct {
	ID Identity
}

func (o Offline) Identity() Identity { return o.ID }
func (Offline) isTarget()            {}
