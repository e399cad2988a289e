package domain

import (
	"github.com/google/uuid"
)

// ID is the single opaque identifier type used throughout the engine,
// per the DESIGN NOTES guidance to normalize once at the boundary to a
// 128-bit interned value rather than threading around a sum of string,
// UUID, or symbol as the upstream source does.
type ID uuid.UUID

// Nil is the zero ID, never assigned to a real entity.
var Nil = ID(uuid.Nil)

// NewID mints a fresh random identifier.
func NewID() ID {
	return ID(uuid.New())
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero value.
func (id ID) IsNil() bool {
	return id == Nil
}
