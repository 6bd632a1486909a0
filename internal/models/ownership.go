package models

import "time"

// Ownership says who may see an entity: only its owner, or the owner's family.
type Ownership string

const (
	OwnershipPersonal Ownership = "personal"
	OwnershipJoint    Ownership = "joint"
)

// Owned is implemented by entities that carry an owner and an ownership kind.
// Access decisions are made on these two values only.
type Owned interface {
	OwnerID() string
	OwnershipKind() Ownership
}

// DateOf truncates t to a UTC calendar date. Ledger dates are compared as
// dates, so every stored date passes through here first.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
