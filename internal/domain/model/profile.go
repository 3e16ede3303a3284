package model

import "time"

// Profile is an immutable candidate item shown to users. File is the opaque
// storage reference the public photo URL is built from.
type Profile struct {
	ID        int64
	File      string
	Gender    Gender
	CreatedAt time.Time
}

// Bounds is the cached min/max profile id for one gender. It is a performance
// hint for the pivot draw only; correctness comes from the seen-mark anti-join.
type Bounds struct {
	Min int64
	Max int64
}

// Valid reports whether the bounds describe a non-empty id range.
func (b Bounds) Valid() bool {
	return b.Min > 0 && b.Max > 0 && b.Min <= b.Max
}
