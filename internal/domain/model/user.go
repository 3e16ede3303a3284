package model

import "time"

// Gender is the partition key for profiles and the user's preference value.
type Gender string

const (
	GenderWoman Gender = "woman"
	GenderMan   Gender = "man"
)

// ParseGender validates a raw preference value coming from callback payloads.
func ParseGender(s string) (Gender, bool) {
	switch Gender(s) {
	case GenderWoman, GenderMan:
		return Gender(s), true
	default:
		return "", false
	}
}

// User is a Telegram chat the bot talks to. The id is the Telegram chat id.
type User struct {
	ID             int64
	Language       string
	LookingFor     *Gender // nil until the user picks a preference
	Active         bool
	LastPush       *time.Time // also touched on any inbound interaction
	DailyPushCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DueUser is the projection returned by the due-user scan.
type DueUser struct {
	ID       int64
	Language string
}
