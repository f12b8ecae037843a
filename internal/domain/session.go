package domain

import "time"

// Session represents one login event. A user may hold any number of
// concurrent sessions; each login creates a new one.
type Session struct {
	ID        string
	UserID    string
	Browser   string
	Device    string
	City      string
	Country   string
	CreatedAt time.Time
}
