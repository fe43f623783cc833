package model

import "time"

// GlobalCounterID is the fixed primary key of the single global counter row.
const GlobalCounterID = 1

// GlobalCounter is the singleton row holding the aggregate click count.
//
// TotalClicks is meant to equal the sum of every user's PersonalClicks, but
// the two are updated with separate statements, so concurrent requests can
// push it out of step (and even below zero for a moment).
type GlobalCounter struct {
	TotalClicks int64     `json:"clicks"    db:"total_clicks"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Counts is the pair returned by every counter operation.
type Counts struct {
	Personal int64
	Global   int64
}
