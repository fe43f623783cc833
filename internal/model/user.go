// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents one person who has signed in with GitHub.
//
// IDENTITY:
// ExternalID is GitHub's numeric account ID rendered as a decimal string.
// It is stable for the life of the GitHub account and UNIQUE in the users
// table, so one GitHub account maps to exactly one User. ID is our own
// internal xid, which is what the session token carries.
//
// PROFILE SNAPSHOT:
// Username, DisplayName and PublicRepoCount are copied from GitHub the first
// time the user signs in and are never refreshed afterwards.
//
// PersonalClicks is only ever changed by the counter service.
type User struct {
	ID              string    `json:"-"               db:"id"`
	ExternalID      string    `json:"externalId"      db:"external_id"`
	Username        string    `json:"username"        db:"username"`
	DisplayName     string    `json:"displayName"     db:"display_name"`
	PublicRepoCount int       `json:"publicRepoCount" db:"public_repo_count"`
	PersonalClicks  int64     `json:"-"               db:"personal_clicks"`
	CreatedAt       time.Time `json:"-"               db:"created_at"`
}
