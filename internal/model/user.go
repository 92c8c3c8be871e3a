// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created either by email/password registration or by the first
// GitHub login. GitHubID is zero for password accounts; the storage layer keeps
// it NULL in that case so the UNIQUE constraint only applies to real IDs.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"`
	IsStaff      bool      `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// UserProfile is a user as seen by a particular viewer.
type UserProfile struct {
	User
	IsSubscribed bool `json:"is_subscribed"`
}

// Subscription is a followed author together with a preview of their recipes.
type Subscription struct {
	UserProfile
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int             `json:"recipes_count"`
}
