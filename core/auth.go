package core

import "time"

// Session represents an authenticated user session
type Session struct {
	ID            string    // Unique session identifier
	AccountID     string    // Identifier of the account this session belongs to
	Address       string    // Ethereum address of the user
	IssuedAt      time.Time // When the session was created
	RefreshExpiry time.Time // When the refresh capability expires
	AccessExpiry  time.Time // When the access capability expires
	RefreshID     string    // Unique identifier for the refresh token
}
