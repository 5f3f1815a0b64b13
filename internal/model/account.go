package model

import "time"

// ConnectionType describes how a connected account is synced.
type ConnectionType string

const (
	// ConnectionPlaid syncs through the Plaid aggregator.
	ConnectionPlaid ConnectionType = "plaid"
	// ConnectionManual means the user enters earnings by hand.
	ConnectionManual ConnectionType = "manual"
	// ConnectionEmailParse extracts earnings from payout emails.
	ConnectionEmailParse ConnectionType = "email_parse"
	// ConnectionAPI uses a platform's own API.
	ConnectionAPI ConnectionType = "api"
)

// ConnectedAccount links a user to an external platform account.
type ConnectedAccount struct {
	CreatedAt         time.Time
	LastSync          *time.Time
	Platform          *Platform
	ID                string
	UserID            string
	PlatformID        string
	AccountIdentifier string
	ConnectionType    ConnectionType
	SyncError         string
	IsActive          bool
}
