package model

import "time"

// PlatformType classifies a gig platform by the kind of work it sources.
type PlatformType string

const (
	// PlatformRideshare covers ride-hailing services.
	PlatformRideshare PlatformType = "rideshare"
	// PlatformDelivery covers food and package delivery services.
	PlatformDelivery PlatformType = "delivery"
	// PlatformFreelance covers freelance marketplaces.
	PlatformFreelance PlatformType = "freelance"
	// PlatformOther covers everything else.
	PlatformOther PlatformType = "other"
)

// Platform is a catalog entry for a gig-work source. The catalog is
// shared reference data, not user-owned, and is fetched once per session.
type Platform struct {
	CreatedAt    time.Time
	ID           string
	Name         string
	Type         PlatformType
	Color        string
	IconURL      string
	APIAvailable bool
}
