package model

import "time"

// Earning is a recorded income event tied to a user and a platform.
// Amount is the net payout; GrossAmount, Fees and Tips are the parts it
// was derived from. Date is a calendar date string in DateLayout form.
type Earning struct {
	CreatedAt     time.Time
	Platform      *Platform
	TripCount     *int
	HoursWorked   *float64
	ID            string
	UserID        string
	PlatformID    string
	Date          string
	TransactionID string
	Description   string
	Amount        float64
	GrossAmount   float64
	Fees          float64
	Tips          float64
}

// NetFromParts computes the net amount the entry forms expect:
// gross minus fees plus tips. The store never enforces this; it exists
// so entry surfaces can pre-fill and cross-check the net field.
func (e *Earning) NetFromParts() float64 {
	return e.GrossAmount - e.Fees + e.Tips
}

// EarningPatch carries a partial earning update. Nil fields are left untouched.
type EarningPatch struct {
	PlatformID    *string
	Amount        *float64
	GrossAmount   *float64
	Fees          *float64
	Tips          *float64
	Date          *string
	TransactionID *string
	Description   *string
	TripCount     *int
	HoursWorked   *float64
}
