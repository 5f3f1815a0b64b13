package model

import "time"

// WithholdingStatus tracks processing of a tax set-aside.
type WithholdingStatus string

const (
	// WithholdingPending means the set-aside has not been processed yet.
	WithholdingPending WithholdingStatus = "pending"
	// WithholdingProcessed means the set-aside completed.
	WithholdingProcessed WithholdingStatus = "processed"
	// WithholdingFailed means the set-aside could not be processed.
	WithholdingFailed WithholdingStatus = "failed"
)

// TaxWithholding is an amount set aside for taxes over a period.
// PeriodStart and PeriodEnd are calendar date strings in DateLayout form.
type TaxWithholding struct {
	CreatedAt   time.Time
	ID          string
	UserID      string
	PeriodStart string
	PeriodEnd   string
	Status      WithholdingStatus
	Amount      float64
	Percentage  float64
}
