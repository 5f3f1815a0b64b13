package gateway

import (
	"time"

	"github.com/tyleshq/tyles/internal/model"
)

// Wire types mirror the hosted backend's JSON rows. Nullable columns
// come back as pointers; embedded joins arrive under the joined table's
// name. toModel converts each row to its domain type.

type wireUser struct {
	ID                  string                `json:"id"`
	AuthUID             string                `json:"auth_uid"`
	Email               string                `json:"email"`
	FullName            *string               `json:"full_name"`
	Phone               *string               `json:"phone"`
	TaxFilingStatus     *model.TaxFilingStatus `json:"tax_filing_status"`
	EstimatedTaxRate    *float64              `json:"estimated_tax_rate"`
	OnboardingCompleted bool                  `json:"onboarding_completed"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

func (w *wireUser) toModel() *model.User {
	u := &model.User{
		ID:                  w.ID,
		AuthUID:             w.AuthUID,
		Email:               w.Email,
		EstimatedTaxRate:    w.EstimatedTaxRate,
		OnboardingCompleted: w.OnboardingCompleted,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
	}
	if w.FullName != nil {
		u.FullName = *w.FullName
	}
	if w.Phone != nil {
		u.Phone = *w.Phone
	}
	if w.TaxFilingStatus != nil {
		u.TaxFilingStatus = *w.TaxFilingStatus
	}
	return u
}

type wirePlatform struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Type         model.PlatformType `json:"type"`
	Color        *string            `json:"color"`
	IconURL      *string            `json:"icon_url"`
	APIAvailable bool               `json:"api_available"`
	CreatedAt    time.Time          `json:"created_at"`
}

func (w *wirePlatform) toModel() *model.Platform {
	p := &model.Platform{
		ID:           w.ID,
		Name:         w.Name,
		Type:         w.Type,
		APIAvailable: w.APIAvailable,
		CreatedAt:    w.CreatedAt,
	}
	if w.Color != nil {
		p.Color = *w.Color
	}
	if w.IconURL != nil {
		p.IconURL = *w.IconURL
	}
	return p
}

type wireEarning struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	PlatformID    string        `json:"platform_id"`
	Amount        float64       `json:"amount"`
	GrossAmount   float64       `json:"gross_amount"`
	Fees          float64       `json:"fees"`
	Tips          float64       `json:"tips"`
	Date          string        `json:"date"`
	TransactionID *string       `json:"transaction_id"`
	Description   *string       `json:"description"`
	TripCount     *int          `json:"trip_count"`
	HoursWorked   *float64      `json:"hours_worked"`
	CreatedAt     time.Time     `json:"created_at"`
	Platform      *wirePlatform `json:"platforms"`
}

func (w *wireEarning) toModel() *model.Earning {
	e := &model.Earning{
		ID:          w.ID,
		UserID:      w.UserID,
		PlatformID:  w.PlatformID,
		Amount:      w.Amount,
		GrossAmount: w.GrossAmount,
		Fees:        w.Fees,
		Tips:        w.Tips,
		Date:        w.Date,
		TripCount:   w.TripCount,
		HoursWorked: w.HoursWorked,
		CreatedAt:   w.CreatedAt,
	}
	if w.TransactionID != nil {
		e.TransactionID = *w.TransactionID
	}
	if w.Description != nil {
		e.Description = *w.Description
	}
	if w.Platform != nil {
		e.Platform = w.Platform.toModel()
	}
	return e
}

type wireExpense struct {
	ID                string                `json:"id"`
	UserID            string                `json:"user_id"`
	Amount            float64               `json:"amount"`
	Category          model.ExpenseCategory `json:"category"`
	Subcategory       *string               `json:"subcategory"`
	Description       *string               `json:"description"`
	ReceiptURL        *string               `json:"receipt_url"`
	IsBusinessExpense bool                  `json:"is_business_expense"`
	Mileage           *float64              `json:"mileage"`
	Date              string                `json:"date"`
	CreatedAt         time.Time             `json:"created_at"`
}

func (w *wireExpense) toModel() *model.Expense {
	e := &model.Expense{
		ID:                w.ID,
		UserID:            w.UserID,
		Amount:            w.Amount,
		Category:          w.Category,
		IsBusinessExpense: w.IsBusinessExpense,
		Mileage:           w.Mileage,
		Date:              w.Date,
		CreatedAt:         w.CreatedAt,
	}
	if w.Subcategory != nil {
		e.Subcategory = *w.Subcategory
	}
	if w.Description != nil {
		e.Description = *w.Description
	}
	if w.ReceiptURL != nil {
		e.ReceiptURL = *w.ReceiptURL
	}
	return e
}

type wireGoal struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	GoalType     model.GoalType `json:"goal_type"`
	TargetAmount float64        `json:"target_amount"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (w *wireGoal) toModel() *model.Goal {
	return &model.Goal{
		ID:           w.ID,
		UserID:       w.UserID,
		GoalType:     w.GoalType,
		TargetAmount: w.TargetAmount,
		IsActive:     w.IsActive,
		CreatedAt:    w.CreatedAt,
	}
}

type wireAccount struct {
	ID                string               `json:"id"`
	UserID            string               `json:"user_id"`
	PlatformID        string               `json:"platform_id"`
	AccountIdentifier *string              `json:"account_identifier"`
	ConnectionType    model.ConnectionType `json:"connection_type"`
	IsActive          bool                 `json:"is_active"`
	LastSync          *time.Time           `json:"last_sync"`
	SyncError         *string              `json:"sync_error"`
	CreatedAt         time.Time            `json:"created_at"`
	Platform          *wirePlatform        `json:"platforms"`
}

func (w *wireAccount) toModel() *model.ConnectedAccount {
	a := &model.ConnectedAccount{
		ID:             w.ID,
		UserID:         w.UserID,
		PlatformID:     w.PlatformID,
		ConnectionType: w.ConnectionType,
		IsActive:       w.IsActive,
		LastSync:       w.LastSync,
		CreatedAt:      w.CreatedAt,
	}
	if w.AccountIdentifier != nil {
		a.AccountIdentifier = *w.AccountIdentifier
	}
	if w.SyncError != nil {
		a.SyncError = *w.SyncError
	}
	if w.Platform != nil {
		a.Platform = w.Platform.toModel()
	}
	return a
}

type wireNotification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *wireNotification) toModel() *model.Notification {
	return &model.Notification{
		ID:        w.ID,
		UserID:    w.UserID,
		Title:     w.Title,
		Message:   w.Message,
		Type:      w.Type,
		IsRead:    w.IsRead,
		CreatedAt: w.CreatedAt,
	}
}

type wireWithholding struct {
	ID          string                  `json:"id"`
	UserID      string                  `json:"user_id"`
	Amount      float64                 `json:"amount"`
	Percentage  float64                 `json:"percentage"`
	PeriodStart string                  `json:"period_start"`
	PeriodEnd   string                  `json:"period_end"`
	Status      model.WithholdingStatus `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
}

func (w *wireWithholding) toModel() *model.TaxWithholding {
	return &model.TaxWithholding{
		ID:          w.ID,
		UserID:      w.UserID,
		Amount:      w.Amount,
		Percentage:  w.Percentage,
		PeriodStart: w.PeriodStart,
		PeriodEnd:   w.PeriodEnd,
		Status:      w.Status,
		CreatedAt:   w.CreatedAt,
	}
}
