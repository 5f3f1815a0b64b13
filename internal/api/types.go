package api

import (
	"time"

	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/session"
	"github.com/tyleshq/tyles/internal/store"
)

// Response DTOs mirror the hosted backend's snake_case wire form so the
// mobile client sees one shape regardless of which gateway served it.

type apiUser struct {
	ID                  string   `json:"id"`
	Email               string   `json:"email"`
	FullName            string   `json:"full_name,omitempty"`
	Phone               string   `json:"phone,omitempty"`
	TaxFilingStatus     string   `json:"tax_filing_status,omitempty"`
	EstimatedTaxRate    *float64 `json:"estimated_tax_rate,omitempty"`
	OnboardingCompleted bool     `json:"onboarding_completed"`
}

func toAPIUser(u *model.User) apiUser {
	return apiUser{
		ID:                  u.ID,
		Email:               u.Email,
		FullName:            u.FullName,
		Phone:               u.Phone,
		TaxFilingStatus:     string(u.TaxFilingStatus),
		EstimatedTaxRate:    u.EstimatedTaxRate,
		OnboardingCompleted: u.OnboardingCompleted,
	}
}

type apiPlatform struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Color        string `json:"color,omitempty"`
	IconURL      string `json:"icon_url,omitempty"`
	APIAvailable bool   `json:"api_available"`
}

func toAPIPlatform(p model.Platform) apiPlatform {
	return apiPlatform{
		ID:           p.ID,
		Name:         p.Name,
		Type:         string(p.Type),
		Color:        p.Color,
		IconURL:      p.IconURL,
		APIAvailable: p.APIAvailable,
	}
}

func toAPIPlatforms(platforms []model.Platform) []apiPlatform {
	out := make([]apiPlatform, len(platforms))
	for i, p := range platforms {
		out[i] = toAPIPlatform(p)
	}
	return out
}

type apiEarning struct {
	ID            string       `json:"id"`
	PlatformID    string       `json:"platform_id"`
	Platform      *apiPlatform `json:"platform,omitempty"`
	Amount        float64      `json:"amount"`
	GrossAmount   float64      `json:"gross_amount"`
	Fees          float64      `json:"fees"`
	Tips          float64      `json:"tips"`
	Date          string       `json:"date"`
	TransactionID string       `json:"transaction_id,omitempty"`
	Description   string       `json:"description,omitempty"`
	TripCount     *int         `json:"trip_count,omitempty"`
	HoursWorked   *float64     `json:"hours_worked,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

func toAPIEarning(e model.Earning) apiEarning {
	out := apiEarning{
		ID:            e.ID,
		PlatformID:    e.PlatformID,
		Amount:        e.Amount,
		GrossAmount:   e.GrossAmount,
		Fees:          e.Fees,
		Tips:          e.Tips,
		Date:          e.Date,
		TransactionID: e.TransactionID,
		Description:   e.Description,
		TripCount:     e.TripCount,
		HoursWorked:   e.HoursWorked,
		CreatedAt:     e.CreatedAt,
	}
	if e.Platform != nil {
		p := toAPIPlatform(*e.Platform)
		out.Platform = &p
	}
	return out
}

type apiExpense struct {
	ID                string    `json:"id"`
	Amount            float64   `json:"amount"`
	Category          string    `json:"category"`
	Subcategory       string    `json:"subcategory,omitempty"`
	Description       string    `json:"description,omitempty"`
	ReceiptURL        string    `json:"receipt_url,omitempty"`
	IsBusinessExpense bool      `json:"is_business_expense"`
	Mileage           *float64  `json:"mileage,omitempty"`
	Date              string    `json:"date"`
	CreatedAt         time.Time `json:"created_at"`
}

func toAPIExpense(e model.Expense) apiExpense {
	return apiExpense{
		ID:                e.ID,
		Amount:            e.Amount,
		Category:          string(e.Category),
		Subcategory:       e.Subcategory,
		Description:       e.Description,
		ReceiptURL:        e.ReceiptURL,
		IsBusinessExpense: e.IsBusinessExpense,
		Mileage:           e.Mileage,
		Date:              e.Date,
		CreatedAt:         e.CreatedAt,
	}
}

type apiGoal struct {
	ID           string    `json:"id"`
	GoalType     string    `json:"goal_type"`
	TargetAmount float64   `json:"target_amount"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toAPIGoal(g model.Goal) apiGoal {
	return apiGoal{
		ID:           g.ID,
		GoalType:     string(g.GoalType),
		TargetAmount: g.TargetAmount,
		IsActive:     g.IsActive,
		CreatedAt:    g.CreatedAt,
	}
}

type apiAccount struct {
	ID                string       `json:"id"`
	PlatformID        string       `json:"platform_id"`
	Platform          *apiPlatform `json:"platform,omitempty"`
	AccountIdentifier string       `json:"account_identifier,omitempty"`
	ConnectionType    string       `json:"connection_type"`
	IsActive          bool         `json:"is_active"`
	LastSync          *time.Time   `json:"last_sync,omitempty"`
	SyncError         string       `json:"sync_error,omitempty"`
}

func toAPIAccount(a model.ConnectedAccount) apiAccount {
	out := apiAccount{
		ID:                a.ID,
		PlatformID:        a.PlatformID,
		AccountIdentifier: a.AccountIdentifier,
		ConnectionType:    string(a.ConnectionType),
		IsActive:          a.IsActive,
		LastSync:          a.LastSync,
		SyncError:         a.SyncError,
	}
	if a.Platform != nil {
		p := toAPIPlatform(*a.Platform)
		out.Platform = &p
	}
	return out
}

type apiNotification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type apiWithholding struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Percentage  float64 `json:"percentage"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Status      string  `json:"status"`
}

type apiGoalProgress struct {
	Current  float64 `json:"current"`
	Target   float64 `json:"target"`
	Progress float64 `json:"progress"`
}

func toAPIGoalProgress(g store.GoalProgress) apiGoalProgress {
	return apiGoalProgress{Current: g.Current, Target: g.Target, Progress: g.Progress}
}

type apiSummary struct {
	TotalEarnings          float64           `json:"total_earnings"`
	TotalExpenses          float64           `json:"total_expenses"`
	AvailableBalance       float64           `json:"available_balance"`
	EstimatedTaxes         float64           `json:"estimated_taxes"`
	DailyGoal              apiGoalProgress   `json:"daily_goal"`
	WeeklyGoal             apiGoalProgress   `json:"weekly_goal"`
	MonthlyGoal            apiGoalProgress   `json:"monthly_goal"`
	HasCompletedOnboarding bool              `json:"has_completed_onboarding"`
	Errors                 map[string]string `json:"errors,omitempty"`
}

type apiPlatformSummary struct {
	PlatformID    string       `json:"platform_id"`
	Platform      *apiPlatform `json:"platform,omitempty"`
	TotalEarnings float64      `json:"total_earnings"`
	TotalHours    float64      `json:"total_hours"`
	TotalTrips    int          `json:"total_trips"`
}

type apiCategorySummary struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

type apiActivity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAPIActivity(a session.Activity) apiActivity {
	return apiActivity{
		ID:          a.ID,
		Type:        a.Type,
		Amount:      a.Amount,
		Description: a.Description,
		Date:        a.Date,
		CreatedAt:   a.CreatedAt,
	}
}

// Request payloads. Patch requests use pointers so absent fields stay
// untouched.

type userPatchRequest struct {
	Email               *string  `json:"email"`
	FullName            *string  `json:"full_name"`
	Phone               *string  `json:"phone"`
	OnboardingCompleted *bool    `json:"onboarding_completed"`
	TaxFilingStatus     *string  `json:"tax_filing_status"`
	EstimatedTaxRate    *float64 `json:"estimated_tax_rate"`
}

type earningRequest struct {
	PlatformID    string   `json:"platform_id"`
	Amount        float64  `json:"amount"`
	GrossAmount   float64  `json:"gross_amount"`
	Fees          float64  `json:"fees"`
	Tips          float64  `json:"tips"`
	Date          string   `json:"date"`
	TransactionID string   `json:"transaction_id"`
	Description   string   `json:"description"`
	TripCount     *int     `json:"trip_count"`
	HoursWorked   *float64 `json:"hours_worked"`
}

type earningPatchRequest struct {
	PlatformID    *string  `json:"platform_id"`
	Amount        *float64 `json:"amount"`
	GrossAmount   *float64 `json:"gross_amount"`
	Fees          *float64 `json:"fees"`
	Tips          *float64 `json:"tips"`
	Date          *string  `json:"date"`
	TransactionID *string  `json:"transaction_id"`
	Description   *string  `json:"description"`
	TripCount     *int     `json:"trip_count"`
	HoursWorked   *float64 `json:"hours_worked"`
}

type expenseRequest struct {
	Amount            float64  `json:"amount"`
	Category          string   `json:"category"`
	Subcategory       string   `json:"subcategory"`
	Description       string   `json:"description"`
	ReceiptURL        string   `json:"receipt_url"`
	IsBusinessExpense bool     `json:"is_business_expense"`
	Mileage           *float64 `json:"mileage"`
	Date              string   `json:"date"`
}

type expensePatchRequest struct {
	Amount            *float64 `json:"amount"`
	Category          *string  `json:"category"`
	Subcategory       *string  `json:"subcategory"`
	Description       *string  `json:"description"`
	ReceiptURL        *string  `json:"receipt_url"`
	IsBusinessExpense *bool    `json:"is_business_expense"`
	Mileage           *float64 `json:"mileage"`
	Date              *string  `json:"date"`
}

type goalRequest struct {
	GoalType     string  `json:"goal_type"`
	TargetAmount float64 `json:"target_amount"`
	IsActive     *bool   `json:"is_active"`
}

type goalPatchRequest struct {
	GoalType     *string  `json:"goal_type"`
	TargetAmount *float64 `json:"target_amount"`
	IsActive     *bool    `json:"is_active"`
}
