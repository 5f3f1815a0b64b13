package sheets

import (
	"sort"

	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

// Report is the aggregated data written to a spreadsheet.
type Report struct {
	User             *model.User
	Range            service.DateRange
	Earnings         []model.Earning
	Expenses         []model.Expense
	ByPlatform       []PlatformRow
	ByCategory       []CategoryRow
	TotalEarnings    float64
	TotalExpenses    float64
	EstimatedTaxes   float64
	AvailableBalance float64
}

// PlatformRow is one platform's slice of the earnings breakdown.
type PlatformRow struct {
	PlatformName string
	Total        float64
	Hours        float64
	Trips        int
	Count        int
}

// CategoryRow is one category's slice of the expense breakdown.
type CategoryRow struct {
	Category string
	Total    float64
	Count    int
}

// BuildReport aggregates earnings and expenses into a report. Estimated
// taxes are computed on gross earnings before expense deductions, using
// the user's rate.
func BuildReport(user *model.User, platforms []model.Platform, earnings []model.Earning, expenses []model.Expense, rng service.DateRange) *Report {
	names := make(map[string]string, len(platforms))
	for _, p := range platforms {
		names[p.ID] = p.Name
	}

	byPlatform := make(map[string]*PlatformRow)
	platformOrder := make([]string, 0)
	var totalEarnings float64
	for i := range earnings {
		e := &earnings[i]
		totalEarnings += e.Amount

		row, ok := byPlatform[e.PlatformID]
		if !ok {
			name := names[e.PlatformID]
			if name == "" {
				name = "Unknown"
			}
			row = &PlatformRow{PlatformName: name}
			byPlatform[e.PlatformID] = row
			platformOrder = append(platformOrder, e.PlatformID)
		}
		row.Total += e.Amount
		row.Count++
		if e.HoursWorked != nil {
			row.Hours += *e.HoursWorked
		}
		if e.TripCount != nil {
			row.Trips += *e.TripCount
		}
	}

	byCategory := make(map[model.ExpenseCategory]*CategoryRow)
	categoryOrder := make([]model.ExpenseCategory, 0)
	var totalExpenses float64
	for i := range expenses {
		x := &expenses[i]
		totalExpenses += x.Amount

		row, ok := byCategory[x.Category]
		if !ok {
			row = &CategoryRow{Category: string(x.Category)}
			byCategory[x.Category] = row
			categoryOrder = append(categoryOrder, x.Category)
		}
		row.Total += x.Amount
		row.Count++
	}

	report := &Report{
		User:           user,
		Range:          rng,
		Earnings:       earnings,
		Expenses:       expenses,
		TotalEarnings:  totalEarnings,
		TotalExpenses:  totalExpenses,
		EstimatedTaxes: totalEarnings * user.TaxRate(),
	}
	report.AvailableBalance = totalEarnings - totalExpenses - report.EstimatedTaxes

	report.ByPlatform = make([]PlatformRow, 0, len(platformOrder))
	for _, id := range platformOrder {
		report.ByPlatform = append(report.ByPlatform, *byPlatform[id])
	}
	sort.SliceStable(report.ByPlatform, func(i, j int) bool {
		return report.ByPlatform[i].Total > report.ByPlatform[j].Total
	})

	report.ByCategory = make([]CategoryRow, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		report.ByCategory = append(report.ByCategory, *byCategory[cat])
	}
	sort.SliceStable(report.ByCategory, func(i, j int) bool {
		return report.ByCategory[i].Total > report.ByCategory[j].Total
	})

	return report
}
