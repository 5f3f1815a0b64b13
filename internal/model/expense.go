package model

import "time"

// ExpenseCategory classifies a business cost.
type ExpenseCategory string

const (
	// ExpenseFuel covers gas and charging.
	ExpenseFuel ExpenseCategory = "fuel"
	// ExpenseMaintenance covers vehicle upkeep and repairs.
	ExpenseMaintenance ExpenseCategory = "maintenance"
	// ExpenseInsurance covers insurance premiums.
	ExpenseInsurance ExpenseCategory = "insurance"
	// ExpensePhone covers phone and data plans.
	ExpensePhone ExpenseCategory = "phone"
	// ExpenseFood covers meals while working.
	ExpenseFood ExpenseCategory = "food"
	// ExpenseSupplies covers equipment and supplies.
	ExpenseSupplies ExpenseCategory = "supplies"
	// ExpenseOther covers everything else.
	ExpenseOther ExpenseCategory = "other"
)

// ExpenseCategories lists every valid category, in display order.
func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		ExpenseFuel,
		ExpenseMaintenance,
		ExpenseInsurance,
		ExpensePhone,
		ExpenseFood,
		ExpenseSupplies,
		ExpenseOther,
	}
}

// Expense is a recorded business cost tied to a user and a category.
// Date is a calendar date string in DateLayout form.
type Expense struct {
	CreatedAt         time.Time
	Mileage           *float64
	ID                string
	UserID            string
	Category          ExpenseCategory
	Subcategory       string
	Description       string
	ReceiptURL        string
	Date              string
	Amount            float64
	IsBusinessExpense bool
}

// ExpensePatch carries a partial expense update. Nil fields are left untouched.
type ExpensePatch struct {
	Amount            *float64
	Category          *ExpenseCategory
	Subcategory       *string
	Description       *string
	ReceiptURL        *string
	IsBusinessExpense *bool
	Mileage           *float64
	Date              *string
}
