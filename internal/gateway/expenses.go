package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tyleshq/tyles/internal/common"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

const expenseColumns = `id, user_id, amount, category, subcategory, description,
	receipt_url, is_business_expense, mileage, date, created_at`

// ListExpenses returns a user's expenses newest-date-first, optionally
// bounded by an inclusive date range.
func (g *SQLiteGateway) ListExpenses(ctx context.Context, userID string, r service.DateRange) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM expenses WHERE user_id = ?", expenseColumns)
	args := []any{userID}
	if r.Start != "" {
		query += " AND date >= ?"
		args = append(args, r.Start)
	}
	if r.End != "" {
		query += " AND date <= ?"
		args = append(args, r.End)
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var expenses []model.Expense
	for rows.Next() {
		e, scanErr := scanExpense(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", scanErr)
		}
		expenses = append(expenses, *e)
	}

	return expenses, rows.Err()
}

// CreateExpense inserts a new expense and returns the stored row.
func (g *SQLiteGateway) CreateExpense(ctx context.Context, expense model.Expense) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(expense.UserID, "expense.UserID"); err != nil {
		return nil, err
	}
	if err := validateString(string(expense.Category), "expense.Category"); err != nil {
		return nil, err
	}
	if err := validateString(expense.Date, "expense.Date"); err != nil {
		return nil, err
	}

	id := newID()
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, amount, category, subcategory, description,
			receipt_url, is_business_expense, mileage, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, expense.UserID, expense.Amount, expense.Category, nullStr(expense.Subcategory),
		nullStr(expense.Description), nullStr(expense.ReceiptURL), expense.IsBusinessExpense,
		nullFloat(expense.Mileage), expense.Date, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	return g.getExpenseByID(ctx, id)
}

// UpdateExpense applies a partial update and returns the updated row.
func (g *SQLiteGateway) UpdateExpense(ctx context.Context, id string, patch model.ExpensePatch) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var sets []string
	var args []any

	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Subcategory != nil {
		sets = append(sets, "subcategory = ?")
		args = append(args, nullStr(*patch.Subcategory))
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullStr(*patch.Description))
	}
	if patch.ReceiptURL != nil {
		sets = append(sets, "receipt_url = ?")
		args = append(args, nullStr(*patch.ReceiptURL))
	}
	if patch.IsBusinessExpense != nil {
		sets = append(sets, "is_business_expense = ?")
		args = append(args, *patch.IsBusinessExpense)
	}
	if patch.Mileage != nil {
		sets = append(sets, "mileage = ?")
		args = append(args, *patch.Mileage)
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *patch.Date)
	}

	if len(sets) == 0 {
		return g.getExpenseByID(ctx, id)
	}

	args = append(args, id)
	res, err := g.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE expenses SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, common.ErrNotFound
	}

	return g.getExpenseByID(ctx, id)
}

// DeleteExpense removes an expense by id; missing ids are not an error.
func (g *SQLiteGateway) DeleteExpense(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	if _, err := g.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

func (g *SQLiteGateway) getExpenseByID(ctx context.Context, id string) (*model.Expense, error) {
	row := g.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM expenses WHERE id = ?", expenseColumns), id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

func scanExpense(row rowScanner) (*model.Expense, error) {
	var e model.Expense
	var subcategory, desc, receiptURL sql.NullString
	var mileage sql.NullFloat64

	err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &subcategory, &desc,
		&receiptURL, &e.IsBusinessExpense, &mileage, &e.Date, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	e.Subcategory = subcategory.String
	e.Description = desc.String
	e.ReceiptURL = receiptURL.String
	e.Mileage = floatPtr(mileage)
	return &e, nil
}
