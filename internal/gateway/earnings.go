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

const earningSelect = `
	SELECT e.id, e.user_id, e.platform_id, e.amount, e.gross_amount, e.fees, e.tips,
		e.date, e.transaction_id, e.description, e.trip_count, e.hours_worked, e.created_at,
		p.id, p.name, p.type, p.api_available, p.color, p.icon_url, p.created_at
	FROM earnings e
	LEFT JOIN platforms p ON p.id = e.platform_id`

// ListEarnings returns a user's earnings newest-date-first, optionally
// bounded by an inclusive date range, each carrying its joined platform.
func (g *SQLiteGateway) ListEarnings(ctx context.Context, userID string, r service.DateRange) ([]model.Earning, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := earningSelect + " WHERE e.user_id = ?"
	args := []any{userID}
	if r.Start != "" {
		query += " AND e.date >= ?"
		args = append(args, r.Start)
	}
	if r.End != "" {
		query += " AND e.date <= ?"
		args = append(args, r.End)
	}
	query += " ORDER BY e.date DESC, e.created_at DESC"

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query earnings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var earnings []model.Earning
	for rows.Next() {
		e, scanErr := scanEarning(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan earning: %w", scanErr)
		}
		earnings = append(earnings, *e)
	}

	return earnings, rows.Err()
}

// CreateEarning inserts a new earning and returns it with its joined platform.
func (g *SQLiteGateway) CreateEarning(ctx context.Context, earning model.Earning) (*model.Earning, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(earning.UserID, "earning.UserID"); err != nil {
		return nil, err
	}
	if err := validateString(earning.PlatformID, "earning.PlatformID"); err != nil {
		return nil, err
	}
	if err := validateString(earning.Date, "earning.Date"); err != nil {
		return nil, err
	}

	id := newID()
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO earnings (id, user_id, platform_id, amount, gross_amount, fees, tips,
			date, transaction_id, description, trip_count, hours_worked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, earning.UserID, earning.PlatformID, earning.Amount, earning.GrossAmount,
		earning.Fees, earning.Tips, earning.Date, nullStr(earning.TransactionID),
		nullStr(earning.Description), nullInt(earning.TripCount),
		nullFloat(earning.HoursWorked), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create earning: %w", err)
	}

	return g.getEarningByID(ctx, id)
}

// UpdateEarning applies a partial update and returns the updated row with its join.
func (g *SQLiteGateway) UpdateEarning(ctx context.Context, id string, patch model.EarningPatch) (*model.Earning, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var sets []string
	var args []any

	if patch.PlatformID != nil {
		sets = append(sets, "platform_id = ?")
		args = append(args, *patch.PlatformID)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.GrossAmount != nil {
		sets = append(sets, "gross_amount = ?")
		args = append(args, *patch.GrossAmount)
	}
	if patch.Fees != nil {
		sets = append(sets, "fees = ?")
		args = append(args, *patch.Fees)
	}
	if patch.Tips != nil {
		sets = append(sets, "tips = ?")
		args = append(args, *patch.Tips)
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *patch.Date)
	}
	if patch.TransactionID != nil {
		sets = append(sets, "transaction_id = ?")
		args = append(args, nullStr(*patch.TransactionID))
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullStr(*patch.Description))
	}
	if patch.TripCount != nil {
		sets = append(sets, "trip_count = ?")
		args = append(args, *patch.TripCount)
	}
	if patch.HoursWorked != nil {
		sets = append(sets, "hours_worked = ?")
		args = append(args, *patch.HoursWorked)
	}

	if len(sets) == 0 {
		return g.getEarningByID(ctx, id)
	}

	args = append(args, id)
	res, err := g.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE earnings SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update earning: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, common.ErrNotFound
	}

	return g.getEarningByID(ctx, id)
}

// DeleteEarning removes an earning by id. Deleting a missing id is not
// an error; the hosted backend's delete-by-id behaves the same way.
func (g *SQLiteGateway) DeleteEarning(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	if _, err := g.db.ExecContext(ctx, "DELETE FROM earnings WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete earning: %w", err)
	}
	return nil
}

func (g *SQLiteGateway) getEarningByID(ctx context.Context, id string) (*model.Earning, error) {
	row := g.db.QueryRowContext(ctx, earningSelect+" WHERE e.id = ?", id)
	e, err := scanEarning(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get earning: %w", err)
	}
	return e, nil
}

func scanEarning(row rowScanner) (*model.Earning, error) {
	var e model.Earning
	var txnID, desc sql.NullString
	var tripCount sql.NullInt64
	var hours sql.NullFloat64

	var pID, pName, pType, pColor, pIconURL sql.NullString
	var pAPI sql.NullBool
	var pCreated sql.NullTime

	err := row.Scan(&e.ID, &e.UserID, &e.PlatformID, &e.Amount, &e.GrossAmount,
		&e.Fees, &e.Tips, &e.Date, &txnID, &desc, &tripCount, &hours, &e.CreatedAt,
		&pID, &pName, &pType, &pAPI, &pColor, &pIconURL, &pCreated)
	if err != nil {
		return nil, err
	}

	e.TransactionID = txnID.String
	e.Description = desc.String
	e.TripCount = intPtr(tripCount)
	e.HoursWorked = floatPtr(hours)

	if pID.Valid {
		e.Platform = &model.Platform{
			ID:           pID.String,
			Name:         pName.String,
			Type:         model.PlatformType(pType.String),
			APIAvailable: pAPI.Bool,
			Color:        pColor.String,
			IconURL:      pIconURL.String,
			CreatedAt:    pCreated.Time,
		}
	}

	return &e, nil
}
