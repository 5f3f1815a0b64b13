package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tyleshq/tyles/internal/common"
	"github.com/tyleshq/tyles/internal/model"
)

const accountSelect = `
	SELECT a.id, a.user_id, a.platform_id, a.account_identifier, a.connection_type,
		a.is_active, a.last_sync, a.sync_error, a.created_at,
		p.id, p.name, p.type, p.api_available, p.color, p.icon_url, p.created_at
	FROM connected_accounts a
	LEFT JOIN platforms p ON p.id = a.platform_id`

// ListConnectedAccounts returns a user's connected accounts newest
// first, each carrying its joined platform.
func (g *SQLiteGateway) ListConnectedAccounts(ctx context.Context, userID string) ([]model.ConnectedAccount, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := g.db.QueryContext(ctx,
		accountSelect+" WHERE a.user_id = ? ORDER BY a.created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connected accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.ConnectedAccount
	for rows.Next() {
		a, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan connected account: %w", scanErr)
		}
		accounts = append(accounts, *a)
	}

	return accounts, rows.Err()
}

// CreateConnectedAccount inserts a new account link and returns it with its join.
func (g *SQLiteGateway) CreateConnectedAccount(ctx context.Context, account model.ConnectedAccount) (*model.ConnectedAccount, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(account.UserID, "account.UserID"); err != nil {
		return nil, err
	}
	if err := validateString(account.PlatformID, "account.PlatformID"); err != nil {
		return nil, err
	}

	id := newID()
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO connected_accounts (id, user_id, platform_id, account_identifier,
			connection_type, is_active, last_sync, sync_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, account.UserID, account.PlatformID, account.AccountIdentifier,
		account.ConnectionType, account.IsActive, nullTime(account.LastSync),
		nullStr(account.SyncError), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create connected account: %w", err)
	}

	return g.getAccountByID(ctx, id)
}

// UpdateAccountSync records the outcome of a sync attempt. An empty
// syncError clears any previous failure.
func (g *SQLiteGateway) UpdateAccountSync(ctx context.Context, id string, lastSync time.Time, syncError string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := g.db.ExecContext(ctx,
		"UPDATE connected_accounts SET last_sync = ?, sync_error = ? WHERE id = ?",
		lastSync, nullStr(syncError), id)
	if err != nil {
		return fmt.Errorf("failed to update account sync: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (g *SQLiteGateway) getAccountByID(ctx context.Context, id string) (*model.ConnectedAccount, error) {
	row := g.db.QueryRowContext(ctx, accountSelect+" WHERE a.id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connected account: %w", err)
	}
	return a, nil
}

func scanAccount(row rowScanner) (*model.ConnectedAccount, error) {
	var a model.ConnectedAccount
	var lastSync sql.NullTime
	var syncError sql.NullString

	var pID, pName, pType, pColor, pIconURL sql.NullString
	var pAPI sql.NullBool
	var pCreated sql.NullTime

	err := row.Scan(&a.ID, &a.UserID, &a.PlatformID, &a.AccountIdentifier,
		&a.ConnectionType, &a.IsActive, &lastSync, &syncError, &a.CreatedAt,
		&pID, &pName, &pType, &pAPI, &pColor, &pIconURL, &pCreated)
	if err != nil {
		return nil, err
	}

	a.LastSync = timePtr(lastSync)
	a.SyncError = syncError.String

	if pID.Valid {
		a.Platform = &model.Platform{
			ID:           pID.String,
			Name:         pName.String,
			Type:         model.PlatformType(pType.String),
			APIAvailable: pAPI.Bool,
			Color:        pColor.String,
			IconURL:      pIconURL.String,
			CreatedAt:    pCreated.Time,
		}
	}

	return &a, nil
}
