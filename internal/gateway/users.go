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
)

const userColumns = `id, auth_uid, email, full_name, phone, onboarding_completed,
	tax_filing_status, estimated_tax_rate, created_at, updated_at`

// GetUserByAuthUID looks up the user owning an external identity.
// Returns common.ErrNotFound when no row matches.
func (g *SQLiteGateway) GetUserByAuthUID(ctx context.Context, authUID string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(authUID, "authUID"); err != nil {
		return nil, err
	}

	row := g.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE auth_uid = ?", userColumns), authUID)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user row and returns it with generated fields set.
func (g *SQLiteGateway) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(user.AuthUID, "user.AuthUID"); err != nil {
		return nil, err
	}

	id := newID()
	now := time.Now().UTC()
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO users (id, auth_uid, email, full_name, phone, onboarding_completed,
			tax_filing_status, estimated_tax_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, user.AuthUID, user.Email, nullStr(user.FullName), nullStr(user.Phone),
		user.OnboardingCompleted, nullStr(string(user.TaxFilingStatus)),
		nullFloat(user.EstimatedTaxRate), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user with auth UID %s", common.ErrDuplicateEntry, user.AuthUID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return g.getUserByID(ctx, id)
}

// UpdateUser applies a partial update and returns the updated row.
func (g *SQLiteGateway) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, nullStr(*patch.FullName))
	}
	if patch.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, nullStr(*patch.Phone))
	}
	if patch.OnboardingCompleted != nil {
		sets = append(sets, "onboarding_completed = ?")
		args = append(args, *patch.OnboardingCompleted)
	}
	if patch.TaxFilingStatus != nil {
		sets = append(sets, "tax_filing_status = ?")
		args = append(args, nullStr(string(*patch.TaxFilingStatus)))
	}
	if patch.EstimatedTaxRate != nil {
		sets = append(sets, "estimated_tax_rate = ?")
		args = append(args, *patch.EstimatedTaxRate)
	}

	args = append(args, id)
	res, err := g.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, common.ErrNotFound
	}

	return g.getUserByID(ctx, id)
}

func (g *SQLiteGateway) getUserByID(ctx context.Context, id string) (*model.User, error) {
	row := g.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE id = ?", userColumns), id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var fullName, phone, filing sql.NullString
	var rate sql.NullFloat64

	err := row.Scan(&u.ID, &u.AuthUID, &u.Email, &fullName, &phone,
		&u.OnboardingCompleted, &filing, &rate, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	u.FullName = fullName.String
	u.Phone = phone.String
	u.TaxFilingStatus = model.TaxFilingStatus(filing.String)
	u.EstimatedTaxRate = floatPtr(rate)
	return &u, nil
}
