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

const goalColumns = `id, user_id, goal_type, target_amount, is_active, created_at`

// ListGoals returns a user's active goals, newest first.
func (g *SQLiteGateway) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := g.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM user_goals
		WHERE user_id = ? AND is_active = 1
		ORDER BY created_at DESC`, goalColumns), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.Goal
	for rows.Next() {
		var goal model.Goal
		if scanErr := rows.Scan(&goal.ID, &goal.UserID, &goal.GoalType,
			&goal.TargetAmount, &goal.IsActive, &goal.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", scanErr)
		}
		goals = append(goals, goal)
	}

	return goals, rows.Err()
}

// CreateGoal inserts a new goal and returns the stored row.
func (g *SQLiteGateway) CreateGoal(ctx context.Context, goal model.Goal) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(goal.UserID, "goal.UserID"); err != nil {
		return nil, err
	}
	if err := validateString(string(goal.GoalType), "goal.GoalType"); err != nil {
		return nil, err
	}

	id := newID()
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO user_goals (id, user_id, goal_type, target_amount, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, goal.UserID, goal.GoalType, goal.TargetAmount, goal.IsActive, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return g.getGoalByID(ctx, id)
}

// UpdateGoal applies a partial update and returns the updated row.
func (g *SQLiteGateway) UpdateGoal(ctx context.Context, id string, patch model.GoalPatch) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var sets []string
	var args []any

	if patch.GoalType != nil {
		sets = append(sets, "goal_type = ?")
		args = append(args, *patch.GoalType)
	}
	if patch.TargetAmount != nil {
		sets = append(sets, "target_amount = ?")
		args = append(args, *patch.TargetAmount)
	}
	if patch.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *patch.IsActive)
	}

	if len(sets) == 0 {
		return g.getGoalByID(ctx, id)
	}

	args = append(args, id)
	res, err := g.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE user_goals SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, common.ErrNotFound
	}

	return g.getGoalByID(ctx, id)
}

// DeleteGoal removes a goal by id; missing ids are not an error.
func (g *SQLiteGateway) DeleteGoal(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	if _, err := g.db.ExecContext(ctx, "DELETE FROM user_goals WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

func (g *SQLiteGateway) getGoalByID(ctx context.Context, id string) (*model.Goal, error) {
	var goal model.Goal
	err := g.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM user_goals WHERE id = ?", goalColumns), id).
		Scan(&goal.ID, &goal.UserID, &goal.GoalType, &goal.TargetAmount,
			&goal.IsActive, &goal.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return &goal, nil
}
