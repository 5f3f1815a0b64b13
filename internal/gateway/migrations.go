package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					auth_uid TEXT UNIQUE NOT NULL,
					email TEXT NOT NULL,
					full_name TEXT,
					phone TEXT,
					onboarding_completed BOOLEAN DEFAULT 0,
					tax_filing_status TEXT,
					estimated_tax_rate REAL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS platforms (
					id TEXT PRIMARY KEY,
					name TEXT UNIQUE NOT NULL,
					type TEXT NOT NULL,
					api_available BOOLEAN DEFAULT 0,
					color TEXT,
					icon_url TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS earnings (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					platform_id TEXT NOT NULL,
					amount REAL NOT NULL,
					gross_amount REAL NOT NULL,
					fees REAL DEFAULT 0,
					tips REAL DEFAULT 0,
					date TEXT NOT NULL,
					transaction_id TEXT,
					description TEXT,
					trip_count INTEGER,
					hours_worked REAL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id),
					FOREIGN KEY (platform_id) REFERENCES platforms(id)
				)`,
				`CREATE INDEX idx_earnings_user_date ON earnings(user_id, date)`,

				`CREATE TABLE IF NOT EXISTS expenses (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					amount REAL NOT NULL,
					category TEXT NOT NULL,
					subcategory TEXT,
					description TEXT,
					receipt_url TEXT,
					is_business_expense BOOLEAN DEFAULT 1,
					mileage REAL,
					date TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_expenses_user_date ON expenses(user_id, date)`,

				`CREATE TABLE IF NOT EXISTS user_goals (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					goal_type TEXT NOT NULL,
					target_amount REAL NOT NULL,
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_user_goals_user ON user_goals(user_id, is_active)`,

				`CREATE TABLE IF NOT EXISTS connected_accounts (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					platform_id TEXT NOT NULL,
					account_identifier TEXT NOT NULL,
					connection_type TEXT NOT NULL,
					is_active BOOLEAN DEFAULT 1,
					last_sync DATETIME,
					sync_error TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id),
					FOREIGN KEY (platform_id) REFERENCES platforms(id)
				)`,
				`CREATE INDEX idx_connected_accounts_user ON connected_accounts(user_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed platform catalog",
		Up: func(tx *sql.Tx) error {
			stmt, err := tx.Prepare(`
				INSERT OR IGNORE INTO platforms (id, name, type, api_available, color)
				VALUES (?, ?, ?, ?, ?)
			`)
			if err != nil {
				return fmt.Errorf("failed to prepare seed statement: %w", err)
			}
			defer func() { _ = stmt.Close() }()

			seed := []struct {
				name  string
				typ   string
				color string
				api   bool
			}{
				{"DoorDash", "delivery", "#FF3008", true},
				{"Grubhub", "delivery", "#F63440", false},
				{"Instacart", "delivery", "#43B02A", false},
				{"Lyft", "rideshare", "#FF00BF", true},
				{"TaskRabbit", "freelance", "#0E8A44", false},
				{"Uber", "rideshare", "#000000", true},
				{"Uber Eats", "delivery", "#06C167", true},
				{"Upwork", "freelance", "#14A800", false},
			}
			for _, p := range seed {
				if _, err := stmt.Exec(newID(), p.name, p.typ, p.api, p.color); err != nil {
					return fmt.Errorf("failed to seed platform %s: %w", p.name, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add notifications and tax withholdings",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS notifications (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					title TEXT NOT NULL,
					message TEXT NOT NULL,
					type TEXT NOT NULL,
					is_read BOOLEAN DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_notifications_user ON notifications(user_id, is_read)`,

				`CREATE TABLE IF NOT EXISTS tax_withholdings (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					amount REAL NOT NULL,
					percentage REAL NOT NULL,
					period_start TEXT NOT NULL,
					period_end TEXT NOT NULL,
					status TEXT DEFAULT 'pending',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_tax_withholdings_user ON tax_withholdings(user_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to ExpectedSchemaVersion.
func (g *SQLiteGateway) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := g.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := g.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = g.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
