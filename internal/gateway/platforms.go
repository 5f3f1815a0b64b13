package gateway

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tyleshq/tyles/internal/model"
)

// ListPlatforms returns the full platform catalog ordered by name.
func (g *SQLiteGateway) ListPlatforms(ctx context.Context) ([]model.Platform, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT id, name, type, api_available, color, icon_url, created_at
		FROM platforms
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var platforms []model.Platform
	for rows.Next() {
		p, scanErr := scanPlatform(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan platform: %w", scanErr)
		}
		platforms = append(platforms, *p)
	}

	return platforms, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlatform(row rowScanner) (*model.Platform, error) {
	var p model.Platform
	var color, iconURL sql.NullString

	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.APIAvailable, &color, &iconURL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Color = color.String
	p.IconURL = iconURL.String
	return &p, nil
}
