package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// List returns the current version of every indicator.
func (r *PGRepo) List(ctx context.Context) (Catalog, error) {
	const query = `
SELECT code, name, pillar, theme, direction, normalization, min_ref, max_ref, weight,
       interpretation, sectors, version
FROM indicators
ORDER BY code`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return Catalog{}, err
	}
	defer rows.Close()

	var indicators []Indicator
	for rows.Next() {
		var ind Indicator
		var interpretation sql.NullString
		var sectors sql.NullString
		if err := rows.Scan(
			&ind.Code,
			&ind.Name,
			&ind.Pillar,
			&ind.Theme,
			&ind.Direction,
			&ind.Normalization,
			&ind.MinRef,
			&ind.MaxRef,
			&ind.Weight,
			&interpretation,
			&sectors,
			&ind.Version,
		); err != nil {
			return Catalog{}, err
		}
		if interpretation.Valid {
			ind.Interpretation = Interpretation(interpretation.String)
		}
		if sectors.Valid && sectors.String != "" {
			if err := json.Unmarshal([]byte(sectors.String), &ind.Sectors); err != nil {
				return Catalog{}, fmt.Errorf("decode sectors for %s: %w", ind.Code, err)
			}
		}
		indicators = append(indicators, ind)
	}
	if err := rows.Err(); err != nil {
		return Catalog{}, err
	}
	return New(indicators), nil
}

// Upsert inserts indicators. Existing codes are replaced and their version bumped.
func (r *PGRepo) Upsert(ctx context.Context, indicators []Indicator) error {
	const query = `
INSERT INTO indicators (
	code, name, pillar, theme, direction, normalization, min_ref, max_ref, weight,
	interpretation, sectors, version, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, NOW())
ON CONFLICT (code) DO UPDATE SET
	name = EXCLUDED.name,
	pillar = EXCLUDED.pillar,
	theme = EXCLUDED.theme,
	direction = EXCLUDED.direction,
	normalization = EXCLUDED.normalization,
	min_ref = EXCLUDED.min_ref,
	max_ref = EXCLUDED.max_ref,
	weight = EXCLUDED.weight,
	interpretation = EXCLUDED.interpretation,
	sectors = EXCLUDED.sectors,
	version = indicators.version + 1,
	updated_at = NOW()`
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ind := range indicators {
		sectors, err := json.Marshal(ind.Sectors)
		if err != nil {
			return err
		}
		var interpretation any
		if ind.Interpretation != "" {
			interpretation = string(ind.Interpretation)
		}
		if _, err := tx.ExecContext(ctx, query,
			NormalizeCode(ind.Code),
			ind.Name,
			string(ind.Pillar),
			ind.Theme,
			string(ind.Direction),
			string(ind.Normalization),
			ind.MinRef,
			ind.MaxRef,
			ind.Weight,
			interpretation,
			string(sectors),
		); err != nil {
			return fmt.Errorf("upsert indicator %s: %w", ind.Code, err)
		}
	}
	return tx.Commit()
}
