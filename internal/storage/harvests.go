package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"beespeak/internal/domain"
)

const harvestColumns = `id, hive_id, harvested_at, weight_kg, notes, created_at, modified_at`

func scanHarvest(row pgx.Row) (domain.Harvest, error) {
	var harvest domain.Harvest
	err := row.Scan(
		&harvest.ID,
		&harvest.HiveID,
		&harvest.Date,
		&harvest.WeightKg,
		&harvest.Notes,
		&harvest.CreatedAt,
		&harvest.ModifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Harvest{}, domain.ErrHarvestNotFound
	}
	return harvest, err
}

func (d *DB) CreateHarvest(ctx context.Context, harvest domain.Harvest) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO harvests (`+harvestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		harvest.ID,
		harvest.HiveID,
		harvest.Date,
		harvest.WeightKg,
		harvest.Notes,
		harvest.CreatedAt,
		harvest.ModifiedAt,
	)
	if isForeignKeyViolation(err) {
		return domain.ErrHiveNotFound
	}
	return err
}

func (d *DB) ListHarvests(ctx context.Context, hiveID uuid.UUID) ([]domain.Harvest, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+harvestColumns+`
		FROM harvests
		WHERE hive_id = $1
		ORDER BY harvested_at DESC
	`, hiveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var harvests []domain.Harvest
	for rows.Next() {
		harvest, err := scanHarvest(rows)
		if err != nil {
			return nil, err
		}
		harvests = append(harvests, harvest)
	}
	return harvests, rows.Err()
}

func (d *DB) DeleteHarvest(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM harvests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrHarvestNotFound
	}
	return nil
}
