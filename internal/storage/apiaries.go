package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"beespeak/internal/domain"
)

const apiaryColumns = `id, name, latitude, longitude, notes, created_at, modified_at`

func scanApiary(row pgx.Row) (domain.Apiary, error) {
	var apiary domain.Apiary
	err := row.Scan(
		&apiary.ID,
		&apiary.Name,
		&apiary.Latitude,
		&apiary.Longitude,
		&apiary.Notes,
		&apiary.CreatedAt,
		&apiary.ModifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Apiary{}, domain.ErrApiaryNotFound
	}
	return apiary, err
}

func (d *DB) CreateApiary(ctx context.Context, apiary domain.Apiary) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO apiaries (`+apiaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		apiary.ID,
		apiary.Name,
		apiary.Latitude,
		apiary.Longitude,
		apiary.Notes,
		apiary.CreatedAt,
		apiary.ModifiedAt,
	)
	return err
}

func (d *DB) UpdateApiary(ctx context.Context, apiary domain.Apiary) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE apiaries
		SET name = $2, latitude = $3, longitude = $4, notes = $5, modified_at = $6
		WHERE id = $1
	`, apiary.ID, apiary.Name, apiary.Latitude, apiary.Longitude, apiary.Notes, apiary.ModifiedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrApiaryNotFound
	}
	return nil
}

func (d *DB) GetApiary(ctx context.Context, id uuid.UUID) (domain.Apiary, error) {
	return scanApiary(d.Pool.QueryRow(ctx, `SELECT `+apiaryColumns+` FROM apiaries WHERE id = $1`, id))
}

func (d *DB) ListApiaries(ctx context.Context) ([]domain.Apiary, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+apiaryColumns+` FROM apiaries ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apiaries []domain.Apiary
	for rows.Next() {
		apiary, err := scanApiary(rows)
		if err != nil {
			return nil, err
		}
		apiaries = append(apiaries, apiary)
	}
	return apiaries, rows.Err()
}

// DeleteApiary removes the apiary. Hives and their records cascade.
func (d *DB) DeleteApiary(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM apiaries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrApiaryNotFound
	}
	return nil
}
