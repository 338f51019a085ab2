package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"beespeak/internal/domain"
)

const hiveColumns = `id, apiary_id, name, qr_string, hive_type, notes, created_at, modified_at`

const foreignKeyViolation = "23503"

func scanHive(row pgx.Row) (domain.Hive, error) {
	var hive domain.Hive
	err := row.Scan(
		&hive.ID,
		&hive.ApiaryID,
		&hive.Name,
		&hive.QRString,
		&hive.Type,
		&hive.Notes,
		&hive.CreatedAt,
		&hive.ModifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Hive{}, domain.ErrHiveNotFound
	}
	return hive, err
}

func (d *DB) CreateHive(ctx context.Context, hive domain.Hive) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO hives (`+hiveColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		hive.ID,
		hive.ApiaryID,
		hive.Name,
		hive.QRString,
		hive.Type,
		hive.Notes,
		hive.CreatedAt,
		hive.ModifiedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateQR
	}
	if isForeignKeyViolation(err) {
		return domain.ErrApiaryNotFound
	}
	return err
}

func (d *DB) UpdateHive(ctx context.Context, hive domain.Hive) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE hives
		SET name = $2, qr_string = $3, hive_type = $4, notes = $5, modified_at = $6
		WHERE id = $1
	`, hive.ID, hive.Name, hive.QRString, hive.Type, hive.Notes, hive.ModifiedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateQR
	}
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrHiveNotFound
	}
	return nil
}

func (d *DB) GetHive(ctx context.Context, id uuid.UUID) (domain.Hive, error) {
	return scanHive(d.Pool.QueryRow(ctx, `SELECT `+hiveColumns+` FROM hives WHERE id = $1`, id))
}

func (d *DB) HiveByQR(ctx context.Context, code string) (domain.Hive, error) {
	return scanHive(d.Pool.QueryRow(ctx, `SELECT `+hiveColumns+` FROM hives WHERE qr_string = $1`, code))
}

func (d *DB) ListHives(ctx context.Context, apiaryID uuid.UUID) ([]domain.Hive, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+hiveColumns+`
		FROM hives
		WHERE apiary_id = $1
		ORDER BY name, id
	`, apiaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hives []domain.Hive
	for rows.Next() {
		hive, err := scanHive(rows)
		if err != nil {
			return nil, err
		}
		hives = append(hives, hive)
	}
	return hives, rows.Err()
}

func (d *DB) DeleteHive(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM hives WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrHiveNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
