package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"beespeak/internal/domain"
)

const treatmentColumns = `id, hive_id, treated_at, product, dosage, notes, next_check_date,
	notification_id, created_at, modified_at`

func scanTreatment(row pgx.Row) (domain.Treatment, error) {
	var treatment domain.Treatment
	err := row.Scan(
		&treatment.ID,
		&treatment.HiveID,
		&treatment.Date,
		&treatment.Product,
		&treatment.Dosage,
		&treatment.Notes,
		&treatment.NextCheckDate,
		&treatment.NotificationID,
		&treatment.CreatedAt,
		&treatment.ModifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Treatment{}, domain.ErrTreatmentNotFound
	}
	return treatment, err
}

func (d *DB) CreateTreatment(ctx context.Context, treatment domain.Treatment) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO treatments (`+treatmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		treatment.ID,
		treatment.HiveID,
		treatment.Date,
		treatment.Product,
		treatment.Dosage,
		treatment.Notes,
		treatment.NextCheckDate,
		treatment.NotificationID,
		treatment.CreatedAt,
		treatment.ModifiedAt,
	)
	if isForeignKeyViolation(err) {
		return domain.ErrHiveNotFound
	}
	return err
}

func (d *DB) UpdateTreatment(ctx context.Context, treatment domain.Treatment) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE treatments
		SET treated_at = $2, product = $3, dosage = $4, notes = $5,
			next_check_date = $6, notification_id = $7, modified_at = $8
		WHERE id = $1
	`,
		treatment.ID,
		treatment.Date,
		treatment.Product,
		treatment.Dosage,
		treatment.Notes,
		treatment.NextCheckDate,
		treatment.NotificationID,
		treatment.ModifiedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTreatmentNotFound
	}
	return nil
}

func (d *DB) GetTreatment(ctx context.Context, id uuid.UUID) (domain.Treatment, error) {
	return scanTreatment(d.Pool.QueryRow(ctx, `SELECT `+treatmentColumns+` FROM treatments WHERE id = $1`, id))
}

func (d *DB) ListTreatments(ctx context.Context, hiveID uuid.UUID) ([]domain.Treatment, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+treatmentColumns+`
		FROM treatments
		WHERE hive_id = $1
		ORDER BY treated_at DESC
	`, hiveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var treatments []domain.Treatment
	for rows.Next() {
		treatment, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		treatments = append(treatments, treatment)
	}
	return treatments, rows.Err()
}

func (d *DB) DeleteTreatment(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTreatmentNotFound
	}
	return nil
}
