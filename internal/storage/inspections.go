package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"beespeak/internal/domain"
)

const inspectionColumns = `id, hive_id, inspected_at, queen_seen, eggs_present, brood_pattern_good,
	queen_cells, varroa_level, photos, transcript, tags, created_at, modified_at`

func scanInspection(row pgx.Row) (domain.Inspection, error) {
	var (
		inspection domain.Inspection
		varroa     int16
	)
	err := row.Scan(
		&inspection.ID,
		&inspection.HiveID,
		&inspection.Date,
		&inspection.Flags.QueenSeen,
		&inspection.Flags.EggsPresent,
		&inspection.Flags.BroodPatternGood,
		&inspection.Flags.QueenCells,
		&varroa,
		&inspection.Photos,
		&inspection.Transcript,
		&inspection.Tags,
		&inspection.CreatedAt,
		&inspection.ModifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Inspection{}, domain.ErrInspectionNotFound
	}
	inspection.Flags.VarroaLevel = domain.VarroaLevel(varroa)
	return inspection, err
}

func (d *DB) CreateInspection(ctx context.Context, inspection domain.Inspection) error {
	photos, tags := inspection.Photos, inspection.Tags
	if photos == nil {
		photos = []string{}
	}
	if tags == nil {
		tags = []string{}
	}
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO inspections (`+inspectionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		inspection.ID,
		inspection.HiveID,
		inspection.Date,
		inspection.Flags.QueenSeen,
		inspection.Flags.EggsPresent,
		inspection.Flags.BroodPatternGood,
		inspection.Flags.QueenCells,
		int16(inspection.Flags.VarroaLevel),
		photos,
		inspection.Transcript,
		tags,
		inspection.CreatedAt,
		inspection.ModifiedAt,
	)
	if isForeignKeyViolation(err) {
		return domain.ErrHiveNotFound
	}
	return err
}

func (d *DB) ListInspections(ctx context.Context, hiveID uuid.UUID) ([]domain.Inspection, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+inspectionColumns+`
		FROM inspections
		WHERE hive_id = $1
		ORDER BY inspected_at DESC
	`, hiveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inspections []domain.Inspection
	for rows.Next() {
		inspection, err := scanInspection(rows)
		if err != nil {
			return nil, err
		}
		inspections = append(inspections, inspection)
	}
	return inspections, rows.Err()
}

func (d *DB) DeleteInspection(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM inspections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInspectionNotFound
	}
	return nil
}
